package customer

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"loyalty-program/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

// accruedExpr derives the customer's reward total from the purchase ledger.
const accruedExpr = `
COALESCE((SELECT SUM(p.earned_cents - p.redeemed_cents) FROM purchases p WHERE p.customer_id = c.id), 0)`

const customerColumns = `
c.id::text, c.first_name, c.last_name, c.email, c.phone, c.reward_type, c.reward_rate, c.spent_cents, ` + accruedExpr + `, c.created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (first_name, last_name, email, phone, reward_type, reward_rate)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, first_name, last_name, email, phone, reward_type, reward_rate, spent_cents, 0::bigint, created_at
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, c.FirstName, c.LastName, c.Email, c.Phone, string(c.RewardType), c.RewardRate))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT` + customerColumns + `
FROM customers c
WHERE c.id = $1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Customer, error) {
	const q = `
SELECT` + customerColumns + `
FROM customers c
ORDER BY c.created_at, c.id
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
UPDATE customers c
SET first_name = $2,
    last_name = $3,
    email = $4,
    phone = $5,
    reward_type = $6,
    reward_rate = $7
WHERE c.id = $1
RETURNING` + customerColumns + `
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, string(c.RewardType), c.RewardRate))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	// Owned purchases go with the customer via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var rewardType string
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&rewardType,
		&c.RewardRate,
		&c.SpentCents,
		&c.AccruedCents,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("customer repo: scan error=%v", err)
		return nil, err
	}
	c.RewardType = domain.RewardType(rewardType)
	return &c, nil
}
