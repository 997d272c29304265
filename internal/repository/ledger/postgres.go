package ledger

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"loyalty-program/internal/domain"
)

// Postgres error code for a violated CHECK constraint.
const checkViolation = "23514"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepo struct {
	q      querier
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{q: pool, pool: pool, logger: logger}
}

func (r *postgresRepo) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		// Already transaction-bound; run in the enclosing transaction.
		return fn(r)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresRepo{q: tx, logger: r.logger}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const customerQuery = `
SELECT id::text, first_name, last_name, email, phone, reward_type, reward_rate, spent_cents, created_at
FROM customers
WHERE id = $1
`

func (r *postgresRepo) CustomerForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	return r.scanCustomer(r.q.QueryRow(ctx, customerQuery+"FOR UPDATE\n", id), id)
}

func (r *postgresRepo) CustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.scanCustomer(r.q.QueryRow(ctx, customerQuery, id), id)
}

func (r *postgresRepo) scanCustomer(row pgx.Row, id string) (*domain.Customer, error) {
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
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("ledger repo: read customer id=%s err=%v", id, err)
		return nil, err
	}
	c.RewardType = domain.RewardType(rewardType)
	return &c, nil
}

func (r *postgresRepo) PurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error) {
	const q = `
SELECT id::text, customer_id::text, amount_cents, earned_cents, redeemed_cents, spent_cents, created_at
FROM purchases
WHERE id = $1
FOR UPDATE
`
	return r.scanPurchase(r.q.QueryRow(ctx, q, id))
}

func (r *postgresRepo) AccruedTotal(ctx context.Context, customerID string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(earned_cents - redeemed_cents), 0)
FROM purchases
WHERE customer_id = $1
`
	var total int64
	if err := r.q.QueryRow(ctx, q, customerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresRepo) InsertPurchase(ctx context.Context, p domain.Purchase) (*domain.Purchase, error) {
	const q = `
INSERT INTO purchases (customer_id, amount_cents, earned_cents, redeemed_cents, spent_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, customer_id::text, amount_cents, earned_cents, redeemed_cents, spent_cents, created_at
`
	return r.scanPurchase(r.q.QueryRow(ctx, q, p.CustomerID, p.AmountCents, p.EarnedCents, p.RedeemedCents, p.SpentCents))
}

func (r *postgresRepo) UpdatePurchase(ctx context.Context, p domain.Purchase) error {
	const q = `
UPDATE purchases
SET amount_cents = $2,
    earned_cents = $3,
    redeemed_cents = $4,
    spent_cents = $5
WHERE id = $1
`
	tag, err := r.q.Exec(ctx, q, p.ID, p.AmountCents, p.EarnedCents, p.RedeemedCents, p.SpentCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddCustomerSpent(ctx context.Context, customerID string, delta int64) error {
	const q = `
UPDATE customers
SET spent_cents = spent_cents + $2
WHERE id = $1
`
	tag, err := r.q.Exec(ctx, q, customerID, delta)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			// The spent_cents >= 0 constraint; surface it as a domain
			// failure instead of a bare 500.
			return domain.ErrInvalidAmount
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) PurchasesByCustomer(ctx context.Context, customerID string) ([]domain.Purchase, error) {
	const q = `
SELECT id::text, customer_id::text, amount_cents, earned_cents, redeemed_cents, spent_cents, created_at
FROM purchases
WHERE customer_id = $1
ORDER BY created_at, id
`
	rows, err := r.q.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p, err := r.scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func (r *postgresRepo) scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(
		&p.ID,
		&p.CustomerID,
		&p.AmountCents,
		&p.EarnedCents,
		&p.RedeemedCents,
		&p.SpentCents,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("ledger repo: scan purchase err=%v", err)
		return nil, err
	}
	return &p, nil
}
