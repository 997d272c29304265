package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type customerSeed struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	RewardType string
	RewardRate float64
	Purchases  []purchaseSeed
}

type purchaseSeed struct {
	AmountCents int64
	EarnedCents int64
}

// Apply inserts basic seed data for manual testing. It is idempotent: a
// customer is looked up by email and purchases are only seeded once.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	customers := []customerSeed{
		{
			FirstName:  "Jana",
			LastName:   "Novak",
			Email:      "jana.novak@example.com",
			Phone:      "+420601111222",
			RewardType: "cashback",
			RewardRate: 5,
			Purchases: []purchaseSeed{
				{AmountCents: 100000, EarnedCents: 5000},
				{AmountCents: 20000, EarnedCents: 1000},
			},
		},
		{
			FirstName:  "Petr",
			LastName:   "Svoboda",
			Email:      "petr.svoboda@example.com",
			Phone:      "+420602333444",
			RewardType: "discount",
			RewardRate: 10,
		},
	}

	for _, c := range customers {
		if err := ensureCustomer(ctx, pool, c); err != nil {
			return fmt.Errorf("ensure customer %s %s: %w", c.FirstName, c.LastName, err)
		}
	}
	return nil
}

func ensureCustomer(ctx context.Context, pool *pgxpool.Pool, c customerSeed) error {
	var id string
	err := pool.QueryRow(ctx, `SELECT id::text FROM customers WHERE email = $1 LIMIT 1`, c.Email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	const insert = `
INSERT INTO customers (first_name, last_name, email, phone, reward_type, reward_rate, spent_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text
`
	var spent int64
	for _, p := range c.Purchases {
		spent += p.AmountCents
	}
	if err := pool.QueryRow(ctx, insert, c.FirstName, c.LastName, c.Email, c.Phone, c.RewardType, c.RewardRate, spent).Scan(&id); err != nil {
		return err
	}

	for _, p := range c.Purchases {
		const q = `
INSERT INTO purchases (customer_id, amount_cents, earned_cents, spent_cents)
VALUES ($1, $2, $3, $2)
`
		if _, err := pool.Exec(ctx, q, id, p.AmountCents, p.EarnedCents); err != nil {
			return fmt.Errorf("seed purchase: %w", err)
		}
	}
	return nil
}
