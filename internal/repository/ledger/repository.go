package ledger

import (
	"context"

	"loyalty-program/internal/domain"
)

// Repository is the transactional persistence surface for the reward ledger.
// Mutating flows run inside InTx so that the read-compute-write cycle over a
// customer and its purchases commits as one unit; CustomerForUpdate and
// PurchaseForUpdate take row locks to rule out lost updates between
// concurrent operations on the same customer.
type Repository interface {
	// InTx runs fn against a repository bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error

	CustomerForUpdate(ctx context.Context, id string) (*domain.Customer, error)
	// CustomerByID reads the customer without locking it; for read paths
	// that only need existence or a point-in-time view.
	CustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	PurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error)
	// AccruedTotal sums the net reward deltas of the customer's purchases.
	AccruedTotal(ctx context.Context, customerID string) (int64, error)
	InsertPurchase(ctx context.Context, p domain.Purchase) (*domain.Purchase, error)
	UpdatePurchase(ctx context.Context, p domain.Purchase) error
	// AddCustomerSpent adjusts the customer's cumulative spend by delta cents.
	AddCustomerSpent(ctx context.Context, customerID string, delta int64) error
	PurchasesByCustomer(ctx context.Context, customerID string) ([]domain.Purchase, error)
}
