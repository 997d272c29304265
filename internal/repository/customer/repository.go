package customer

import (
	"context"

	"loyalty-program/internal/domain"
)

// Repository persists and fetches customers. Reads always carry the derived
// accrued-reward total alongside the stored columns.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}
