package customer

import (
	"context"
	"fmt"
	"strings"

	"loyalty-program/internal/domain"
	custrepo "loyalty-program/internal/repository/customer"
)

// Service handles customer registration and profile management. It is the
// validation boundary that turns untrusted text into the domain's numeric
// and enum types before any ledger logic runs.
type Service struct {
	repo custrepo.Repository

	selfRegisterRate     float64
	notifyThresholdCents int64
}

// Config tunes registration behavior.
type Config struct {
	// SelfRegisterRate is the cashback percentage assigned on self-registration.
	SelfRegisterRate float64
	// NotifyThresholdCents is the accrued total at which a cashback customer
	// becomes notification-eligible.
	NotifyThresholdCents int64
}

// New creates a Service.
func New(repo custrepo.Repository, cfg Config) *Service {
	return &Service{
		repo:                 repo,
		selfRegisterRate:     cfg.SelfRegisterRate,
		notifyThresholdCents: cfg.NotifyThresholdCents,
	}
}

// RegisterInput captures fields expected by the staff registration endpoint.
type RegisterInput struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	RewardType string  `json:"rewardType"`
	RewardRate float64 `json:"rewardRate"`
}

// SelfRegisterInput captures fields a customer submits via the QR flow.
type SelfRegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Register creates a customer from a staff-entered form.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Customer, error) {
	rewardType, err := domain.ParseRewardType(in.RewardType)
	if err != nil {
		return nil, err
	}
	c := domain.Customer{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		RewardType: rewardType,
		RewardRate: in.RewardRate,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

// SelfRegister creates a customer from the scannable-code flow. Self-registered
// customers always get cashback at the configured fixed rate.
func (s *Service) SelfRegister(ctx context.Context, in SelfRegisterInput) (*domain.Customer, error) {
	c := domain.Customer{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		RewardType: domain.RewardCashback,
		RewardRate: s.selfRegisterRate,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

// Update replaces the customer's profile and reward configuration.
func (s *Service) Update(ctx context.Context, id string, in RegisterInput) (*domain.Customer, error) {
	rewardType, err := domain.ParseRewardType(in.RewardType)
	if err != nil {
		return nil, err
	}
	c := domain.Customer{
		ID:         id,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		RewardType: rewardType,
		RewardRate: in.RewardRate,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, c)
}

// Get fetches one customer with its derived accrued total.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// List fetches all customers with their derived accrued totals.
func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.List(ctx)
}

// Delete removes the customer and, through cascade, its entire purchase ledger.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Eligible reports whether the customer qualifies for a reward notification.
func (s *Service) Eligible(c domain.Customer) bool {
	return c.EligibleForNotification(s.notifyThresholdCents)
}

func validate(c domain.Customer) error {
	if c.FirstName == "" {
		return fmt.Errorf("%w: first name required", domain.ErrInvalidInput)
	}
	if c.LastName == "" {
		return fmt.Errorf("%w: last name required", domain.ErrInvalidInput)
	}
	if c.RewardRate < 0 {
		return fmt.Errorf("%w: reward rate must be >= 0", domain.ErrInvalidInput)
	}
	return nil
}
