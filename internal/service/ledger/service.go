package ledger

import (
	"context"
	"math"

	"loyalty-program/internal/domain"
	ledgerrepo "loyalty-program/internal/repository/ledger"
)

// Service is the reward ledger engine. It owns the accrual arithmetic and
// runs every mutating flow as one transaction over the owning customer's
// aggregate.
//
// Accrual policy: type-aware with redemption. Cashback purchases earn
// amount*rate/100 and accumulate spend; discount purchases earn and
// accumulate nothing unless discountAccrual is enabled. The customer's
// accrued total is never stored; it is always the sum of the purchases' net
// reward deltas.
type Service struct {
	repo            ledgerrepo.Repository
	discountAccrual bool
}

// Options tunes engine behavior.
type Options struct {
	// DiscountAccrual makes discount-type customers accrue like cashback ones.
	DiscountAccrual bool
}

// New creates a Service.
func New(repo ledgerrepo.Repository, opts Options) *Service {
	return &Service{repo: repo, discountAccrual: opts.DiscountAccrual}
}

// AccrueInput carries one purchase to record.
type AccrueInput struct {
	AmountCents   int64
	RedeemedCents int64
}

// Accrue records a purchase for the customer: computes the reward earned,
// spends down RedeemedCents of previously accrued reward, appends the
// purchase and updates the customer's cumulative spend in one transaction.
// The returned customer carries the post-accrual derived reward total.
func (s *Service) Accrue(ctx context.Context, customerID string, in AccrueInput) (*domain.Purchase, *domain.Customer, error) {
	if in.AmountCents < 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	if in.RedeemedCents < 0 {
		return nil, nil, domain.ErrInvalidRedemption
	}

	var (
		purchase *domain.Purchase
		customer *domain.Customer
	)
	err := s.repo.InTx(ctx, func(r ledgerrepo.Repository) error {
		c, err := r.CustomerForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		total, err := r.AccruedTotal(ctx, c.ID)
		if err != nil {
			return err
		}
		if in.RedeemedCents > total {
			return domain.ErrInvalidRedemption
		}

		earned, spentDelta := s.accrual(c.RewardType, c.RewardRate, in.AmountCents)

		p, err := r.InsertPurchase(ctx, domain.Purchase{
			CustomerID:    c.ID,
			AmountCents:   in.AmountCents,
			EarnedCents:   earned,
			RedeemedCents: in.RedeemedCents,
			SpentCents:    spentDelta,
		})
		if err != nil {
			return err
		}
		if spentDelta != 0 {
			if err := r.AddCustomerSpent(ctx, c.ID, spentDelta); err != nil {
				return err
			}
		}

		c.SpentCents += spentDelta
		c.AccruedCents = total + p.NetRewardCents()
		purchase, customer = p, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return purchase, customer, nil
}

// Amend corrects a purchase's amount. The reward earned is recomputed with
// the owning customer's current rate (rates are not versioned) and the
// customer's cumulative spend adjusted against the spend contribution the
// purchase recorded at accrue time, so a reward-type change between accrue
// and amend cannot subtract spend the customer never gained; the redeemed
// portion of the purchase is left untouched.
func (s *Service) Amend(ctx context.Context, purchaseID string, newAmountCents int64) (*domain.Purchase, error) {
	if newAmountCents < 0 {
		return nil, domain.ErrInvalidAmount
	}

	var amended *domain.Purchase
	err := s.repo.InTx(ctx, func(r ledgerrepo.Repository) error {
		p, err := r.PurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		c, err := r.CustomerForUpdate(ctx, p.CustomerID)
		if err != nil {
			return err
		}

		earned, newSpent := s.accrual(c.RewardType, c.RewardRate, newAmountCents)
		oldSpent := p.SpentCents

		p.AmountCents = newAmountCents
		p.EarnedCents = earned
		p.SpentCents = newSpent
		if err := r.UpdatePurchase(ctx, *p); err != nil {
			return err
		}
		if delta := newSpent - oldSpent; delta != 0 {
			if err := r.AddCustomerSpent(ctx, c.ID, delta); err != nil {
				return err
			}
		}
		amended = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amended, nil
}

// ClearReward marks a purchase's earned reward as consumed by setting it to
// exactly zero. No-op when nothing is earned; idempotent. The customer's
// displayed total self-corrects because it is derived from the ledger.
func (s *Service) ClearReward(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	var cleared *domain.Purchase
	err := s.repo.InTx(ctx, func(r ledgerrepo.Repository) error {
		p, err := r.PurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p.EarnedCents > 0 {
			p.EarnedCents = 0
			if err := r.UpdatePurchase(ctx, *p); err != nil {
				return err
			}
		}
		cleared = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cleared, nil
}

// Purchases lists the customer's ledger, oldest first. Plain reads, no
// transaction or row lock.
func (s *Service) Purchases(ctx context.Context, customerID string) ([]domain.Purchase, error) {
	if _, err := s.repo.CustomerByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.PurchasesByCustomer(ctx, customerID)
}

// Ledger returns the customer together with the full purchase list, both
// read in one transaction so the derived reward total and the ledger it is
// derived from come from the same snapshot. No row lock is taken.
func (s *Service) Ledger(ctx context.Context, customerID string) (*domain.Customer, []domain.Purchase, error) {
	var (
		customer  *domain.Customer
		purchases []domain.Purchase
	)
	err := s.repo.InTx(ctx, func(r ledgerrepo.Repository) error {
		c, err := r.CustomerByID(ctx, customerID)
		if err != nil {
			return err
		}
		ps, err := r.PurchasesByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		var total int64
		for _, p := range ps {
			total += p.NetRewardCents()
		}
		c.AccruedCents = total
		customer, purchases = c, ps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return customer, purchases, nil
}

func (s *Service) accrual(t domain.RewardType, rate float64, amountCents int64) (earnedCents, spentCents int64) {
	if t == domain.RewardCashback || s.discountAccrual {
		return rewardCents(amountCents, rate), amountCents
	}
	return 0, 0
}

func rewardCents(amountCents int64, rate float64) int64 {
	return int64(math.Round(float64(amountCents) * rate / 100))
}
