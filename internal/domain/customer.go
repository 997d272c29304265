package domain

import (
	"fmt"
	"strings"
	"time"
)

// RewardType selects how a customer's reward is accrued.
type RewardType string

const (
	// RewardDiscount grants a percentage off at the till; it does not
	// accumulate spend or reward unless discount accrual is enabled.
	RewardDiscount RewardType = "discount"
	// RewardCashback accrues a percentage of each purchase as redeemable value.
	RewardCashback RewardType = "cashback"
)

// ParseRewardType converts untrusted text into a RewardType.
func ParseRewardType(s string) (RewardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RewardDiscount):
		return RewardDiscount, nil
	case string(RewardCashback):
		return RewardCashback, nil
	}
	return "", fmt.Errorf("%w: unknown reward type %q", ErrInvalidInput, s)
}

// Customer is a loyalty-program member with a reward configuration.
// AccruedCents is derived at read time as the sum of the customer's
// purchases' net reward deltas; it is never stored independently.
type Customer struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	RewardType   RewardType `json:"rewardType"`
	RewardRate   float64    `json:"rewardRate"`
	SpentCents   int64      `json:"spentCents"`
	AccruedCents int64      `json:"accruedCents"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// EligibleForNotification reports whether the customer has accrued enough
// cashback to be worth notifying. Pure read-time predicate, never stored.
func (c Customer) EligibleForNotification(thresholdCents int64) bool {
	return c.RewardType == RewardCashback && c.AccruedCents >= thresholdCents
}
