package domain

import "time"

// Purchase records one transaction for a customer. EarnedCents is the reward
// accrued by the purchase, RedeemedCents the previously accrued reward spent
// down with it; the two are kept apart so that amending or clearing one never
// corrupts the other. SpentCents is the amount this purchase contributed to
// the customer's cumulative spend when it was recorded; amendments reverse
// exactly that contribution, even if the customer's reward type has changed
// since.
type Purchase struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	AmountCents   int64     `json:"amountCents"`
	EarnedCents   int64     `json:"earnedCents"`
	RedeemedCents int64     `json:"redeemedCents"`
	SpentCents    int64     `json:"spentCents"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NetRewardCents is the purchase's signed contribution to the customer's
// accrued reward total.
func (p Purchase) NetRewardCents() int64 {
	return p.EarnedCents - p.RedeemedCents
}
