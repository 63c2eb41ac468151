package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus represents the payout-eligibility status of a commission.
// It is independent of the withdrawal pipeline: moving a commission to paid
// does not itself move money between balance fields.
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// Commission represents a monetary credit owed to an influencer for one
// successful promo code redemption
type Commission struct {
	ID           int    `json:"id" db:"id"`
	InfluencerID int    `json:"influencer_id" db:"influencer_id"`
	PromoCodeID  int    `json:"promo_code_id" db:"promo_code_id"`
	PurchaseID   string `json:"purchase_id" db:"purchase_id"`

	SubscriptionAmount decimal.Decimal `json:"subscription_amount" db:"subscription_amount"`

	// CommissionRate and CommissionAmount are snapshots taken at earn time
	// and are never recomputed, even if the code's rate changes later.
	CommissionRate   decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount" db:"commission_amount"`

	Status    CommissionStatus `json:"status" db:"status"`
	PaidAt    *time.Time       `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether a commission status change is allowed.
// The forward path is pending -> approved -> paid.
func (c *Commission) CanTransitionTo(next CommissionStatus) bool {
	switch c.Status {
	case CommissionStatusPending:
		return next == CommissionStatusApproved || next == CommissionStatusPaid
	case CommissionStatusApproved:
		return next == CommissionStatusPaid
	default:
		return false
	}
}

// Redemption records the consumption of a promo code by one purchase. The
// unique purchase reference is what makes redemption idempotent across
// webhook retries, whether or not the code has an owning influencer.
type Redemption struct {
	ID             int             `json:"id" db:"id"`
	PromoCodeID    int             `json:"promo_code_id" db:"promo_code_id"`
	PurchaseID     string          `json:"purchase_id" db:"purchase_id"`
	OrderAmount    decimal.Decimal `json:"order_amount" db:"order_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	CommissionID   *int            `json:"commission_id,omitempty" db:"commission_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
