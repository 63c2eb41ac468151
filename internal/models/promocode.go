package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType represents how a promo code discounts an order
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// PromoCodeStatus represents the lifecycle status of a promo code
type PromoCodeStatus string

const (
	PromoCodeStatusActive   PromoCodeStatus = "active"
	PromoCodeStatusInactive PromoCodeStatus = "inactive"
	PromoCodeStatusExpired  PromoCodeStatus = "expired"
)

// DefaultCommissionRate is the commission percentage applied when a promo
// code does not carry an explicit override.
var DefaultCommissionRate = decimal.NewFromInt(10)

// PromoCode represents a discount code, optionally owned by an influencer
type PromoCode struct {
	ID             int              `json:"id" db:"id"`
	Code           string           `json:"code" db:"code"`
	DiscountType   DiscountType     `json:"discount_type" db:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value" db:"discount_value"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty" db:"max_discount"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount,omitempty" db:"min_order_amount"`
	UsageLimit     *int             `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount      int              `json:"used_count" db:"used_count"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty" db:"valid_until"`
	Status         PromoCodeStatus  `json:"status" db:"status"`
	InfluencerID   *int             `json:"influencer_id,omitempty" db:"influencer_id"`

	// CommissionRate is the percentage of the subscription amount credited
	// to the owning influencer on each redemption. Snapshotted onto every
	// commission at earn time.
	CommissionRate   decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	TotalCommissions decimal.Decimal `json:"total_commissions" db:"total_commissions"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Related data
	Influencer *Influencer `json:"influencer,omitempty"`
}

// HasUsageLeft reports whether the code still has redemption slots. The
// authoritative check is the conditional increment in the repository; this
// is the read-side view used by validation.
func (p *PromoCode) HasUsageLeft() bool {
	return p.UsageLimit == nil || p.UsedCount < *p.UsageLimit
}

// PromoCodeCreateRequest represents a request to create a promo code
type PromoCodeCreateRequest struct {
	Code           string           `json:"code"`
	DiscountType   DiscountType     `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount,omitempty"`
	UsageLimit     *int             `json:"usage_limit,omitempty"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	InfluencerID   *int             `json:"influencer_id,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

// Validate validates the promo code create request
func (r *PromoCodeCreateRequest) Validate() error {
	if r.Code == "" {
		return ErrInvalidInput
	}
	if r.DiscountType != DiscountPercentage && r.DiscountType != DiscountFixedAmount {
		return ErrInvalidInput
	}
	if r.DiscountValue.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidInput
	}
	if r.DiscountType == DiscountPercentage && r.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidInput
	}
	if r.UsageLimit != nil && *r.UsageLimit <= 0 {
		return ErrInvalidInput
	}
	if r.CommissionRate != nil &&
		(r.CommissionRate.IsNegative() || r.CommissionRate.GreaterThan(decimal.NewFromInt(100))) {
		return ErrInvalidInput
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidUntil.Before(*r.ValidFrom) {
		return ErrInvalidInput
	}
	return nil
}

// PromoCodeUpdateRequest represents an admin edit of a promo code. Usage
// counters are not editable; they change only through redemption.
type PromoCodeUpdateRequest struct {
	DiscountValue  *decimal.Decimal `json:"discount_value,omitempty"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount,omitempty"`
	UsageLimit     *int             `json:"usage_limit,omitempty"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Status         *PromoCodeStatus `json:"status,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}
