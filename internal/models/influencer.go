package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InfluencerStatus represents the onboarding status of an influencer
type InfluencerStatus string

const (
	InfluencerStatusPending  InfluencerStatus = "pending"
	InfluencerStatusApproved InfluencerStatus = "approved"
	InfluencerStatusRejected InfluencerStatus = "rejected"
)

// BankAccount holds US bank account details for payouts
type BankAccount struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	HolderName    string `json:"holder_name"`
	AccountType   string `json:"account_type"` // "checking" or "savings"
}

// Influencer represents a referral partner who earns commissions on
// subscriptions purchased with their promo codes
type Influencer struct {
	ID        int              `json:"id" db:"id"`
	FirstName string           `json:"first_name" db:"first_name"`
	LastName  string           `json:"last_name" db:"last_name"`
	Email     string           `json:"email" db:"email"`
	Status    InfluencerStatus `json:"status" db:"status"`
	Bank      BankAccount      `json:"bank"`

	// Balance aggregates. TotalEarnings == AvailableBalance + TotalWithdrawn
	// must hold after every committed transaction. These fields are mutated
	// only by the commission ledger and the withdrawal pipeline.
	TotalEarnings    decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	AvailableBalance decimal.Decimal `json:"available_balance" db:"available_balance"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn" db:"total_withdrawn"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the influencer's full name
func (i *Influencer) FullName() string {
	return i.FirstName + " " + i.LastName
}

// IsApproved checks whether the influencer can earn commissions and withdraw
func (i *Influencer) IsApproved() bool {
	return i.Status == InfluencerStatusApproved
}

// InfluencerCreateRequest represents a request to onboard an influencer
type InfluencerCreateRequest struct {
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Bank      BankAccount `json:"bank"`
}

// Validate validates the influencer create request
func (r *InfluencerCreateRequest) Validate() error {
	if r.FirstName == "" || r.LastName == "" {
		return ErrInvalidInput
	}
	if r.Email == "" {
		return ErrInvalidInput
	}
	return nil
}

// BalanceSummary is the reporting view of an influencer's aggregates
type BalanceSummary struct {
	InfluencerID     int             `json:"influencer_id"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
}
