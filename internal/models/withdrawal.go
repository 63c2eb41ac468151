package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the status of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
)

// MinWithdrawalAmount is the floor below which withdrawal requests are rejected.
var MinWithdrawalAmount = decimal.NewFromInt(10)

// Withdrawal represents an influencer's request to convert available balance
// into an external payout
type Withdrawal struct {
	ID           int              `json:"id" db:"id"`
	InfluencerID int              `json:"influencer_id" db:"influencer_id"`
	Amount       decimal.Decimal  `json:"amount" db:"amount"`
	Status       WithdrawalStatus `json:"status" db:"status"`

	// Bank is copied from the influencer at request time. Later edits to the
	// influencer's bank details do not affect a filed request.
	Bank BankAccount `json:"bank"`

	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	PayoutID        string     `json:"payout_id,omitempty" db:"payout_id"`
	RequestedAt     time.Time  `json:"requested_at" db:"requested_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`

	// Related data
	Influencer *Influencer `json:"influencer,omitempty"`
}

// IsTerminal reports whether the withdrawal can no longer change state
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalStatusRejected || w.Status == WithdrawalStatusPaid
}

// WithdrawalCreateRequest represents a request to create a withdrawal
type WithdrawalCreateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate validates the withdrawal create request
func (r *WithdrawalCreateRequest) Validate() error {
	if r.Amount.LessThan(MinWithdrawalAmount) {
		return ErrInvalidInput
	}
	return nil
}
