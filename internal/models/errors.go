package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Common errors used throughout the application
var (
	ErrPromoCodeNotFound  = errors.New("promo code not found")
	ErrInfluencerNotFound = errors.New("influencer not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrDuplicateCode      = errors.New("promo code already exists")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUsageLimitReached  = errors.New("promo code usage limit reached")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrPromoCodeInUse     = errors.New("promo code has been redeemed and cannot be deleted")
)

// InsufficientBalanceError is returned when a withdrawal amount exceeds the
// influencer's available balance, at request time or at payout time.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// BankValidationError carries every failing bank-account check, not just the
// first, so callers can surface all problems at once.
type BankValidationError struct {
	Reasons []string
}

func (e *BankValidationError) Error() string {
	return "invalid bank account: " + strings.Join(e.Reasons, "; ")
}

// ExternalServiceError wraps a failure from the payment processor. Callers
// treat these as retryable.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("payment processor %s failed: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
