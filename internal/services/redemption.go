package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
	"coaching-platform/internal/repositories"
)

// ValidationReason is a machine-readable reason a promo code failed validation
type ValidationReason string

const (
	ReasonNotFound      ValidationReason = "NOT_FOUND"
	ReasonInactive      ValidationReason = "INACTIVE"
	ReasonExpired       ValidationReason = "EXPIRED"
	ReasonNotYetValid   ValidationReason = "NOT_YET_VALID"
	ReasonBelowMinimum  ValidationReason = "BELOW_MINIMUM"
	ReasonUsageExceeded ValidationReason = "USAGE_EXCEEDED"
)

// ValidationResult is the outcome of checking a promo code against an order
type ValidationResult struct {
	Valid          bool             `json:"valid"`
	Reason         ValidationReason `json:"reason,omitempty"`
	Message        string           `json:"message,omitempty"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	FinalAmount    decimal.Decimal  `json:"final_amount"`
	PromoCode      *models.PromoCode `json:"promo_code,omitempty"`
}

// ValidationError is returned by Redeem when the code fails validation.
// These are user-facing, never retried automatically.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("promo code validation failed (%s): %s", e.Reason, e.Message)
}

// RedemptionResult is the outcome of redeeming a promo code for a purchase
type RedemptionResult struct {
	Redemption *models.Redemption `json:"redemption"`
	Commission *models.Commission `json:"commission,omitempty"`

	// AlreadyProcessed is set when the purchase had been redeemed before and
	// the existing records were returned instead of new ones.
	AlreadyProcessed bool `json:"already_processed"`
}

// RedemptionService validates promo codes against orders and redeems them on
// successful purchases
type RedemptionService struct {
	promoRepo PromoCodeStore
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(promoRepo PromoCodeStore) *RedemptionService {
	return &RedemptionService{promoRepo: promoRepo}
}

// Validate runs the read-only rule chain against a code and order amount.
// Checks short-circuit in a fixed order so the caller always gets the most
// specific failure reason.
func (s *RedemptionService) Validate(code string, orderAmount decimal.Decimal) (*ValidationResult, error) {
	promo, err := s.promoRepo.GetByCode(code)
	if err != nil {
		if err == models.ErrPromoCodeNotFound {
			return invalid(ReasonNotFound, "promo code not found"), nil
		}
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}

	now := time.Now()

	if promo.Status != models.PromoCodeStatusActive {
		return invalid(ReasonInactive, "promo code is not active"), nil
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return invalid(ReasonExpired, "promo code has expired"), nil
	}
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return invalid(ReasonNotYetValid, "promo code is not valid yet"), nil
	}
	if promo.MinOrderAmount != nil && orderAmount.LessThan(*promo.MinOrderAmount) {
		return invalid(ReasonBelowMinimum,
			fmt.Sprintf("order amount must be at least %s", promo.MinOrderAmount.StringFixed(2))), nil
	}
	if !promo.HasUsageLeft() {
		return invalid(ReasonUsageExceeded, "promo code usage limit reached"), nil
	}

	discount := ComputeDiscount(promo, orderAmount)
	return &ValidationResult{
		Valid:          true,
		DiscountAmount: discount.DiscountAmount,
		FinalAmount:    discount.FinalAmount,
		PromoCode:      promo,
	}, nil
}

// Redeem consumes the promo code for a successful purchase, creating the
// influencer's commission in the same transaction as the usage increment.
//
// Redeem is idempotent per purchase reference: a retried call (webhook
// redelivery) returns the original redemption instead of creating another
// commission or balance credit.
func (s *RedemptionService) Redeem(code, purchaseID string, subscriptionAmount decimal.Decimal) (*RedemptionResult, error) {
	if purchaseID == "" {
		return nil, models.ErrInvalidInput
	}

	redemption, commission, err := s.promoRepo.FindRedemption(purchaseID)
	if err != nil {
		return nil, err
	}
	if redemption != nil {
		return &RedemptionResult{Redemption: redemption, Commission: commission, AlreadyProcessed: true}, nil
	}

	result, err := s.Validate(code, subscriptionAmount)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{Reason: result.Reason, Message: result.Message}
	}

	promo := result.PromoCode
	params := repositories.RedeemParams{
		PurchaseID:       purchaseID,
		OrderAmount:      subscriptionAmount,
		DiscountAmount:   result.DiscountAmount,
		CommissionRate:   promo.CommissionRate,
		CommissionAmount: ComputeCommission(subscriptionAmount, promo.CommissionRate),
	}

	redemption, commission, err = s.promoRepo.Redeem(promo, params)
	if err != nil {
		switch err {
		case models.ErrUsageLimitReached:
			// A concurrent redemption took the last slot between validation
			// and the conditional increment.
			return nil, &ValidationError{Reason: ReasonUsageExceeded, Message: "promo code usage limit reached"}
		case models.ErrDuplicateEntry:
			// A concurrent retry of the same purchase committed first.
			redemption, commission, findErr := s.promoRepo.FindRedemption(purchaseID)
			if findErr != nil || redemption == nil {
				return nil, fmt.Errorf("failed to load concurrent redemption: %w", err)
			}
			return &RedemptionResult{Redemption: redemption, Commission: commission, AlreadyProcessed: true}, nil
		default:
			return nil, err
		}
	}

	return &RedemptionResult{Redemption: redemption, Commission: commission}, nil
}

func invalid(reason ValidationReason, message string) *ValidationResult {
	return &ValidationResult{Valid: false, Reason: reason, Message: message}
}
