package services

import (
	"coaching-platform/internal/models"
	"coaching-platform/internal/repositories"

	"github.com/shopspring/decimal"
)

// PromoCodeStore defines the promo code data operations the services need
type PromoCodeStore interface {
	Create(req *models.PromoCodeCreateRequest) (*models.PromoCode, error)
	GetByCode(code string) (*models.PromoCode, error)
	GetByID(id int) (*models.PromoCode, error)
	GetAll(limit, offset int, status string) ([]*models.PromoCode, int, error)
	GetActive() ([]*models.PromoCode, error)
	Update(id int, req *models.PromoCodeUpdateRequest) (*models.PromoCode, error)
	Deactivate(id int) error
	Delete(id int) error
	Redeem(promo *models.PromoCode, params repositories.RedeemParams) (*models.Redemption, *models.Commission, error)
	FindRedemption(purchaseID string) (*models.Redemption, *models.Commission, error)
}

// InfluencerStore defines the influencer data operations the services need
type InfluencerStore interface {
	Create(req *models.InfluencerCreateRequest) (*models.Influencer, error)
	GetByID(id int) (*models.Influencer, error)
	UpdateStatus(id int, status models.InfluencerStatus) error
	UpdateBank(id int, bank models.BankAccount) error
	GetBalance(id int) (*models.BalanceSummary, error)
}

// CommissionStore defines the commission data operations the services need
type CommissionStore interface {
	GetByID(id int) (*models.Commission, error)
	GetByPurchaseID(purchaseID string) (*models.Commission, error)
	GetByInfluencer(influencerID int, limit, offset int) ([]*models.Commission, int, error)
	UpdateStatus(id int, from, to models.CommissionStatus) error
	Record(influencerID, promoCodeID int, purchaseID string,
		subscriptionAmount, rate, amount decimal.Decimal) (*models.Commission, error)
}

// WithdrawalStore defines the withdrawal data operations the services need
type WithdrawalStore interface {
	Create(influencerID int, amount decimal.Decimal, bank models.BankAccount) (*models.Withdrawal, error)
	GetByID(id int) (*models.Withdrawal, error)
	GetByInfluencer(influencerID int, limit, offset int) ([]*models.Withdrawal, int, error)
	GetAll(limit, offset int, status string) ([]*models.Withdrawal, int, error)
	ResolvePending(id int, status models.WithdrawalStatus, reason string) error
	MarkPaid(id int, influencerID int, amount decimal.Decimal, payoutID string) error
}

// SubscriptionStore defines the subscription mirror operations
type SubscriptionStore interface {
	Upsert(processorSubscriptionID string, status models.SubscriptionStatus,
		customerEmail, promoCode string) (*models.Subscription, error)
}

// WebhookEventStore is the processed-event ledger
type WebhookEventStore interface {
	MarkProcessed(eventID, eventType string) (bool, error)
	Release(eventID string) error
}

// ProcessorClient is the payment processor surface this engine depends on:
// coupon and promotion code primitives for the mirror, payouts for
// withdrawals, and signature verification for webhooks.
type ProcessorClient interface {
	ListCoupons() ([]*Coupon, error)
	ListPromotionCodes() ([]*PromotionCode, error)
	CreateCoupon(req *CouponCreateRequest) (*Coupon, error)
	CreatePromotionCode(req *PromotionCodeCreateRequest) (*PromotionCode, error)
	CreatePayout(req *PayoutRequest) (*Payout, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// Notifier sends templated emails. Failures are logged by callers, never
// allowed to fail the surrounding money operation.
type Notifier interface {
	Send(template string, to string, vars map[string]string) error
}
