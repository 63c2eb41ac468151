package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProcessorService is an in-memory stand-in for the payment processor,
// used in tests and local development when no Stripe credentials are
// configured. It honors idempotency keys the way the real processor does.
type MockProcessorService struct {
	mu             sync.Mutex
	webhookSecret  string
	coupons        []*Coupon
	promotionCodes []*PromotionCode
	payouts        map[string]*Payout // keyed by idempotency key

	// FailPayouts makes CreatePayout return an error, for failure-path tests
	FailPayouts bool
	// FailListings makes the listing calls return an error
	FailListings bool
}

// NewMockProcessorService creates a new mock processor
func NewMockProcessorService(webhookSecret string) *MockProcessorService {
	return &MockProcessorService{
		webhookSecret: webhookSecret,
		payouts:       make(map[string]*Payout),
	}
}

// ListCoupons returns all coupons created so far
func (m *MockProcessorService) ListCoupons() ([]*Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListings {
		return nil, fmt.Errorf("mock processor unavailable")
	}
	coupons := make([]*Coupon, len(m.coupons))
	copy(coupons, m.coupons)
	return coupons, nil
}

// ListPromotionCodes returns all promotion codes created so far
func (m *MockProcessorService) ListPromotionCodes() ([]*PromotionCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListings {
		return nil, fmt.Errorf("mock processor unavailable")
	}
	codes := make([]*PromotionCode, len(m.promotionCodes))
	copy(codes, m.promotionCodes)
	return codes, nil
}

// CreateCoupon records a coupon
func (m *MockProcessorService) CreateCoupon(req *CouponCreateRequest) (*Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	coupon := &Coupon{
		ID:       "coup_" + uuid.NewString()[:8],
		Currency: req.Currency,
		Metadata: req.Metadata,
	}
	if req.PercentOff != nil {
		coupon.PercentOff, _ = req.PercentOff.Float64()
	}
	if req.AmountOff != nil {
		coupon.AmountOff = toCents(*req.AmountOff)
	}

	m.coupons = append(m.coupons, coupon)
	return coupon, nil
}

// CreatePromotionCode records a promotion code linked to a coupon
func (m *MockProcessorService) CreatePromotionCode(req *PromotionCodeCreateRequest) (*PromotionCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var coupon Coupon
	for _, c := range m.coupons {
		if c.ID == req.CouponID {
			coupon = *c
			break
		}
	}

	code := &PromotionCode{
		ID:             "promo_" + uuid.NewString()[:8],
		Code:           req.Code,
		Coupon:         coupon,
		MaxRedemptions: req.MaxRedemptions,
		Metadata:       req.Metadata,
	}

	m.promotionCodes = append(m.promotionCodes, code)
	return code, nil
}

// CreatePayout records a payout, deduplicating on the idempotency key
func (m *MockProcessorService) CreatePayout(req *PayoutRequest) (*Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPayouts {
		return nil, fmt.Errorf("mock payout declined")
	}

	if req.IdempotencyKey != "" {
		if existing, ok := m.payouts[req.IdempotencyKey]; ok {
			return existing, nil
		}
	}

	payout := &Payout{
		ID:     "po_" + uuid.NewString()[:8],
		Status: "paid",
	}
	if req.IdempotencyKey != "" {
		m.payouts[req.IdempotencyKey] = payout
	}
	return payout, nil
}

// VerifyWebhookSignature checks an HMAC signature against the mock secret
func (m *MockProcessorService) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(m.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SignPayload produces a valid signature for a payload, for tests
func (m *MockProcessorService) SignPayload(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(m.webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// CouponCount returns how many coupons were created
func (m *MockProcessorService) CouponCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coupons)
}

// PayoutCount returns how many distinct payouts were created
func (m *MockProcessorService) PayoutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payouts)
}
