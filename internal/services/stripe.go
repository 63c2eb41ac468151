package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// StripeConfig represents Stripe payment processor configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Environment   string // "test" or "live"
}

// StripeService talks to the payment processor's coupon, promotion code and
// payout APIs. All calls have a bounded timeout; callers must not hold
// database locks while invoking them.
type StripeService struct {
	config  StripeConfig
	client  *http.Client
	baseURL string
}

// NewStripeService creates a new Stripe processor client
func NewStripeService(config StripeConfig) *StripeService {
	return &StripeService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.stripe.com/v1",
	}
}

// Coupon is a processor-side discount definition
type Coupon struct {
	ID         string            `json:"id"`
	PercentOff float64           `json:"percent_off,omitempty"`
	AmountOff  int64             `json:"amount_off,omitempty"`
	Currency   string            `json:"currency,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CouponCreateRequest creates a processor coupon mirroring a local promo code
type CouponCreateRequest struct {
	PercentOff *decimal.Decimal
	AmountOff  *decimal.Decimal
	Currency   string
	Metadata   map[string]string
}

// PromotionCode is a processor-side redeemable code linked to a coupon
type PromotionCode struct {
	ID             string            `json:"id"`
	Code           string            `json:"code"`
	Coupon         Coupon            `json:"coupon"`
	MaxRedemptions int               `json:"max_redemptions,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PromotionCodeCreateRequest creates a promotion code for a coupon
type PromotionCodeCreateRequest struct {
	CouponID       string
	Code           string
	MaxRedemptions int
	Metadata       map[string]string
}

// PayoutRequest asks the processor to move money to a bank destination.
// The idempotency key makes a repeated request a no-op on the processor side.
type PayoutRequest struct {
	DestinationAccount string
	Amount             decimal.Decimal
	Note               string
	IdempotencyKey     string
}

// Payout is the processor's record of a payout
type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type listResponse struct {
	Data    json.RawMessage `json:"data"`
	HasMore bool            `json:"has_more"`
}

// StripeError represents an error response from the processor
type StripeError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *StripeError) Error() string {
	return fmt.Sprintf("stripe error (%s): %s", e.Type, e.Message)
}

// listPages walks a paginated list endpoint, following has_more with
// starting_after cursors, and hands each page's data to decode.
func (s *StripeService) listPages(path string, decode func(data json.RawMessage) (lastID string, count int, err error)) error {
	startingAfter := ""
	for {
		page := path + "?limit=100"
		if startingAfter != "" {
			page += "&starting_after=" + url.QueryEscape(startingAfter)
		}

		body, err := s.request("GET", page, nil, "")
		if err != nil {
			return err
		}

		var list listResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return fmt.Errorf("failed to decode list response: %w", err)
		}

		lastID, count, err := decode(list.Data)
		if err != nil {
			return err
		}
		if !list.HasMore || count == 0 {
			return nil
		}
		startingAfter = lastID
	}
}

// ListCoupons lists existing coupons across all pages
func (s *StripeService) ListCoupons() ([]*Coupon, error) {
	var coupons []*Coupon
	err := s.listPages("/coupons", func(data json.RawMessage) (string, int, error) {
		var page []*Coupon
		if err := json.Unmarshal(data, &page); err != nil {
			return "", 0, fmt.Errorf("failed to decode coupons: %w", err)
		}
		coupons = append(coupons, page...)
		if len(page) == 0 {
			return "", 0, nil
		}
		return page[len(page)-1].ID, len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

// ListPromotionCodes lists existing promotion codes across all pages
func (s *StripeService) ListPromotionCodes() ([]*PromotionCode, error) {
	var codes []*PromotionCode
	err := s.listPages("/promotion_codes", func(data json.RawMessage) (string, int, error) {
		var page []*PromotionCode
		if err := json.Unmarshal(data, &page); err != nil {
			return "", 0, fmt.Errorf("failed to decode promotion codes: %w", err)
		}
		codes = append(codes, page...)
		if len(page) == 0 {
			return "", 0, nil
		}
		return page[len(page)-1].ID, len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// CreateCoupon creates a coupon on the processor
func (s *StripeService) CreateCoupon(req *CouponCreateRequest) (*Coupon, error) {
	form := url.Values{}
	if req.PercentOff != nil {
		form.Set("percent_off", req.PercentOff.String())
	}
	if req.AmountOff != nil {
		// The processor expects minor units.
		form.Set("amount_off", strconv.FormatInt(toCents(*req.AmountOff), 10))
		form.Set("currency", req.Currency)
	}
	for key, value := range req.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	body, err := s.request("POST", "/coupons", form, "")
	if err != nil {
		return nil, err
	}

	coupon := &Coupon{}
	if err := json.Unmarshal(body, coupon); err != nil {
		return nil, fmt.Errorf("failed to decode coupon: %w", err)
	}
	return coupon, nil
}

// CreatePromotionCode creates a promotion code linked to a coupon
func (s *StripeService) CreatePromotionCode(req *PromotionCodeCreateRequest) (*PromotionCode, error) {
	form := url.Values{}
	form.Set("coupon", req.CouponID)
	form.Set("code", req.Code)
	if req.MaxRedemptions > 0 {
		form.Set("max_redemptions", strconv.Itoa(req.MaxRedemptions))
	}
	for key, value := range req.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	body, err := s.request("POST", "/promotion_codes", form, "")
	if err != nil {
		return nil, err
	}

	code := &PromotionCode{}
	if err := json.Unmarshal(body, code); err != nil {
		return nil, fmt.Errorf("failed to decode promotion code: %w", err)
	}
	return code, nil
}

// CreatePayout initiates a payout to a bank destination
func (s *StripeService) CreatePayout(req *PayoutRequest) (*Payout, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(toCents(req.Amount), 10))
	form.Set("currency", "usd")
	form.Set("destination", req.DestinationAccount)
	form.Set("description", req.Note)

	body, err := s.request("POST", "/payouts", form, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	payout := &Payout{}
	if err := json.Unmarshal(body, payout); err != nil {
		return nil, fmt.Errorf("failed to decode payout: %w", err)
	}
	return payout, nil
}

// VerifyWebhookSignature verifies the HMAC signature on a webhook payload
func (s *StripeService) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(s.config.WebhookSecret))
	mac.Write(payload)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

func (s *StripeService) request(method, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	httpReq, err := http.NewRequest(method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	if form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &models.ExternalServiceError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error StripeError `json:"error"`
		}
		if err := json.Unmarshal(bodyBytes, &wrapper); err == nil && wrapper.Error.Message != "" {
			return nil, &wrapper.Error
		}
		return nil, fmt.Errorf("stripe request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

// toCents converts a decimal dollar amount to integer minor units
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
