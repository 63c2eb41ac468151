package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// Webhook event types this engine understands. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionActive   = "subscription.activated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventPaymentFailed        = "payment.failed"
)

// WebhookEvent is the processor's event envelope
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CheckoutCompletedData is the payload of a successful checkout event
type CheckoutCompletedData struct {
	PurchaseID     string          `json:"purchase_id"`
	PromoCode      string          `json:"promo_code,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID string          `json:"subscription_id"`
	CustomerEmail  string          `json:"customer_email"`
}

// SubscriptionEventData is the payload of subscription lifecycle events
type SubscriptionEventData struct {
	SubscriptionID string `json:"subscription_id"`
	CustomerEmail  string `json:"customer_email"`
}

// WebhookService reconciles processor events into local state. Every event
// is verified against its signature, claimed in the processed-event ledger,
// and dispatched to an idempotent handler, so duplicate delivery is a no-op.
type WebhookService struct {
	processor  ProcessorClient
	redemption *RedemptionService
	subRepo    SubscriptionStore
	eventRepo  WebhookEventStore
}

// NewWebhookService creates a new webhook service
func NewWebhookService(processor ProcessorClient, redemption *RedemptionService,
	subRepo SubscriptionStore, eventRepo WebhookEventStore) *WebhookService {
	return &WebhookService{
		processor:  processor,
		redemption: redemption,
		subRepo:    subRepo,
		eventRepo:  eventRepo,
	}
}

// HandleEvent verifies and applies one webhook delivery
func (s *WebhookService) HandleEvent(payload []byte, signature string) error {
	if !s.processor.VerifyWebhookSignature(payload, signature) {
		return models.ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode webhook event: %w", err)
	}
	if event.ID == "" {
		return models.ErrInvalidInput
	}

	first, err := s.eventRepo.MarkProcessed(event.ID, event.Type)
	if err != nil {
		return err
	}
	if !first {
		log.Printf("Webhook event %s already processed, skipping", event.ID)
		return nil
	}

	// The claim must not outlive a failed apply: release it so the
	// processor's redelivery of the same event ID gets handled rather
	// than skipped.
	if err := s.dispatch(&event); err != nil {
		if releaseErr := s.eventRepo.Release(event.ID); releaseErr != nil {
			log.Printf("Warning: failed to release webhook event %s after error: %v", event.ID, releaseErr)
		}
		return err
	}
	return nil
}

func (s *WebhookService) dispatch(event *WebhookEvent) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(event.Data)
	case EventSubscriptionActive:
		return s.handleSubscriptionStatus(event.Data, models.SubscriptionStatusActive)
	case EventSubscriptionCanceled:
		return s.handleSubscriptionStatus(event.Data, models.SubscriptionStatusCanceled)
	case EventPaymentFailed:
		return s.handleSubscriptionStatus(event.Data, models.SubscriptionStatusPastDue)
	default:
		log.Printf("Ignoring unknown webhook event type %q (%s)", event.Type, event.ID)
		return nil
	}
}

func (s *WebhookService) handleCheckoutCompleted(data json.RawMessage) error {
	var checkout CheckoutCompletedData
	if err := json.Unmarshal(data, &checkout); err != nil {
		return fmt.Errorf("failed to decode checkout data: %w", err)
	}

	if checkout.SubscriptionID != "" {
		_, err := s.subRepo.Upsert(checkout.SubscriptionID, models.SubscriptionStatusActive,
			checkout.CustomerEmail, checkout.PromoCode)
		if err != nil {
			return err
		}
	}

	if checkout.PromoCode == "" {
		return nil
	}

	_, err := s.redemption.Redeem(checkout.PromoCode, checkout.PurchaseID, checkout.Amount)
	if err != nil {
		// Validation failures are permanent: the code was invalid at charge
		// time and a redelivery would fail the same way. Acknowledge and log
		// instead of signaling the processor to retry.
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			log.Printf("Warning: promo code %q on purchase %s not redeemable: %v",
				checkout.PromoCode, checkout.PurchaseID, err)
			return nil
		}
		return err
	}

	return nil
}

func (s *WebhookService) handleSubscriptionStatus(data json.RawMessage, status models.SubscriptionStatus) error {
	var sub SubscriptionEventData
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("failed to decode subscription data: %w", err)
	}
	if sub.SubscriptionID == "" {
		return models.ErrInvalidInput
	}

	_, err := s.subRepo.Upsert(sub.SubscriptionID, status, sub.CustomerEmail, "")
	return err
}
