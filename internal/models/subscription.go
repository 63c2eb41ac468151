package models

import "time"

// SubscriptionStatus mirrors the processor-side subscription lifecycle
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is the local mirror of a processor subscription, keyed by the
// processor's subscription identifier and kept current by the webhook
// reconciler. Upserts by that identifier make duplicate event delivery a no-op.
type Subscription struct {
	ID                      int                `json:"id" db:"id"`
	ProcessorSubscriptionID string             `json:"processor_subscription_id" db:"processor_subscription_id"`
	CustomerEmail           string             `json:"customer_email" db:"customer_email"`
	Status                  SubscriptionStatus `json:"status" db:"status"`
	PromoCode               string             `json:"promo_code,omitempty" db:"promo_code"`
	CreatedAt               time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at" db:"updated_at"`
}
