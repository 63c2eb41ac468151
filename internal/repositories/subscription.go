package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"coaching-platform/internal/models"
)

// SubscriptionRepository mirrors processor-side subscriptions locally
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert creates or updates the local mirror of a processor subscription.
// Keyed on the processor's identifier, so replayed events converge on the
// same row instead of duplicating it.
func (r *SubscriptionRepository) Upsert(processorSubscriptionID string, status models.SubscriptionStatus,
	customerEmail, promoCode string) (*models.Subscription, error) {

	query := `
		INSERT INTO subscriptions (processor_subscription_id, status, customer_email, promo_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (processor_subscription_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = $5
		RETURNING id, processor_subscription_id, customer_email, status, promo_code, created_at, updated_at`

	subscription := &models.Subscription{}
	err := r.db.QueryRow(query, processorSubscriptionID, status, customerEmail, promoCode, time.Now()).Scan(
		&subscription.ID,
		&subscription.ProcessorSubscriptionID,
		&subscription.CustomerEmail,
		&subscription.Status,
		&subscription.PromoCode,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return subscription, nil
}

// GetByProcessorID retrieves a subscription by its processor identifier
func (r *SubscriptionRepository) GetByProcessorID(processorSubscriptionID string) (*models.Subscription, error) {
	query := `
		SELECT id, processor_subscription_id, customer_email, status, promo_code, created_at, updated_at
		FROM subscriptions WHERE processor_subscription_id = $1`

	subscription := &models.Subscription{}
	err := r.db.QueryRow(query, processorSubscriptionID).Scan(
		&subscription.ID,
		&subscription.ProcessorSubscriptionID,
		&subscription.CustomerEmail,
		&subscription.Status,
		&subscription.PromoCode,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subscription not found")
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return subscription, nil
}
