package repositories

import (
	"database/sql"
	"fmt"
)

// WebhookEventRepository is the processed-event ledger that makes webhook
// handling idempotent across duplicate delivery.
type WebhookEventRepository struct {
	db *sql.DB
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// MarkProcessed records the event ID and reports whether this delivery is
// the first. A duplicate insert affects zero rows and returns false.
func (r *WebhookEventRepository) MarkProcessed(eventID, eventType string) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read webhook event result: %w", err)
	}
	return rows > 0, nil
}

// Release removes an event from the ledger. Called when applying a claimed
// event fails, so the processor's redelivery is handled instead of skipped.
func (r *WebhookEventRepository) Release(eventID string) error {
	if _, err := r.db.Exec(`DELETE FROM webhook_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}
