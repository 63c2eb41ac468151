package handlers

import (
	"errors"
	"io"
	"net/http"

	"coaching-platform/internal/models"
	"coaching-platform/internal/services"
)

// webhookSignatureHeader carries the processor's HMAC signature for the
// raw request body.
const webhookSignatureHeader = "X-Webhook-Signature"

// WebhookHandler receives payment processor events
type WebhookHandler struct {
	webhookService *services.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Receive handles POST /webhooks/processor. A 2xx acknowledges the event;
// any other status makes the processor redeliver it later.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	signature := r.Header.Get(webhookSignatureHeader)
	if err := h.webhookService.HandleEvent(payload, signature); err != nil {
		if errors.Is(err, models.ErrInvalidSignature) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
