package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"coaching-platform/internal/models"
	"coaching-platform/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Validation
// and business-rule failures are 4xx and carry a machine-readable reason;
// balance conflicts get 409 so clients can distinguish "try again" from
// permanent rejections; processor failures are 502.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var balanceErr *models.InsufficientBalanceError
	var bankErr *models.BankValidationError
	var externalErr *models.ExternalServiceError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  validationErr.Message,
			Reason: string(validationErr.Reason),
		})
	case errors.As(err, &balanceErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: balanceErr.Error(), Reason: "INSUFFICIENT_BALANCE"})
	case errors.As(err, &bankErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: bankErr.Error(), Reason: "INVALID_BANK_ACCOUNT"})
	case errors.As(err, &externalErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: externalErr.Error()})
	case errors.Is(err, models.ErrPromoCodeNotFound),
		errors.Is(err, models.ErrInfluencerNotFound),
		errors.Is(err, models.ErrCommissionNotFound),
		errors.Is(err, models.ErrWithdrawalNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrDuplicateCode), errors.Is(err, models.ErrDuplicateEntry),
		errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrPromoCodeInUse):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

type listResponse struct {
	Data       interface{} `json:"data"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
}

func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return page, limit
}
