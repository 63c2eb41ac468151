package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
	"coaching-platform/internal/services"
)

// PromoCodeHandler handles promo code administration and validation requests
type PromoCodeHandler struct {
	promoService      *services.PromoCodeService
	redemptionService *services.RedemptionService
}

// NewPromoCodeHandler creates a new promo code handler
func NewPromoCodeHandler(promoService *services.PromoCodeService, redemptionService *services.RedemptionService) *PromoCodeHandler {
	return &PromoCodeHandler{
		promoService:      promoService,
		redemptionService: redemptionService,
	}
}

// Create handles POST /api/promo-codes
func (h *PromoCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PromoCodeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	promo, err := h.promoService.CreatePromoCode(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, promo)
}

// List handles GET /api/promo-codes
func (h *PromoCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	status := r.URL.Query().Get("status")

	promos, totalCount, err := h.promoService.GetPromoCodes(page, limit, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: promos, TotalCount: totalCount, Page: page, Limit: limit})
}

// Get handles GET /api/promo-codes/{id}
func (h *PromoCodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	promo, err := h.promoService.GetPromoCode(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, promo)
}

// Update handles PUT /api/promo-codes/{id}
func (h *PromoCodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	var req models.PromoCodeUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	promo, err := h.promoService.UpdatePromoCode(id, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, promo)
}

// Delete handles DELETE /api/promo-codes/{id}. Codes that have been redeemed
// are deactivated instead of removed.
func (h *PromoCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.promoService.DeletePromoCode(id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Validate handles GET /api/promo-codes/validate?code=X&amount=Y — the
// read-only pre-purchase check a checkout page calls.
func (h *PromoCodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	amountParam := r.URL.Query().Get("amount")
	if code == "" || amountParam == "" {
		writeError(w, models.ErrInvalidInput)
		return
	}

	amount, err := decimal.NewFromString(amountParam)
	if err != nil || amount.IsNegative() {
		writeError(w, models.ErrInvalidInput)
		return
	}

	result, err := h.redemptionService.Validate(code, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
