package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coaching-platform/internal/models"
	"coaching-platform/internal/services"
)

// InfluencerHandler handles influencer onboarding and reporting requests
type InfluencerHandler struct {
	influencerService *services.InfluencerService
	commissionService *services.CommissionService
}

// NewInfluencerHandler creates a new influencer handler
func NewInfluencerHandler(influencerService *services.InfluencerService, commissionService *services.CommissionService) *InfluencerHandler {
	return &InfluencerHandler{
		influencerService: influencerService,
		commissionService: commissionService,
	}
}

// Create handles POST /api/influencers
func (h *InfluencerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.InfluencerCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	influencer, err := h.influencerService.CreateInfluencer(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, influencer)
}

// Get handles GET /api/influencers/{id}
func (h *InfluencerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	influencer, err := h.influencerService.GetInfluencer(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, influencer)
}

// Approve handles POST /api/influencers/{id}/approve
func (h *InfluencerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.influencerService.ApproveInfluencer)
}

// Reject handles POST /api/influencers/{id}/reject
func (h *InfluencerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.influencerService.RejectInfluencer)
}

func (h *InfluencerHandler) updateStatus(w http.ResponseWriter, r *http.Request, update func(int) error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := update(id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// UpdateBank handles PUT /api/influencers/{id}/bank
func (h *InfluencerHandler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	var account models.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.influencerService.UpdateBankDetails(id, account); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Balance handles GET /api/influencers/{id}/balance
func (h *InfluencerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	summary, err := h.commissionService.GetInfluencerBalance(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Commissions handles GET /api/influencers/{id}/commissions
func (h *InfluencerHandler) Commissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	page, limit := pageParams(r)
	commissions, totalCount, err := h.commissionService.GetInfluencerCommissions(id, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: commissions, TotalCount: totalCount, Page: page, Limit: limit})
}
