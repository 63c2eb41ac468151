package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coaching-platform/internal/models"
	"coaching-platform/internal/services"
)

// WithdrawalHandler handles withdrawal pipeline requests
type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(withdrawalService *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// Create handles POST /api/influencers/{id}/withdrawals
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	influencerID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	var req models.WithdrawalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(influencerID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, withdrawal)
}

// ListByInfluencer handles GET /api/influencers/{id}/withdrawals
func (h *WithdrawalHandler) ListByInfluencer(w http.ResponseWriter, r *http.Request) {
	influencerID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	page, limit := pageParams(r)
	withdrawals, totalCount, err := h.withdrawalService.GetInfluencerWithdrawals(influencerID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: withdrawals, TotalCount: totalCount, Page: page, Limit: limit})
}

// ListAll handles GET /api/withdrawals — the admin queue
func (h *WithdrawalHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	status := r.URL.Query().Get("status")

	withdrawals, totalCount, err := h.withdrawalService.GetAllWithdrawals(page, limit, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: withdrawals, TotalCount: totalCount, Page: page, Limit: limit})
}

// Get handles GET /api/withdrawals/{id}
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	withdrawal, err := h.withdrawalService.GetWithdrawal(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawal)
}

// Approve handles POST /api/withdrawals/{id}/approve
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.withdrawalService.ApproveWithdrawal(id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Reject handles POST /api/withdrawals/{id}/reject
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.withdrawalService.RejectWithdrawal(id, body.Reason); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Process handles POST /api/withdrawals/{id}/process — pays out an approved
// withdrawal.
func (h *WithdrawalHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	withdrawal, err := h.withdrawalService.ProcessWithdrawal(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawal)
}
