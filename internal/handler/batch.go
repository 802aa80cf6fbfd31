package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventledger/internal/model"
)

// CreateBatchCollection handles POST /batch-collections?creator_id=...
func (h *Handler) CreateBatchCollection(w http.ResponseWriter, r *http.Request) {
	creatorID := r.URL.Query().Get("creator_id")
	if creatorID == "" {
		writeError(w, http.StatusBadRequest, "creator_id is required")
		return
	}

	var req model.CreateBatchCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	c, err := h.batch.Create(r.Context(), req, creatorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// RecordBatchPayment handles POST /batch-collections/{id}/payments
// The payload is an already-verified payment confirmation from the gateway
// integration.
func (h *Handler) RecordBatchPayment(w http.ResponseWriter, r *http.Request) {
	var req model.RecordBatchPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	c, err := h.batch.RecordPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListBatchPayments handles GET /batch-collections/{id}/payments
func (h *Handler) ListBatchPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.batch.Payments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if payments == nil {
		payments = []model.BatchAdminPayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// ApproveBatchCollection handles POST /batch-collections/{id}/approve
func (h *Handler) ApproveBatchCollection(w http.ResponseWriter, r *http.Request) {
	var req model.ApproveBatchCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.batch.Approve(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CancelBatchCollection handles POST /batch-collections/{id}/cancel
func (h *Handler) CancelBatchCollection(w http.ResponseWriter, r *http.Request) {
	c, err := h.batch.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// BatchCollectionStatus handles GET /events/{id}/batch-collections/{cohortID}
// The lookup reads through the short-TTL cache.
func (h *Handler) BatchCollectionStatus(w http.ResponseWriter, r *http.Request) {
	c, err := h.batch.Status(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cohortID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
