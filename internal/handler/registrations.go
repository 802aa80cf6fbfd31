package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventledger/internal/model"
	"eventledger/internal/service"
)

// Register handles POST /events/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	cohortID, err := h.cohorts.CohortOf(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	reg, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), cohortID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// GetRegistration handles GET /registrations/{id}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ModificationWindow handles GET /registrations/{id}/modification
// It reports whether the registration can still be edited, with the deadline
// and hours remaining for display.
func (h *Handler) ModificationWindow(w http.ResponseWriter, r *http.Request) {
	mod, err := h.registrations.CanModify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mod)
}

// CancelRegistration handles POST /registrations/{id}/cancel
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

type guestChangeResponse struct {
	Registration *model.Registration `json:"registration"`
	Delta        service.GuestDelta  `json:"delta"`
}

// AddGuests handles POST /registrations/{id}/guests
func (h *Handler) AddGuests(w http.ResponseWriter, r *http.Request) {
	var req model.AddGuestsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, delta, err := h.registrations.AddGuests(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guestChangeResponse{Registration: reg, Delta: delta})
}

// RemoveGuests handles POST /registrations/{id}/guests/remove
func (h *Handler) RemoveGuests(w http.ResponseWriter, r *http.Request) {
	var req model.RemoveGuestsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, delta, err := h.registrations.RemoveGuests(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guestChangeResponse{Registration: reg, Delta: delta})
}

// FormResponses handles GET /registrations/{id}/responses
func (h *Handler) FormResponses(w http.ResponseWriter, r *http.Request) {
	if _, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	responses, err := h.forms.ListResponses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// UpdateFormResponses handles PUT /registrations/{id}/responses
func (h *Handler) UpdateFormResponses(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateResponsesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.registrations.UpdateResponses(r.Context(), id, req.FormResponses); err != nil {
		writeDomainError(w, err)
		return
	}
	responses, err := h.forms.ListResponses(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// AddCartItem handles POST /registrations/{id}/cart
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	order, err := h.cart.AddItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// RemoveCartItem handles DELETE /registrations/{id}/cart/{orderID}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.cart.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CartSummary handles GET /registrations/{id}/cart
func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cart.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Checkout handles POST /registrations/{id}/cart/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	reg, err := h.cart.Checkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
