package handler

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventledger/internal/model"
)

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Eligibility handles GET /events/{id}/eligibility?user_id=...
// It reports, without side effects, whether the user could register now.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	decision, err := h.registrations.Eligibility(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// GetForm handles GET /events/{id}/form
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	fields, err := h.forms.ListFields(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if fields == nil {
		fields = []model.FormField{}
	}
	writeJSON(w, http.StatusOK, fields)
}

// CreateFormField handles POST /events/{id}/form
func (h *Handler) CreateFormField(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFormFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported field kind")
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	if req.Kind.HasOptions() && len(req.Options) == 0 {
		writeError(w, http.StatusBadRequest, "option fields need at least one option")
		return
	}
	if req.Pattern != "" {
		if _, err := regexp.Compile(req.Pattern); err != nil {
			writeError(w, http.StatusBadRequest, "invalid pattern: "+err.Error())
			return
		}
	}

	field := &model.FormField{
		ID:        uuid.New().String(),
		EventID:   chi.URLParam(r, "id"),
		Kind:      req.Kind,
		Label:     req.Label,
		Required:  req.Required,
		Options:   req.Options,
		MinLength: req.MinLength,
		MaxLength: req.MaxLength,
		Pattern:   req.Pattern,
		Position:  req.Position,
	}
	if err := h.forms.CreateField(r.Context(), field); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

// ListMerchandise handles GET /events/{id}/merchandise
func (h *Handler) ListMerchandise(w http.ResponseWriter, r *http.Request) {
	items, err := h.merchandise.ListItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []model.MerchandiseItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateMerchandiseItem handles POST /events/{id}/merchandise
func (h *Handler) CreateMerchandiseItem(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMerchandiseItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "stock cannot be negative")
		return
	}

	item := &model.MerchandiseItem{
		EventID: chi.URLParam(r, "id"),
		Name:    req.Name,
		Price:   req.Price,
		Stock:   req.Stock,
		Sizes:   req.Sizes,
		Active:  req.Active,
	}
	if err := h.merchandise.CreateItem(r.Context(), item); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// RegistrationMode handles GET /events/{id}/registration-mode?user_id=...
// It derives the mode a prospective registrant should see, given any batch
// collection in flight for their cohort.
func (h *Handler) RegistrationMode(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	cohortID, err := h.cohorts.CohortOf(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	mode, err := h.batch.RegistrationModeFor(r.Context(), chi.URLParam(r, "id"), cohortID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}
