// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"eventledger/internal/model"
	"eventledger/internal/service"
)

// CohortResolver maps a user to their cohort, if any.
type CohortResolver interface {
	CohortOf(ctx context.Context, userID string) (string, error)
}

// FormAccess exposes an event's form schema and saved responses.
type FormAccess interface {
	ListFields(ctx context.Context, eventID string) ([]model.FormField, error)
	CreateField(ctx context.Context, f *model.FormField) error
	ListResponses(ctx context.Context, registrationID string) (map[string]string, error)
}

// Catalog exposes the merchandise catalog for reads and admin writes.
type Catalog interface {
	ListItems(ctx context.Context, eventID string) ([]model.MerchandiseItem, error)
	CreateItem(ctx context.Context, item *model.MerchandiseItem) error
}

// Handler holds all HTTP handlers for the commerce engine API.
type Handler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	cart          *service.MerchandiseCart
	batch         *service.BatchCollectionCoordinator
	forms         FormAccess
	merchandise   Catalog
	cohorts       CohortResolver
}

// New constructs a Handler.
func New(
	events *service.EventService,
	registrations *service.RegistrationService,
	cart *service.MerchandiseCart,
	batch *service.BatchCollectionCoordinator,
	forms FormAccess,
	merchandise Catalog,
	cohorts CohortResolver,
) *Handler {
	return &Handler{
		events:        events,
		registrations: registrations,
		cart:          cart,
		batch:         batch,
		forms:         forms,
		merchandise:   merchandise,
		cohorts:       cohorts,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
// Validation failures and blocked checkouts keep their full structure so a
// client can render every problem at once.
func writeDomainError(w http.ResponseWriter, err error) {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:  "validation failed",
			Fields: verrs,
		})
		return
	}

	var blocked *model.BlockedError
	if errors.As(err, &blocked) {
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:   "operation blocked",
			Reasons: blocked.Reasons,
		})
		return
	}

	var conflict *model.StateConflictError
	if errors.As(err, &conflict) {
		writeError(w, http.StatusConflict, conflict.Reason)
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrEventFull):
		writeError(w, http.StatusConflict, "event is full")
	case errors.Is(err, model.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "you are already registered for this event")
	case errors.Is(err, model.ErrCollectionExists):
		writeError(w, http.StatusConflict, "a collection already exists for this event and cohort")
	case errors.Is(err, model.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not an authorized cohort administrator")
	case errors.Is(err, model.ErrConsistency):
		writeError(w, http.StatusInternalServerError, "stored data failed a consistency check")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
