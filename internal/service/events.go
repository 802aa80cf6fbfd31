package service

import (
	"context"
	"strings"
	"time"

	"eventledger/internal/model"
)

// EventWriter persists events.
type EventWriter interface {
	EventStore
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
}

// EventService validates event admin operations and delegates to the store.
type EventService struct {
	store EventWriter
	now   func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(store EventWriter) *EventService {
	return &EventService{store: store, now: time.Now}
}

// CreateEvent validates the request and delegates to the store.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, model.Conflict("event title is required")
	}
	if req.StartAt.Before(s.now()) {
		return nil, model.Conflict("event start time must be in the future")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, model.Conflict("capacity must be a positive integer or omitted for unlimited")
	}
	if req.RegistrationFee.IsNegative() || req.GuestFee.IsNegative() {
		return nil, model.Conflict("fees cannot be negative")
	}
	if req.ModificationDeadline < 0 {
		return nil, model.Conflict("modification deadline cannot be negative")
	}
	if req.Status == "" {
		req.Status = model.EventStatusDraft
	}
	if req.RegistrationOpensAt != nil && req.RegistrationClosesAt != nil &&
		req.RegistrationClosesAt.Before(*req.RegistrationOpensAt) {
		return nil, model.Conflict("registration window closes before it opens")
	}
	return s.store.Create(ctx, req)
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.List(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, model.ErrNotFound
	}
	return s.store.GetEvent(ctx, id)
}
