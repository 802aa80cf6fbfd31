// Package model defines the core domain types for the event commerce engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus describes where an event sits in its lifecycle.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOpen      EventStatus = "open"
	EventStatusClosed    EventStatus = "closed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// OpenForRegistration reports whether the status admits new registrations.
func (s EventStatus) OpenForRegistration() bool {
	return s == EventStatusPublished || s == EventStatusOpen
}

// Event represents a bookable event with its fee schedule and feature flags.
// Capacity and the registration window bounds are nullable: nil capacity means
// unlimited seats, nil window bounds mean the window is open-ended on that side.
type Event struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Status                EventStatus     `json:"status"`
	StartAt               time.Time       `json:"start_at"`
	Capacity              *int            `json:"capacity,omitempty"`
	ConfirmedCount        int             `json:"confirmed_count"`
	RegistrationFee       decimal.Decimal `json:"registration_fee"`
	GuestFee              decimal.Decimal `json:"guest_fee"`
	RegistrationOpensAt   *time.Time      `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt  *time.Time      `json:"registration_closes_at,omitempty"`
	HasRegistration       bool            `json:"has_registration"`
	HasExternalLink       bool            `json:"has_external_link"`
	HasGuests             bool            `json:"has_guests"`
	HasMerchandise        bool            `json:"has_merchandise"`
	AllowFormModification bool            `json:"allow_form_modification"`
	ModificationDeadline  int             `json:"modification_deadline_hours"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// IsFull returns true when a finite capacity has been reached.
func (e *Event) IsFull() bool {
	return e.Capacity != nil && e.ConfirmedCount >= *e.Capacity
}

// Remaining returns the number of available seats, or -1 for unlimited capacity.
func (e *Event) Remaining() int {
	if e.Capacity == nil {
		return -1
	}
	return *e.Capacity - e.ConfirmedCount
}

// Cohort is a named partition of users, such as a graduation year, that can
// jointly fund a pooled registration campaign.
type Cohort struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// CohortMember identifies one active member of a cohort.
type CohortMember struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Status                EventStatus     `json:"status"`
	StartAt               time.Time       `json:"start_at"`
	Capacity              *int            `json:"capacity,omitempty"`
	RegistrationFee       decimal.Decimal `json:"registration_fee"`
	GuestFee              decimal.Decimal `json:"guest_fee"`
	RegistrationOpensAt   *time.Time      `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt  *time.Time      `json:"registration_closes_at,omitempty"`
	HasRegistration       bool            `json:"has_registration"`
	HasExternalLink       bool            `json:"has_external_link"`
	HasGuests             bool            `json:"has_guests"`
	HasMerchandise        bool            `json:"has_merchandise"`
	AllowFormModification bool            `json:"allow_form_modification"`
	ModificationDeadline  int             `json:"modification_deadline_hours"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Fields  []FieldError `json:"fields,omitempty"`
	Reasons []string     `json:"reasons,omitempty"`
}
