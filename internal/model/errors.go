package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel domain errors. Handlers dispatch on these with errors.Is to pick
// HTTP statuses; both the service and repository layers raise them.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEventFull is returned when an event has no remaining capacity.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyRegistered is returned when a (event, user) pair already
	// holds a registration.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	// ErrCollectionExists is returned when a (event, cohort) pair already
	// has a batch collection.
	ErrCollectionExists = errors.New("a collection already exists for this event and cohort")

	// ErrNotAuthorized is returned when the acting user is not an
	// administrator of the cohort in question.
	ErrNotAuthorized = errors.New("not an authorized cohort administrator")
)

// ErrConsistency marks a stored row that violates a data invariant, such as a
// registration total that no longer matches its component sum. Operations that
// detect it must abort; they never repair the data in place.
var ErrConsistency = errors.New("consistency violation")

// FieldError is one validation failure, keyed by the offending field so a
// caller can render every problem at once.
type FieldError struct {
	FieldID string `json:"field_id"`
	Message string `json:"message"`
}

// ValidationErrors collects all field-level failures from a single validation
// pass. It is never short-circuited: callers always see the full list.
type ValidationErrors []FieldError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fmt.Sprintf("%s: %s", fe.FieldID, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a failure for the given field.
func (v *ValidationErrors) Add(fieldID, format string, args ...any) {
	*v = append(*v, FieldError{FieldID: fieldID, Message: fmt.Sprintf(format, args...)})
}

// StateConflictError reports a transition that is illegal in the current
// state, such as an event that is closed or a collection that was already
// approved. The reason is suitable for direct end-user display.
type StateConflictError struct {
	Reason string
}

// Error implements the error interface.
func (e *StateConflictError) Error() string { return e.Reason }

// Conflict builds a StateConflictError with a formatted reason.
func Conflict(format string, args ...any) *StateConflictError {
	return &StateConflictError{Reason: fmt.Sprintf(format, args...)}
}

// BlockedError reports an operation rejected for one or more reasons collected
// together, such as a checkout with several failing lines.
type BlockedError struct {
	Reasons []string
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	return strings.Join(e.Reasons, "; ")
}
