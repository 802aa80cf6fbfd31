package service

import (
	"time"

	"eventledger/internal/model"
)

// ModificationDecision reports whether a confirmed registration may still be
// edited, and until when. Deadline and HoursRemaining are populated only when
// modification is allowed.
type ModificationDecision struct {
	Allowed        bool      `json:"allowed"`
	Reason         string    `json:"reason,omitempty"`
	Deadline       time.Time `json:"deadline,omitzero"`
	HoursRemaining float64   `json:"hours_remaining,omitempty"`
}

// CanModify is the single source of truth for the modification window. Guest
// changes, cart checkout, and general registration edits all route through it;
// the deadline is the event start minus the event's configured lead time.
func CanModify(reg *model.Registration, event *model.Event, now time.Time) ModificationDecision {
	if !event.AllowFormModification {
		return ModificationDecision{Allowed: false, Reason: "this event does not allow registration changes"}
	}
	if reg.Status == model.RegistrationCancelled {
		return ModificationDecision{Allowed: false, Reason: "this registration has been cancelled"}
	}

	deadline := event.StartAt.Add(-time.Duration(event.ModificationDeadline) * time.Hour)
	if now.After(deadline) || now.After(event.StartAt) {
		return ModificationDecision{
			Allowed: false,
			Reason:  "the modification deadline for this event has passed",
		}
	}

	return ModificationDecision{
		Allowed:        true,
		Deadline:       deadline,
		HoursRemaining: deadline.Sub(now).Hours(),
	}
}
