package service

import (
	"fmt"
	"time"

	"eventledger/internal/model"
)

// EligibilityDecision is the outcome of an eligibility or modification check.
// Reason is written for direct end-user display.
type EligibilityDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allowed() EligibilityDecision {
	return EligibilityDecision{Allowed: true}
}

func rejected(format string, args ...any) EligibilityDecision {
	return EligibilityDecision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// CheckEligibility decides whether a user may register for an event right now.
// Rules short-circuit in order: the first failing rule wins. The function is a
// pure read over its inputs. It also serves advisory UI state, so it must be
// safe to call repeatedly with no side effects.
func CheckEligibility(event *model.Event, existing *model.Registration, now time.Time) EligibilityDecision {
	if !event.Status.OpenForRegistration() {
		return rejected("registration is not open for this event")
	}
	if event.HasExternalLink {
		return rejected("registration for this event is handled via an external link")
	}
	if !event.HasRegistration {
		return rejected("registration is disabled for this event")
	}
	if event.StartAt.Before(now) {
		return rejected("this event has already started")
	}
	if event.RegistrationOpensAt != nil && now.Before(*event.RegistrationOpensAt) {
		return rejected("registration opens on %s", event.RegistrationOpensAt.Format("2006-01-02 15:04"))
	}
	if event.RegistrationClosesAt != nil && now.After(*event.RegistrationClosesAt) {
		return rejected("the registration period has ended")
	}
	if event.IsFull() {
		return rejected("event is full")
	}
	if existing != nil {
		return rejected("you are already registered for this event")
	}
	return allowed()
}
