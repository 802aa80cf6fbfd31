package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// RegistrationService orchestrates the individual registration path:
// eligibility gate, form validation, fee computation, and the transactional
// booking, followed by guest and cancellation operations on the resulting
// registration.
type RegistrationService struct {
	events        EventStore
	registrations RegistrationStore
	forms         FormStore
	coordinator   *BatchCollectionCoordinator
	fees          *FeeCalculator
	now           func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	events EventStore,
	registrations RegistrationStore,
	forms FormStore,
	coordinator *BatchCollectionCoordinator,
	fees *FeeCalculator,
) *RegistrationService {
	return &RegistrationService{
		events:        events,
		registrations: registrations,
		forms:         forms,
		coordinator:   coordinator,
		fees:          fees,
		now:           time.Now,
	}
}

// Eligibility reports whether the user could register right now, without side
// effects. Handlers also use it for advisory UI state.
func (s *RegistrationService) Eligibility(ctx context.Context, eventID, userID string) (EligibilityDecision, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return EligibilityDecision{}, err
	}
	existing, err := s.registrations.GetByEventUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return EligibilityDecision{}, err
	}
	return CheckEligibility(event, existing, s.now()), nil
}

// Register performs an individual registration: the eligibility gate decides
// admission, the cohort coordinator confirms the individual path still
// applies, the form submission is validated in full, fees are computed, and
// the booking lands atomically with its guests. The repository re-checks
// capacity and uniqueness under a row lock, so a passing gate here is
// advisory, not a reservation.
func (s *RegistrationService) Register(ctx context.Context, eventID string, cohortID string, req model.RegisterRequest) (*model.Registration, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.registrations.GetByEventUser(ctx, eventID, req.UserID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if decision := CheckEligibility(event, existing, s.now()); !decision.Allowed {
		return nil, model.Conflict("%s", decision.Reason)
	}

	if s.coordinator != nil {
		mode, err := s.coordinator.RegistrationModeFor(ctx, eventID, cohortID)
		if err != nil {
			return nil, err
		}
		if mode == model.ModeBatchAutoRegistered {
			return nil, model.Conflict("your cohort's registration is handled by a completed batch collection")
		}
	}

	if len(req.GuestNames) > 0 && !event.HasGuests {
		return nil, model.Conflict("this event does not allow guests")
	}
	if req.DonationAmount.IsNegative() {
		return nil, model.Conflict("donation amount cannot be negative")
	}

	fields, err := s.forms.ListFields(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load form schema: %w", err)
	}
	if errs := ValidateForm(fields, req.FormResponses); errs != nil {
		return nil, errs
	}

	breakdown := s.fees.ComputeInitialFees(
		event.RegistrationFee,
		len(req.GuestNames),
		event.GuestFee,
		nil,
		req.DonationAmount,
	)

	reg, err := s.registrations.Book(ctx, BookParams{
		EventID:       eventID,
		UserID:        req.UserID,
		Mode:          model.ModeIndividual,
		PaymentStatus: model.PaymentPending,
		Breakdown:     breakdown,
		GuestNames:    req.GuestNames,
		GuestFeeEach:  event.GuestFee,
		FormResponses: req.FormResponses,
	})
	if err != nil {
		return nil, err
	}
	if err := reg.CheckAmounts(); err != nil {
		return nil, err
	}
	return reg, nil
}

// AddGuests adds guests to a confirmed registration inside the modification
// window. The returned registration reflects the additional amount owed; the
// guests become ACTIVE once that payment is confirmed upstream.
func (s *RegistrationService) AddGuests(ctx context.Context, registrationID string, req model.AddGuestsRequest) (*model.Registration, GuestDelta, error) {
	if len(req.GuestNames) == 0 {
		return nil, GuestDelta{}, model.Conflict("no guests to add")
	}

	reg, event, err := s.loadForModification(ctx, registrationID)
	if err != nil {
		return nil, GuestDelta{}, err
	}
	if !event.HasGuests {
		return nil, GuestDelta{}, model.Conflict("this event does not allow guests")
	}

	delta := s.fees.ComputeGuestAddition(reg, len(req.GuestNames), event.GuestFee)
	updated, err := s.registrations.ApplyGuestChange(ctx, registrationID, GuestChange{
		AddNames: req.GuestNames,
		FeeEach:  event.GuestFee,
		Delta:    delta,
	})
	if err != nil {
		return nil, GuestDelta{}, err
	}
	if err := updated.CheckAmounts(); err != nil {
		return nil, GuestDelta{}, err
	}
	return updated, delta, nil
}

// RemoveGuests cancels guests on a registration. Fees already paid for the
// removed guests are never refunded: the exact paid amount converts to a
// donation and the total is unchanged.
func (s *RegistrationService) RemoveGuests(ctx context.Context, registrationID string, req model.RemoveGuestsRequest) (*model.Registration, GuestDelta, error) {
	if len(req.GuestIDs) == 0 {
		return nil, GuestDelta{}, model.Conflict("no guests to remove")
	}

	reg, _, err := s.loadForModification(ctx, registrationID)
	if err != nil {
		return nil, GuestDelta{}, err
	}

	active, err := s.registrations.ListGuests(ctx, registrationID, model.GuestActive)
	if err != nil {
		return nil, GuestDelta{}, fmt.Errorf("list guests: %w", err)
	}
	byID := make(map[string]model.Guest, len(active))
	for _, g := range active {
		byID[g.ID] = g
	}

	removedFees := decimal.Zero
	for _, id := range req.GuestIDs {
		g, ok := byID[id]
		if !ok {
			return nil, GuestDelta{}, model.Conflict("guest %s is not an active guest of this registration", id)
		}
		removedFees = removedFees.Add(g.FeePaid)
	}

	delta := s.fees.ComputeGuestRemoval(reg, len(req.GuestIDs), removedFees)
	updated, err := s.registrations.ApplyGuestChange(ctx, registrationID, GuestChange{
		RemoveIDs: req.GuestIDs,
		Delta:     delta,
	})
	if err != nil {
		return nil, GuestDelta{}, err
	}
	if err := updated.CheckAmounts(); err != nil {
		return nil, GuestDelta{}, err
	}
	return updated, delta, nil
}

// UpdateResponses replaces a registration's form responses inside the
// modification window. The new submission is validated against the event's
// full schema, so required answers cannot be blanked out.
func (s *RegistrationService) UpdateResponses(ctx context.Context, registrationID string, responses map[string]string) error {
	reg, _, err := s.loadForModification(ctx, registrationID)
	if err != nil {
		return err
	}

	fields, err := s.forms.ListFields(ctx, reg.EventID)
	if err != nil {
		return fmt.Errorf("load form schema: %w", err)
	}
	if errs := ValidateForm(fields, responses); errs != nil {
		return errs
	}
	return s.forms.SaveResponses(ctx, registrationID, responses)
}

// Get returns a registration by id, verifying its breakdown invariant.
func (s *RegistrationService) Get(ctx context.Context, registrationID string) (*model.Registration, error) {
	reg, err := s.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := reg.CheckAmounts(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel marks a registration CANCELLED and releases its seat. Money already
// paid stays on the registration; there are no refunds.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID string) (*model.Registration, error) {
	reg, err := s.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status == model.RegistrationCancelled {
		return nil, model.Conflict("this registration is already cancelled")
	}
	return s.registrations.CancelRegistration(ctx, registrationID)
}

// CanModify exposes the modification window decision for a registration.
func (s *RegistrationService) CanModify(ctx context.Context, registrationID string) (ModificationDecision, error) {
	reg, err := s.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return ModificationDecision{}, err
	}
	event, err := s.events.GetEvent(ctx, reg.EventID)
	if err != nil {
		return ModificationDecision{}, err
	}
	return CanModify(reg, event, s.now()), nil
}

// loadForModification loads a registration and its event, verifying the
// modification window is still open.
func (s *RegistrationService) loadForModification(ctx context.Context, registrationID string) (*model.Registration, *model.Event, error) {
	reg, err := s.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, nil, err
	}
	if err := reg.CheckAmounts(); err != nil {
		return nil, nil, err
	}
	event, err := s.events.GetEvent(ctx, reg.EventID)
	if err != nil {
		return nil, nil, err
	}
	if mod := CanModify(reg, event, s.now()); !mod.Allowed {
		return nil, nil, model.Conflict("%s", mod.Reason)
	}
	return reg, event, nil
}
