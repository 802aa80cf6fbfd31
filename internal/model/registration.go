package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
	RegistrationWaitlist  RegistrationStatus = "WAITLIST"
)

// PaymentStatus is the settlement state of a registration's balance.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// RegistrationMode distinguishes how a registration came to exist. BatchPending
// is advisory only: it is returned by mode lookups while a cohort funding
// campaign is in flight, and is never persisted on a Registration row.
type RegistrationMode string

const (
	ModeIndividual          RegistrationMode = "INDIVIDUAL"
	ModeBatchAutoRegistered RegistrationMode = "BATCH_AUTO_REGISTERED"
	ModeBatchPending        RegistrationMode = "BATCH_PENDING"
)

// GuestStatus is the state of a guest attached to a registration.
type GuestStatus string

const (
	GuestActive    GuestStatus = "ACTIVE"
	GuestCancelled GuestStatus = "CANCELLED"
)

// Registration is one user's registration for one event, unique per
// (event, user) pair. The monetary breakdown must always satisfy
// TotalAmount = RegistrationFeePaid + GuestFeesPaid + MerchandiseTotal + DonationAmount.
type Registration struct {
	ID                  string             `json:"id"`
	EventID             string             `json:"event_id"`
	UserID              string             `json:"user_id"`
	Status              RegistrationStatus `json:"status"`
	PaymentStatus       PaymentStatus      `json:"payment_status"`
	Mode                RegistrationMode   `json:"mode"`
	RegistrationFeePaid decimal.Decimal    `json:"registration_fee_paid"`
	GuestFeesPaid       decimal.Decimal    `json:"guest_fees_paid"`
	MerchandiseTotal    decimal.Decimal    `json:"merchandise_total"`
	DonationAmount      decimal.Decimal    `json:"donation_amount"`
	TotalAmount         decimal.Decimal    `json:"total_amount"`
	TotalGuests         int                `json:"total_guests"`
	ActiveGuests        int                `json:"active_guests"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ComponentSum returns the sum of the four monetary components.
func (r *Registration) ComponentSum() decimal.Decimal {
	return r.RegistrationFeePaid.
		Add(r.GuestFeesPaid).
		Add(r.MerchandiseTotal).
		Add(r.DonationAmount)
}

// CheckAmounts verifies the breakdown invariant. A mismatch means the stored
// row is corrupt and the caller must abort rather than repair it.
func (r *Registration) CheckAmounts() error {
	if sum := r.ComponentSum(); !sum.Equal(r.TotalAmount) {
		return fmt.Errorf("%w: registration %s total %s != component sum %s",
			ErrConsistency, r.ID, r.TotalAmount, sum)
	}
	return nil
}

// Guest is one guest attached to a registration. FeePaid is captured at the
// time the guest was added; on removal it converts to a donation, never a refund.
type Guest struct {
	ID             string          `json:"id"`
	RegistrationID string          `json:"registration_id"`
	Name           string          `json:"name"`
	Status         GuestStatus     `json:"status"`
	FeePaid        decimal.Decimal `json:"fee_paid"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RegisterRequest is the payload for an individual registration.
type RegisterRequest struct {
	UserID         string            `json:"user_id"`
	GuestNames     []string          `json:"guest_names,omitempty"`
	DonationAmount decimal.Decimal   `json:"donation_amount"`
	FormResponses  map[string]string `json:"form_responses,omitempty"`
}

// UpdateResponsesRequest is the payload for replacing a registration's form
// responses.
type UpdateResponsesRequest struct {
	FormResponses map[string]string `json:"form_responses"`
}

// AddGuestsRequest is the payload for adding guests to a registration.
type AddGuestsRequest struct {
	GuestNames []string `json:"guest_names"`
}

// RemoveGuestsRequest is the payload for removing guests from a registration.
type RemoveGuestsRequest struct {
	GuestIDs []string `json:"guest_ids"`
}
