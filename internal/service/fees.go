// Package service implements the engine's business logic: eligibility,
// fee computation, form validation, cart checkout, and the batch collection
// state machine. Components depend on narrow store interfaces so they can be
// unit-tested against in-memory fakes.
package service

import (
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// FeeBreakdown is the monetary decomposition of a registration.
type FeeBreakdown struct {
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	GuestFees       decimal.Decimal `json:"guest_fees"`
	Merchandise     decimal.Decimal `json:"merchandise"`
	Donation        decimal.Decimal `json:"donation"`
	Total           decimal.Decimal `json:"total"`
}

// GuestDelta is the outcome of changing a registration's guest count.
type GuestDelta struct {
	NewGuestCount    int             `json:"new_guest_count"`
	NewGuestFees     decimal.Decimal `json:"new_guest_fees"`
	NewDonation      decimal.Decimal `json:"new_donation"`
	NewTotal         decimal.Decimal `json:"new_total"`
	PaymentRequired  bool            `json:"payment_required"`
	AdditionalAmount decimal.Decimal `json:"additional_amount"`
}

// GuestRemovalPolicy decides what happens to the fee already paid for a guest
// being removed. The engine ships exactly one policy, DonationConversion, but
// the seam keeps the rule swappable without touching unrelated fee logic.
type GuestRemovalPolicy interface {
	// RemovedFeeDisposition splits a removed guest's paid fee into the amount
	// refunded and the amount converted to donation.
	RemovedFeeDisposition(paid decimal.Decimal) (refund, donation decimal.Decimal)
}

// DonationConversionPolicy implements the house rule: guest fees are never
// refunded; the full paid amount becomes a goodwill donation.
type DonationConversionPolicy struct{}

// RemovedFeeDisposition converts the entire paid fee to donation.
func (DonationConversionPolicy) RemovedFeeDisposition(paid decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return decimal.Zero, paid
}

// FeeCalculator computes registration totals and guest-change deltas.
type FeeCalculator struct {
	removal GuestRemovalPolicy
}

// NewFeeCalculator constructs a FeeCalculator with the standard
// no-refund donation-conversion removal policy.
func NewFeeCalculator() *FeeCalculator {
	return &FeeCalculator{removal: DonationConversionPolicy{}}
}

// ComputeInitialFees builds the breakdown for a brand-new registration.
// The total is the exact arithmetic sum of all components; all values are
// fixed-point decimals, never binary floats.
func (c *FeeCalculator) ComputeInitialFees(
	registrationFee decimal.Decimal,
	guestCount int,
	guestFee decimal.Decimal,
	merchandiseLines []decimal.Decimal,
	donation decimal.Decimal,
) FeeBreakdown {
	guestFees := guestFee.Mul(decimal.NewFromInt(int64(guestCount)))

	merch := decimal.Zero
	for _, line := range merchandiseLines {
		merch = merch.Add(line)
	}

	b := FeeBreakdown{
		RegistrationFee: registrationFee,
		GuestFees:       guestFees,
		Merchandise:     merch,
		Donation:        donation,
	}
	b.Total = b.RegistrationFee.Add(b.GuestFees).Add(b.Merchandise).Add(b.Donation)
	return b
}

// ComputeGuestAddition computes the new breakdown and the additional amount
// owed when adding guests to an existing registration. The delta above the
// previously paid guest fees must be settled before the guests become ACTIVE.
func (c *FeeCalculator) ComputeGuestAddition(reg *model.Registration, add int, guestFee decimal.Decimal) GuestDelta {
	newCount := reg.ActiveGuests + add
	addition := guestFee.Mul(decimal.NewFromInt(int64(add)))
	newGuestFees := reg.GuestFeesPaid.Add(addition)

	return GuestDelta{
		NewGuestCount:    newCount,
		NewGuestFees:     newGuestFees,
		NewDonation:      reg.DonationAmount,
		NewTotal:         reg.TotalAmount.Add(addition),
		PaymentRequired:  addition.IsPositive(),
		AdditionalAmount: addition,
	}
}

// ComputeGuestRemoval computes the new breakdown when removing guests whose
// paid fees sum to removedFees. Under the donation-conversion policy the
// removed fees move from GuestFeesPaid to DonationAmount, so the total is
// unchanged: removal never owes and never refunds.
func (c *FeeCalculator) ComputeGuestRemoval(reg *model.Registration, removed int, removedFees decimal.Decimal) GuestDelta {
	refund, donated := c.removal.RemovedFeeDisposition(removedFees)

	newGuestFees := reg.GuestFeesPaid.Sub(removedFees)
	newDonation := reg.DonationAmount.Add(donated)
	newTotal := reg.TotalAmount.Sub(refund)

	return GuestDelta{
		NewGuestCount:    reg.ActiveGuests - removed,
		NewGuestFees:     newGuestFees,
		NewDonation:      newDonation,
		NewTotal:         newTotal,
		PaymentRequired:  false,
		AdditionalAmount: decimal.Zero,
	}
}
