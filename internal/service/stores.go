package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// The store interfaces below are implemented by the repository package against
// PostgreSQL, and by in-memory fakes in the test suite. Methods that touch
// more than one row are transactional on the implementation side: either every
// write lands or none do.

// EventStore reads event snapshots.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
}

// BookParams carries everything needed to create a registration atomically:
// the row itself plus its initial guests, which must land in the same
// transaction as the registration and the capacity increment.
type BookParams struct {
	EventID       string
	UserID        string
	Mode          model.RegistrationMode
	PaymentStatus model.PaymentStatus
	Breakdown     FeeBreakdown
	GuestNames    []string
	GuestFeeEach  decimal.Decimal
	FormResponses map[string]string
}

// GuestChange applies a guest add or remove together with the recomputed
// monetary breakdown, in one transaction.
type GuestChange struct {
	AddNames  []string
	RemoveIDs []string
	FeeEach   decimal.Decimal
	Delta     GuestDelta
}

// RegistrationStore persists registrations and their guests.
type RegistrationStore interface {
	// GetByEventUser returns the registration for (event, user) or
	// model.ErrNotFound.
	GetByEventUser(ctx context.Context, eventID, userID string) (*model.Registration, error)

	// GetRegistration returns a registration by id or model.ErrNotFound.
	GetRegistration(ctx context.Context, id string) (*model.Registration, error)

	// Book creates a registration, enforcing capacity and (event, user)
	// uniqueness under a row lock on the event. Returns model.ErrEventFull or
	// model.ErrAlreadyRegistered on rejection.
	Book(ctx context.Context, p BookParams) (*model.Registration, error)

	// ListGuests returns a registration's guests with the given status.
	ListGuests(ctx context.Context, registrationID string, status model.GuestStatus) ([]model.Guest, error)

	// ApplyGuestChange adds or cancels guests and updates the registration's
	// breakdown in one transaction, returning the updated registration.
	ApplyGuestChange(ctx context.Context, registrationID string, change GuestChange) (*model.Registration, error)

	// CancelRegistration marks a registration CANCELLED and releases its seat.
	CancelRegistration(ctx context.Context, registrationID string) (*model.Registration, error)
}

// FormStore reads form schemas and persists submitted responses.
type FormStore interface {
	ListFields(ctx context.Context, eventID string) ([]model.FormField, error)
	SaveResponses(ctx context.Context, registrationID string, responses map[string]string) error
}

// CartStore persists merchandise catalog reads and cart mutations.
type CartStore interface {
	// GetItem returns a catalog item or model.ErrNotFound.
	GetItem(ctx context.Context, itemID string) (*model.MerchandiseItem, error)

	// ListItems returns an event's catalog, active items first.
	ListItems(ctx context.Context, eventID string) ([]model.MerchandiseItem, error)

	// AddCartOrder inserts a cart line.
	AddCartOrder(ctx context.Context, order *model.CartOrder) error

	// RemoveCartOrder deletes a cart line owned by the registration.
	RemoveCartOrder(ctx context.Context, registrationID, orderID string) error

	// ListCartLines returns a registration's cart lines joined with the
	// current state of their backing items.
	ListCartLines(ctx context.Context, registrationID string) ([]model.CartLine, error)

	// FinalizeCheckout decrements finite stock for every line, moves the cart
	// total into the registration's merchandise total, and clears the cart,
	// all in one transaction. Returns the updated registration.
	FinalizeCheckout(ctx context.Context, registrationID string, cartTotal decimal.Decimal) (*model.Registration, error)
}

// BatchStore persists batch collections and their payments. RecordPayment and
// ApproveAndRegister are the transactional core: exact aggregation and
// exactly-once transition detection under concurrent writers.
type BatchStore interface {
	// GetCollection returns a collection by id or model.ErrNotFound.
	GetCollection(ctx context.Context, id string) (*model.BatchCollection, error)

	// GetCollectionByEventCohort returns the collection for (event, cohort)
	// or model.ErrNotFound.
	GetCollectionByEventCohort(ctx context.Context, eventID, cohortID string) (*model.BatchCollection, error)

	// CreateCollection inserts a collection, returning
	// model.ErrCollectionExists if the (event, cohort) slot is taken.
	CreateCollection(ctx context.Context, c *model.BatchCollection) error

	// RecordPayment inserts a completed payment and atomically increments the
	// collected amount. targetJustMet is true only for the single payment
	// that first pushes collected over the target (compare-and-set, never a
	// read-then-write race).
	RecordPayment(ctx context.Context, collectionID string, payment *model.BatchAdminPayment) (updated *model.BatchCollection, targetJustMet bool, err error)

	// ApproveAndRegister flips the approval flag and bulk-creates one
	// registration per member without an existing one, as a single
	// transaction. Already-registered members are skipped. seed describes
	// the rows to create.
	ApproveAndRegister(ctx context.Context, collectionID string, seed BulkRegistrationSeed) (*model.BatchApprovalResult, error)

	// CancelCollection marks an ACTIVE collection CANCELLED.
	CancelCollection(ctx context.Context, collectionID string) (*model.BatchCollection, error)

	// ListPayments returns a collection's payments, newest first.
	ListPayments(ctx context.Context, collectionID string) ([]model.BatchAdminPayment, error)
}

// BulkRegistrationSeed describes the registrations created on approval.
type BulkRegistrationSeed struct {
	EventID         string
	Members         []model.CohortMember
	RegistrationFee decimal.Decimal
	Now             time.Time
}

// CohortProvider is the external membership and authorization collaborator.
type CohortProvider interface {
	// ActiveMembers returns the active members of a cohort.
	ActiveMembers(ctx context.Context, cohortID string) ([]model.CohortMember, error)

	// IsAdministrator reports whether the user administers the cohort.
	IsAdministrator(ctx context.Context, userID, cohortID string) (bool, error)
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never block a state transition on delivery; failures are logged and
// dropped.
type Notifier interface {
	TargetMet(ctx context.Context, n CollectionNotice)
	CollectionApproved(ctx context.Context, n CollectionNotice)
}

// CollectionNotice is the payload for batch collection notifications.
type CollectionNotice struct {
	EventID         string
	CohortID        string
	CollectedAmount decimal.Decimal
	TargetAmount    decimal.Decimal
}
