package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// Cache is a read-through TTL cache used only for registration-mode and
// collection-status lookups. A miss is never an error: callers fall back to
// the store. Writes to the underlying state delete the affected keys rather
// than waiting for expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Cache key builders for the (event, cohort) key space.
func modeCacheKey(eventID, cohortID string) string {
	return "regmode:" + eventID + ":" + cohortID
}

func collectionCacheKey(eventID, cohortID string) string {
	return "collection:" + eventID + ":" + cohortID
}

const cacheTTL = 30 * time.Second

// BatchCollectionCoordinator manages cohort pooled-funding campaigns: payment
// aggregation, target-met detection, approval gating, and the bulk
// auto-registration of cohort members.
type BatchCollectionCoordinator struct {
	events   EventStore
	store    BatchStore
	cohorts  CohortProvider
	notifier Notifier
	cache    Cache
	now      func() time.Time
}

// NewBatchCollectionCoordinator constructs a coordinator.
func NewBatchCollectionCoordinator(
	events EventStore,
	store BatchStore,
	cohorts CohortProvider,
	notifier Notifier,
	cache Cache,
) *BatchCollectionCoordinator {
	return &BatchCollectionCoordinator{
		events:   events,
		store:    store,
		cohorts:  cohorts,
		notifier: notifier,
		cache:    cache,
		now:      time.Now,
	}
}

// Create opens a funding campaign for (event, cohort). The event must still be
// open for registration and its window must not have closed; the cohort must
// have at least one administrator able to contribute.
func (b *BatchCollectionCoordinator) Create(ctx context.Context, req model.CreateBatchCollectionRequest, creatorID string) (*model.BatchCollection, error) {
	event, err := b.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	now := b.now()
	if !event.Status.OpenForRegistration() {
		return nil, model.Conflict("the event is not open for registration")
	}
	if event.RegistrationClosesAt != nil && now.After(*event.RegistrationClosesAt) {
		return nil, model.Conflict("the registration period for this event has ended")
	}
	if !req.TargetAmount.IsPositive() {
		return nil, model.Conflict("target amount must be positive")
	}

	admin, err := b.cohorts.IsAdministrator(ctx, creatorID, req.CohortID)
	if err != nil {
		return nil, fmt.Errorf("check cohort administrator: %w", err)
	}
	if !admin {
		return nil, model.ErrNotAuthorized
	}

	c := &model.BatchCollection{
		ID:              uuid.New().String(),
		EventID:         req.EventID,
		CohortID:        req.CohortID,
		TargetAmount:    req.TargetAmount,
		CollectedAmount: decimal.Zero,
		Status:          model.BatchActive,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if err := b.store.CreateCollection(ctx, c); err != nil {
		return nil, err
	}

	b.invalidate(ctx, c.EventID, c.CohortID)
	return c, nil
}

// RecordPayment records an administrator's completed contribution. The
// collected amount is incremented atomically with the payment insert; if this
// payment is the one that first pushes collected over the target, the
// target-met signal fires exactly once, after commit.
func (b *BatchCollectionCoordinator) RecordPayment(ctx context.Context, collectionID string, req model.RecordBatchPaymentRequest) (*model.BatchCollection, error) {
	c, err := b.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.BatchActive {
		return nil, model.Conflict("this collection is no longer accepting payments")
	}
	if !req.Amount.IsPositive() {
		return nil, model.Conflict("payment amount must be positive")
	}

	admin, err := b.cohorts.IsAdministrator(ctx, req.PayerID, c.CohortID)
	if err != nil {
		return nil, fmt.Errorf("check cohort administrator: %w", err)
	}
	if !admin {
		return nil, model.ErrNotAuthorized
	}

	payment := &model.BatchAdminPayment{
		ID:             uuid.New().String(),
		CollectionID:   collectionID,
		PayerID:        req.PayerID,
		Amount:         req.Amount,
		TransactionRef: req.TransactionRef,
		Status:         model.PaymentCompleted,
		CreatedAt:      b.now().UTC(),
	}

	updated, targetJustMet, err := b.store.RecordPayment(ctx, collectionID, payment)
	if err != nil {
		return nil, err
	}

	b.invalidate(ctx, updated.EventID, updated.CohortID)

	// Dispatch outside any transaction; delivery failure never rolls back
	// the payment.
	if targetJustMet {
		b.notifier.TargetMet(ctx, CollectionNotice{
			EventID:         updated.EventID,
			CohortID:        updated.CohortID,
			CollectedAmount: updated.CollectedAmount,
			TargetAmount:    updated.TargetAmount,
		})
	}
	return updated, nil
}

// Approve performs the one-way approval transition: the collection is marked
// approved and completed, and every active cohort member without an existing
// registration is auto-registered, in one atomic unit. Membership is fetched
// before the transaction opens so no slow I/O happens under the lock.
func (b *BatchCollectionCoordinator) Approve(ctx context.Context, collectionID string, req model.ApproveBatchCollectionRequest) (*model.BatchApprovalResult, error) {
	c, err := b.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c.Approved {
		return nil, model.Conflict("this collection has already been approved")
	}
	if !c.TargetMet {
		return nil, model.Conflict("the funding target has not been met")
	}
	if c.Status != model.BatchActive {
		return nil, model.Conflict("only an active collection can be approved")
	}

	admin, err := b.cohorts.IsAdministrator(ctx, req.ApproverID, c.CohortID)
	if err != nil {
		return nil, fmt.Errorf("check cohort administrator: %w", err)
	}
	if !admin {
		return nil, model.ErrNotAuthorized
	}

	event, err := b.events.GetEvent(ctx, c.EventID)
	if err != nil {
		return nil, err
	}
	members, err := b.cohorts.ActiveMembers(ctx, c.CohortID)
	if err != nil {
		return nil, fmt.Errorf("list cohort members: %w", err)
	}

	result, err := b.store.ApproveAndRegister(ctx, collectionID, BulkRegistrationSeed{
		EventID:         c.EventID,
		Members:         members,
		RegistrationFee: event.RegistrationFee,
		Now:             b.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	b.invalidate(ctx, c.EventID, c.CohortID)

	b.notifier.CollectionApproved(ctx, CollectionNotice{
		EventID:         c.EventID,
		CohortID:        c.CohortID,
		CollectedAmount: result.Collection.CollectedAmount,
		TargetAmount:    result.Collection.TargetAmount,
	})
	return result, nil
}

// Cancel administratively aborts an ACTIVE collection.
func (b *BatchCollectionCoordinator) Cancel(ctx context.Context, collectionID string) (*model.BatchCollection, error) {
	c, err := b.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.BatchActive {
		return nil, model.Conflict("only an active collection can be cancelled")
	}
	updated, err := b.store.CancelCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	b.invalidate(ctx, updated.EventID, updated.CohortID)
	return updated, nil
}

// Payments returns a collection's payment history, newest first.
func (b *BatchCollectionCoordinator) Payments(ctx context.Context, collectionID string) ([]model.BatchAdminPayment, error) {
	if _, err := b.store.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	return b.store.ListPayments(ctx, collectionID)
}

// Status returns the collection for (event, cohort), read through the cache.
func (b *BatchCollectionCoordinator) Status(ctx context.Context, eventID, cohortID string) (*model.BatchCollection, error) {
	key := collectionCacheKey(eventID, cohortID)
	if raw, ok := b.cache.Get(ctx, key); ok {
		var c model.BatchCollection
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			return &c, nil
		}
		// Unreadable entry: drop it and fall through to the store.
		b.cache.Delete(ctx, key)
	}

	c, err := b.store.GetCollectionByEventCohort(ctx, eventID, cohortID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(c); err == nil {
		b.cache.Set(ctx, key, string(raw), cacheTTL)
	}
	return c, nil
}

// RegistrationModeFor derives the registration mode a prospective individual
// registrant should see for (event, cohort): BATCH_AUTO_REGISTERED when a
// completed, approved collection exists, BATCH_PENDING while one is being
// funded, and INDIVIDUAL otherwise.
func (b *BatchCollectionCoordinator) RegistrationModeFor(ctx context.Context, eventID, cohortID string) (model.RegistrationMode, error) {
	if cohortID == "" {
		return model.ModeIndividual, nil
	}

	key := modeCacheKey(eventID, cohortID)
	if raw, ok := b.cache.Get(ctx, key); ok {
		return model.RegistrationMode(raw), nil
	}

	mode := model.ModeIndividual
	c, err := b.store.GetCollectionByEventCohort(ctx, eventID, cohortID)
	switch {
	case err == nil:
		switch {
		case c.Approved && c.Status == model.BatchCompleted:
			mode = model.ModeBatchAutoRegistered
		case c.Status == model.BatchActive:
			mode = model.ModeBatchPending
		}
	case errors.Is(err, model.ErrNotFound):
		// No collection: the normal individual path applies.
	default:
		return "", err
	}

	b.cache.Set(ctx, key, string(mode), cacheTTL)
	return mode, nil
}

// invalidate deletes the cached entries for an (event, cohort) key space.
// Writes must invalidate explicitly; expiry alone is not enough.
func (b *BatchCollectionCoordinator) invalidate(ctx context.Context, eventID, cohortID string) {
	b.cache.Delete(ctx, modeCacheKey(eventID, cohortID), collectionCacheKey(eventID, cohortID))
}
