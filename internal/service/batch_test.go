package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventledger/internal/model"
)

// batchFixture wires a coordinator over the fakes with one open event and a
// cohort of three active members administered by "admin-1".
func batchFixture(t *testing.T) (*BatchCollectionCoordinator, *fakeStore, *fakeCohorts, *fakeNotifier) {
	t.Helper()
	store := newFakeStore()
	store.addEvent(openEvent("evt-1", nil))

	cohorts := newFakeCohorts()
	cohorts.members["cohort-1"] = []model.CohortMember{
		{UserID: "member-1", Email: "member-1@example.com"},
		{UserID: "member-2", Email: "member-2@example.com"},
		{UserID: "member-3", Email: "member-3@example.com"},
	}
	cohorts.admins["admin-1/cohort-1"] = true

	notifier := &fakeNotifier{}
	coord := NewBatchCollectionCoordinator(store, store, cohorts, notifier, newFakeCache())
	return coord, store, cohorts, notifier
}

func createCollection(t *testing.T, coord *BatchCollectionCoordinator, target string) *model.BatchCollection {
	t.Helper()
	c, err := coord.Create(context.Background(), model.CreateBatchCollectionRequest{
		EventID:      "evt-1",
		CohortID:     "cohort-1",
		TargetAmount: dec(target),
	}, "admin-1")
	require.NoError(t, err)
	return c
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("requires cohort administrator", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		_, err := coord.Create(ctx, model.CreateBatchCollectionRequest{
			EventID: "evt-1", CohortID: "cohort-1", TargetAmount: dec("1000"),
		}, "stranger")
		assert.ErrorIs(t, err, model.ErrNotAuthorized)
	})

	t.Run("rejects non-positive target", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		_, err := coord.Create(ctx, model.CreateBatchCollectionRequest{
			EventID: "evt-1", CohortID: "cohort-1", TargetAmount: dec("0"),
		}, "admin-1")
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("rejects duplicate per event and cohort", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		createCollection(t, coord, "1000")
		_, err := coord.Create(ctx, model.CreateBatchCollectionRequest{
			EventID: "evt-1", CohortID: "cohort-1", TargetAmount: dec("2000"),
		}, "admin-1")
		assert.ErrorIs(t, err, model.ErrCollectionExists)
	})

	t.Run("rejects closed event", func(t *testing.T) {
		coord, store, _, _ := batchFixture(t)
		store.events["evt-1"].Status = model.EventStatusClosed
		_, err := coord.Create(ctx, model.CreateBatchCollectionRequest{
			EventID: "evt-1", CohortID: "cohort-1", TargetAmount: dec("1000"),
		}, "admin-1")
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestRecordPaymentAggregation(t *testing.T) {
	ctx := context.Background()
	coord, _, _, notifier := batchFixture(t)
	c := createCollection(t, coord, "10000")

	pay := func(amount, ref string) *model.BatchCollection {
		updated, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec(amount), TransactionRef: ref,
		})
		require.NoError(t, err)
		return updated
	}

	updated := pay("6000", "txn-1")
	assert.True(t, updated.CollectedAmount.Equal(dec("6000")))
	assert.False(t, updated.TargetMet)
	assert.Empty(t, notifier.targetMet)

	// Collected may overshoot the target; the second payment crosses it.
	updated = pay("4500", "txn-2")
	assert.True(t, updated.CollectedAmount.Equal(dec("10500")))
	assert.True(t, updated.TargetMet)
	require.Len(t, notifier.targetMet, 1)
	assert.True(t, notifier.targetMet[0].CollectedAmount.Equal(dec("10500")))
}

func TestPaymentsHistory(t *testing.T) {
	ctx := context.Background()
	coord, _, _, _ := batchFixture(t)
	c := createCollection(t, coord, "10000")

	for _, amount := range []string{"6000", "4500"} {
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec(amount),
		})
		require.NoError(t, err)
	}

	payments, err := coord.Payments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, model.PaymentCompleted, payments[0].Status)

	_, err = coord.Payments(ctx, "no-such-collection")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecordPaymentTargetMetExactBoundary(t *testing.T) {
	ctx := context.Background()
	coord, _, _, notifier := batchFixture(t)
	c := createCollection(t, coord, "10000")

	updated, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
		PayerID: "admin-1", Amount: dec("9999.99"), TransactionRef: "txn-1",
	})
	require.NoError(t, err)
	assert.False(t, updated.TargetMet)

	// Landing exactly on the target counts as met.
	updated, err = coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
		PayerID: "admin-1", Amount: dec("0.01"), TransactionRef: "txn-2",
	})
	require.NoError(t, err)
	assert.True(t, updated.CollectedAmount.Equal(dec("10000")))
	assert.True(t, updated.TargetMet)
	assert.Len(t, notifier.targetMet, 1)
}

func TestTargetMetSignalFiresOnce(t *testing.T) {
	ctx := context.Background()
	coord, _, _, notifier := batchFixture(t)
	c := createCollection(t, coord, "100")

	for i, amount := range []string{"60", "50", "40"} {
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec(amount), TransactionRef: string(rune('a' + i)),
		})
		require.NoError(t, err)
	}
	assert.Len(t, notifier.targetMet, 1)
}

func TestRecordPaymentGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("requires cohort administrator", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "member-1", Amount: dec("50"),
		})
		assert.ErrorIs(t, err, model.ErrNotAuthorized)
	})

	t.Run("rejects cancelled collection", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.Cancel(ctx, c.ID)
		require.NoError(t, err)
		_, err = coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("50"),
		})
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("-5"),
		})
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestApproveRegistersCohortSkippingExisting(t *testing.T) {
	ctx := context.Background()
	coord, store, _, notifier := batchFixture(t)
	c := createCollection(t, coord, "10000")

	// member-2 registered individually before the approval lands.
	_, err := store.Book(ctx, BookParams{
		EventID:       "evt-1",
		UserID:        "member-2",
		Mode:          model.ModeIndividual,
		PaymentStatus: model.PaymentCompleted,
		Breakdown:     FeeBreakdown{RegistrationFee: dec("500"), Total: dec("500")},
	})
	require.NoError(t, err)

	for _, amount := range []string{"6000", "4500"} {
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec(amount),
		})
		require.NoError(t, err)
	}

	result, err := coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.MemberCount)
	assert.Equal(t, 2, result.Registered)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, result.Collection.Approved)
	assert.Equal(t, model.BatchCompleted, result.Collection.Status)
	assert.Len(t, notifier.approvedCalls, 1)

	// member-2's original registration keeps its individual mode.
	existing, err := store.GetByEventUser(ctx, "evt-1", "member-2")
	require.NoError(t, err)
	assert.Equal(t, model.ModeIndividual, existing.Mode)

	auto, err := store.GetByEventUser(ctx, "evt-1", "member-1")
	require.NoError(t, err)
	assert.Equal(t, model.ModeBatchAutoRegistered, auto.Mode)
	assert.Equal(t, model.RegistrationConfirmed, auto.Status)
	assert.True(t, auto.RegistrationFeePaid.Equal(dec("500")))
}

func TestApproveRespectsEventCapacity(t *testing.T) {
	ctx := context.Background()

	fund := func(t *testing.T, coord *BatchCollectionCoordinator, c *model.BatchCollection) {
		t.Helper()
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("10000"),
		})
		require.NoError(t, err)
	}

	t.Run("rejects approval that would overbook", func(t *testing.T) {
		coord, store, _, notifier := batchFixture(t)
		store.events["evt-1"].Capacity = intPtr(2)
		c := createCollection(t, coord, "10000")

		// One of the two seats is already taken by an outsider, so only
		// one seat remains for the three unregistered members.
		_, err := store.Book(ctx, BookParams{
			EventID:       "evt-1",
			UserID:        "outsider-1",
			Mode:          model.ModeIndividual,
			PaymentStatus: model.PaymentCompleted,
			Breakdown:     FeeBreakdown{RegistrationFee: dec("500"), Total: dec("500")},
		})
		require.NoError(t, err)

		fund(t, coord, c)
		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		assert.ErrorIs(t, err, model.ErrEventFull)

		// The rejected approval leaves everything untouched.
		updated, err := store.GetCollection(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, updated.Approved)
		assert.Equal(t, model.BatchActive, updated.Status)
		assert.Equal(t, 1, store.events["evt-1"].ConfirmedCount)
		assert.Empty(t, notifier.approvedCalls)
	})

	t.Run("members already holding seats do not count", func(t *testing.T) {
		coord, store, _, _ := batchFixture(t)
		store.events["evt-1"].Capacity = intPtr(3)
		c := createCollection(t, coord, "10000")

		// member-2 holds one of the three seats already, so the two
		// remaining members fit exactly.
		_, err := store.Book(ctx, BookParams{
			EventID:       "evt-1",
			UserID:        "member-2",
			Mode:          model.ModeIndividual,
			PaymentStatus: model.PaymentCompleted,
			Breakdown:     FeeBreakdown{RegistrationFee: dec("500"), Total: dec("500")},
		})
		require.NoError(t, err)

		fund(t, coord, c)
		result, err := coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Registered)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 3, store.events["evt-1"].ConfirmedCount)
	})
}

func TestApproveGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("target not met", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "10000")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("9999"),
		})
		require.NoError(t, err)
		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("already approved", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("100"),
		})
		require.NoError(t, err)
		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		require.NoError(t, err)
		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		var conflict *model.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("requires cohort administrator", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("100"),
		})
		require.NoError(t, err)
		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "member-1"})
		assert.ErrorIs(t, err, model.ErrNotAuthorized)
	})
}

func TestRegistrationModeFor(t *testing.T) {
	ctx := context.Background()

	t.Run("no cohort means individual", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		mode, err := coord.RegistrationModeFor(ctx, "evt-1", "")
		require.NoError(t, err)
		assert.Equal(t, model.ModeIndividual, mode)
	})

	t.Run("no collection means individual", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		mode, err := coord.RegistrationModeFor(ctx, "evt-1", "cohort-1")
		require.NoError(t, err)
		assert.Equal(t, model.ModeIndividual, mode)
	})

	t.Run("active collection means pending", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		createCollection(t, coord, "100")
		mode, err := coord.RegistrationModeFor(ctx, "evt-1", "cohort-1")
		require.NoError(t, err)
		assert.Equal(t, model.ModeBatchPending, mode)
	})

	t.Run("approved collection means auto-registered", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
			PayerID: "admin-1", Amount: dec("100"),
		})
		require.NoError(t, err)

		// Warm the cache with the pending mode, then approve. The write must
		// invalidate the cached entry rather than wait for expiry.
		mode, err := coord.RegistrationModeFor(ctx, "evt-1", "cohort-1")
		require.NoError(t, err)
		assert.Equal(t, model.ModeBatchPending, mode)

		_, err = coord.Approve(ctx, c.ID, model.ApproveBatchCollectionRequest{ApproverID: "admin-1"})
		require.NoError(t, err)

		mode, err = coord.RegistrationModeFor(ctx, "evt-1", "cohort-1")
		require.NoError(t, err)
		assert.Equal(t, model.ModeBatchAutoRegistered, mode)
	})

	t.Run("cancelled collection means individual", func(t *testing.T) {
		coord, _, _, _ := batchFixture(t)
		c := createCollection(t, coord, "100")
		_, err := coord.Cancel(ctx, c.ID)
		require.NoError(t, err)
		mode, err := coord.RegistrationModeFor(ctx, "evt-1", "cohort-1")
		require.NoError(t, err)
		assert.Equal(t, model.ModeIndividual, mode)
	})
}

func TestStatusReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	coord, store, _, _ := batchFixture(t)
	c := createCollection(t, coord, "100")

	got, err := coord.Status(ctx, "evt-1", "cohort-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	// Mutate the store behind the cache; the cached snapshot is served until
	// a write invalidates it.
	store.collections[c.ID].TargetMet = true
	got, err = coord.Status(ctx, "evt-1", "cohort-1")
	require.NoError(t, err)
	assert.False(t, got.TargetMet)

	_, err = coord.RecordPayment(ctx, c.ID, model.RecordBatchPaymentRequest{
		PayerID: "admin-1", Amount: dec("10"),
	})
	require.NoError(t, err)

	got, err = coord.Status(ctx, "evt-1", "cohort-1")
	require.NoError(t, err)
	assert.True(t, got.CollectedAmount.Equal(dec("10")))
}
