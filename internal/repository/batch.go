package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventledger/internal/model"
	"eventledger/internal/service"
)

// BatchRepository handles persistence for batch collections and their
// administrator payments.
type BatchRepository struct {
	db *pgxpool.Pool
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{db: db}
}

const collectionColumns = `id, event_id, cohort_id, target_amount::text, collected_amount::text,
	target_met, approved, status, created_at, updated_at`

func scanCollection(row pgx.Row) (*model.BatchCollection, error) {
	var c model.BatchCollection
	var target, collected string
	err := row.Scan(
		&c.ID, &c.EventID, &c.CohortID, &target, &collected,
		&c.TargetMet, &c.Approved, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan batch collection: %w", err)
	}
	if c.TargetAmount, err = scanDecimal(target); err != nil {
		return nil, err
	}
	if c.CollectedAmount, err = scanDecimal(collected); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCollection returns a collection by id or model.ErrNotFound.
func (r *BatchRepository) GetCollection(ctx context.Context, id string) (*model.BatchCollection, error) {
	return scanCollection(r.db.QueryRow(ctx,
		`SELECT `+collectionColumns+` FROM batch_collections WHERE id = $1`, id,
	))
}

// GetCollectionByEventCohort returns the collection for (event, cohort) or
// model.ErrNotFound.
func (r *BatchRepository) GetCollectionByEventCohort(ctx context.Context, eventID, cohortID string) (*model.BatchCollection, error) {
	return scanCollection(r.db.QueryRow(ctx,
		`SELECT `+collectionColumns+` FROM batch_collections WHERE event_id = $1 AND cohort_id = $2`,
		eventID, cohortID,
	))
}

// CreateCollection inserts a collection. The unique index on
// (event_id, cohort_id) rejects a second campaign for the same pair.
func (r *BatchRepository) CreateCollection(ctx context.Context, c *model.BatchCollection) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO batch_collections (id, event_id, cohort_id, target_amount, collected_amount,
			target_met, approved, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6, $7, $8)`,
		c.ID, c.EventID, c.CohortID, c.TargetAmount.String(), c.CollectedAmount.String(),
		c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrCollectionExists
		}
		return fmt.Errorf("insert batch collection: %w", err)
	}
	return nil
}

// RecordPayment inserts a completed payment and increments the collected
// amount in the same transaction, so the aggregate is exact under concurrent
// contributors. Target-met detection is a compare-and-set on the target_met
// flag: of two payments racing past the target only one sees its UPDATE touch
// a row, so the signal fires at most once per collection.
func (r *BatchRepository) RecordPayment(ctx context.Context, collectionID string, payment *model.BatchAdminPayment) (*model.BatchCollection, bool, error) {
	now := time.Now().UTC()
	var targetJustMet bool

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var status model.BatchCollectionStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM batch_collections WHERE id = $1 FOR UPDATE`,
			collectionID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock batch collection: %w", err)
		}
		if status != model.BatchActive {
			return model.Conflict("this collection is no longer accepting payments")
		}

		if _, err = tx.Exec(ctx,
			`INSERT INTO batch_admin_payments (id, collection_id, payer_id, amount, transaction_ref, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			payment.ID, collectionID, payment.PayerID, payment.Amount.String(),
			payment.TransactionRef, payment.Status, payment.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert batch payment: %w", err)
		}

		if _, err = tx.Exec(ctx,
			`UPDATE batch_collections
			 SET collected_amount = collected_amount + $2, updated_at = $3
			 WHERE id = $1`,
			collectionID, payment.Amount.String(), now,
		); err != nil {
			return fmt.Errorf("increment collected amount: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE batch_collections
			 SET target_met = TRUE, updated_at = $2
			 WHERE id = $1 AND target_met = FALSE AND collected_amount >= target_amount`,
			collectionID, now,
		)
		if err != nil {
			return fmt.Errorf("detect target met: %w", err)
		}
		targetJustMet = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	updated, err := r.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, false, err
	}
	return updated, targetJustMet, nil
}

// ApproveAndRegister performs the approval transition as one atomic unit: the
// collection row is locked, the target-met and not-yet-approved guards are
// re-checked under the lock, the approval flag flips, and one registration is
// created per cohort member who does not already hold one. The unique index on
// (event_id, user_id) makes the member inserts idempotent (ON CONFLICT DO
// NOTHING), so an already-registered member is skipped, never duplicated.
// The event row is locked too: if the members who still need a seat do not
// all fit within the remaining capacity the whole approval rolls back with
// model.ErrEventFull, so a cohort never overbooks a finite event. A crash
// anywhere before commit leaves the collection unapproved.
func (r *BatchRepository) ApproveAndRegister(ctx context.Context, collectionID string, seed service.BulkRegistrationSeed) (*model.BatchApprovalResult, error) {
	result := &model.BatchApprovalResult{MemberCount: len(seed.Members)}

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		c, err := scanCollection(tx.QueryRow(ctx,
			`SELECT `+collectionColumns+` FROM batch_collections WHERE id = $1 FOR UPDATE`,
			collectionID,
		))
		if err != nil {
			return err
		}
		if c.Approved {
			return model.Conflict("this collection has already been approved")
		}
		if !c.TargetMet {
			return model.Conflict("the funding target has not been met")
		}
		if c.Status != model.BatchActive {
			return model.Conflict("only an active collection can be approved")
		}

		var capacity *int
		var confirmed int
		err = tx.QueryRow(ctx,
			`SELECT capacity, confirmed_count FROM events WHERE id = $1 FOR UPDATE`,
			seed.EventID,
		).Scan(&capacity, &confirmed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}

		if _, err = tx.Exec(ctx,
			`UPDATE batch_collections SET approved = TRUE, status = $2, updated_at = $3 WHERE id = $1`,
			collectionID, model.BatchCompleted, seed.Now,
		); err != nil {
			return fmt.Errorf("approve collection: %w", err)
		}

		fee := seed.RegistrationFee.String()
		for _, member := range seed.Members {
			tag, err := tx.Exec(ctx,
				`INSERT INTO registrations (id, event_id, user_id, status, payment_status, mode,
					registration_fee_paid, guest_fees_paid, merchandise_total, donation_amount,
					total_amount, total_guests, active_guests, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, $7, 0, 0, $8, $8)
				 ON CONFLICT (event_id, user_id) DO NOTHING`,
				uuid.New().String(), seed.EventID, member.UserID,
				model.RegistrationConfirmed, model.PaymentCompleted, model.ModeBatchAutoRegistered,
				fee, seed.Now,
			)
			if err != nil {
				return fmt.Errorf("bulk insert registration: %w", err)
			}
			if tag.RowsAffected() == 1 {
				result.Registered++
			} else {
				result.Skipped++
			}
		}

		if capacity != nil && result.Registered > *capacity-confirmed {
			return model.ErrEventFull
		}

		if result.Registered > 0 {
			if _, err = tx.Exec(ctx,
				`UPDATE events SET confirmed_count = confirmed_count + $2, updated_at = $3 WHERE id = $1`,
				seed.EventID, result.Registered, seed.Now,
			); err != nil {
				return fmt.Errorf("increment confirmed_count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := r.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	result.Collection = *updated
	return result, nil
}

// CancelCollection marks an ACTIVE collection CANCELLED.
func (r *BatchRepository) CancelCollection(ctx context.Context, collectionID string) (*model.BatchCollection, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE batch_collections SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		collectionID, model.BatchCancelled, time.Now().UTC(), model.BatchActive,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel batch collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.Conflict("only an active collection can be cancelled")
	}
	return r.GetCollection(ctx, collectionID)
}

// ListPayments returns a collection's payments, newest first.
func (r *BatchRepository) ListPayments(ctx context.Context, collectionID string) ([]model.BatchAdminPayment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, collection_id, payer_id, amount::text, transaction_ref, status, created_at
		 FROM batch_admin_payments WHERE collection_id = $1 ORDER BY created_at DESC`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list batch payments: %w", err)
	}
	defer rows.Close()

	var payments []model.BatchAdminPayment
	for rows.Next() {
		var p model.BatchAdminPayment
		var amount string
		if err := rows.Scan(&p.ID, &p.CollectionID, &p.PayerID, &amount, &p.TransactionRef, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch payment: %w", err)
		}
		if p.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
