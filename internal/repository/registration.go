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

// RegistrationRepository handles persistence for registrations and guests.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, event_id, user_id, status, payment_status, mode,
	registration_fee_paid::text, guest_fees_paid::text, merchandise_total::text,
	donation_amount::text, total_amount::text, total_guests, active_guests,
	created_at, updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	var fee, guestFees, merch, donation, total string
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.PaymentStatus, &reg.Mode,
		&fee, &guestFees, &merch, &donation, &total,
		&reg.TotalGuests, &reg.ActiveGuests, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	if reg.RegistrationFeePaid, err = scanDecimal(fee); err != nil {
		return nil, err
	}
	if reg.GuestFeesPaid, err = scanDecimal(guestFees); err != nil {
		return nil, err
	}
	if reg.MerchandiseTotal, err = scanDecimal(merch); err != nil {
		return nil, err
	}
	if reg.DonationAmount, err = scanDecimal(donation); err != nil {
		return nil, err
	}
	if reg.TotalAmount, err = scanDecimal(total); err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetRegistration returns a registration by id or model.ErrNotFound.
func (r *RegistrationRepository) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id,
	))
}

// GetByEventUser returns the registration for (event, user) or model.ErrNotFound.
func (r *RegistrationRepository) GetByEventUser(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	return scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
}

// ListByEvent returns all registrations for an event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// Book performs a concurrency-safe registration inside one transaction.
//
// A naive read-then-write capacity check lets two concurrent registrants both
// observe a free seat and both insert, overbooking the event. Instead the
// event row is locked with SELECT ... FOR UPDATE, serialising concurrent
// bookings: the capacity check, the duplicate check, the counter increment,
// the registration insert, its guests, and its form responses all commit or
// roll back together. The unique index on (event_id, user_id) is the final
// guard should a duplicate slip past the in-transaction check.
func (r *RegistrationRepository) Book(ctx context.Context, p service.BookParams) (*model.Registration, error) {
	now := time.Now().UTC()
	reg := &model.Registration{
		ID:                  uuid.New().String(),
		EventID:             p.EventID,
		UserID:              p.UserID,
		Status:              model.RegistrationConfirmed,
		PaymentStatus:       p.PaymentStatus,
		Mode:                p.Mode,
		RegistrationFeePaid: p.Breakdown.RegistrationFee,
		GuestFeesPaid:       p.Breakdown.GuestFees,
		MerchandiseTotal:    p.Breakdown.Merchandise,
		DonationAmount:      p.Breakdown.Donation,
		TotalAmount:         p.Breakdown.Total,
		TotalGuests:         len(p.GuestNames),
		ActiveGuests:        len(p.GuestNames),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var capacity *int
		var confirmed int
		err := tx.QueryRow(ctx,
			`SELECT capacity, confirmed_count FROM events WHERE id = $1 FOR UPDATE`,
			p.EventID,
		).Scan(&capacity, &confirmed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var dup int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2`,
			p.EventID, p.UserID,
		).Scan(&dup)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup > 0 {
			return model.ErrAlreadyRegistered
		}

		if capacity != nil && confirmed >= *capacity {
			return model.ErrEventFull
		}

		if _, err = tx.Exec(ctx,
			`UPDATE events SET confirmed_count = confirmed_count + 1, updated_at = $2 WHERE id = $1`,
			p.EventID, now,
		); err != nil {
			return fmt.Errorf("increment confirmed_count: %w", err)
		}

		if _, err = tx.Exec(ctx,
			`INSERT INTO registrations (id, event_id, user_id, status, payment_status, mode,
				registration_fee_paid, guest_fees_paid, merchandise_total, donation_amount,
				total_amount, total_guests, active_guests, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			reg.ID, reg.EventID, reg.UserID, reg.Status, reg.PaymentStatus, reg.Mode,
			reg.RegistrationFeePaid.String(), reg.GuestFeesPaid.String(),
			reg.MerchandiseTotal.String(), reg.DonationAmount.String(), reg.TotalAmount.String(),
			reg.TotalGuests, reg.ActiveGuests, reg.CreatedAt, reg.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return model.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}

		for _, name := range p.GuestNames {
			if _, err = tx.Exec(ctx,
				`INSERT INTO guests (id, registration_id, name, status, fee_paid, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New().String(), reg.ID, name, model.GuestActive, p.GuestFeeEach.String(), now,
			); err != nil {
				return fmt.Errorf("insert guest: %w", err)
			}
		}

		for fieldID, value := range p.FormResponses {
			if _, err = tx.Exec(ctx,
				`INSERT INTO form_responses (registration_id, field_id, value)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (registration_id, field_id) DO UPDATE SET value = EXCLUDED.value`,
				reg.ID, fieldID, value,
			); err != nil {
				return fmt.Errorf("insert form response: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListGuests returns a registration's guests with the given status.
func (r *RegistrationRepository) ListGuests(ctx context.Context, registrationID string, status model.GuestStatus) ([]model.Guest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, registration_id, name, status, fee_paid::text, created_at
		 FROM guests WHERE registration_id = $1 AND status = $2 ORDER BY created_at ASC`,
		registrationID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []model.Guest
	for rows.Next() {
		var g model.Guest
		var fee string
		if err := rows.Scan(&g.ID, &g.RegistrationID, &g.Name, &g.Status, &fee, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		if g.FeePaid, err = scanDecimal(fee); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// ApplyGuestChange adds or cancels guests and rewrites the registration's
// monetary breakdown in one transaction. The registration row is locked first
// so concurrent guest changes serialise.
func (r *RegistrationRepository) ApplyGuestChange(ctx context.Context, registrationID string, change service.GuestChange) (*model.Registration, error) {
	now := time.Now().UTC()

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM registrations WHERE id = $1 FOR UPDATE`, registrationID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock registration row: %w", err)
		}

		for _, name := range change.AddNames {
			if _, err = tx.Exec(ctx,
				`INSERT INTO guests (id, registration_id, name, status, fee_paid, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New().String(), registrationID, name, model.GuestActive, change.FeeEach.String(), now,
			); err != nil {
				return fmt.Errorf("insert guest: %w", err)
			}
		}

		for _, guestID := range change.RemoveIDs {
			tag, err := tx.Exec(ctx,
				`UPDATE guests SET status = $3 WHERE id = $1 AND registration_id = $2 AND status = $4`,
				guestID, registrationID, model.GuestCancelled, model.GuestActive,
			)
			if err != nil {
				return fmt.Errorf("cancel guest: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("guest %s: %w", guestID, model.ErrNotFound)
			}
		}

		delta := change.Delta
		if _, err = tx.Exec(ctx,
			`UPDATE registrations
			 SET guest_fees_paid = $2, donation_amount = $3, total_amount = $4,
			     total_guests = total_guests + $5, active_guests = $6, updated_at = $7
			 WHERE id = $1`,
			registrationID,
			delta.NewGuestFees.String(), delta.NewDonation.String(), delta.NewTotal.String(),
			len(change.AddNames), delta.NewGuestCount, now,
		); err != nil {
			return fmt.Errorf("update registration breakdown: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetRegistration(ctx, registrationID)
}

// CancelRegistration marks a registration CANCELLED and releases its seat by
// decrementing the event's confirmed count, in one transaction. Money already
// collected stays on the row.
func (r *RegistrationRepository) CancelRegistration(ctx context.Context, registrationID string) (*model.Registration, error) {
	now := time.Now().UTC()

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var eventID string
		var status model.RegistrationStatus
		err := tx.QueryRow(ctx,
			`SELECT event_id, status FROM registrations WHERE id = $1 FOR UPDATE`,
			registrationID,
		).Scan(&eventID, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock registration row: %w", err)
		}
		if status == model.RegistrationCancelled {
			return nil
		}

		if _, err = tx.Exec(ctx,
			`UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1`,
			registrationID, model.RegistrationCancelled, now,
		); err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}

		if status == model.RegistrationConfirmed {
			if _, err = tx.Exec(ctx,
				`UPDATE events SET confirmed_count = confirmed_count - 1, updated_at = $2 WHERE id = $1`,
				eventID, now,
			); err != nil {
				return fmt.Errorf("release seat: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetRegistration(ctx, registrationID)
}
