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
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, status, start_at, capacity, confirmed_count,
	registration_fee::text, guest_fee::text, registration_opens_at, registration_closes_at,
	has_registration, has_external_link, has_guests, has_merchandise,
	allow_form_modification, modification_deadline_hours, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	var regFee, guestFee string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Status, &e.StartAt, &e.Capacity, &e.ConfirmedCount,
		&regFee, &guestFee, &e.RegistrationOpensAt, &e.RegistrationClosesAt,
		&e.HasRegistration, &e.HasExternalLink, &e.HasGuests, &e.HasMerchandise,
		&e.AllowFormModification, &e.ModificationDeadline, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if e.RegistrationFee, err = scanDecimal(regFee); err != nil {
		return nil, err
	}
	if e.GuestFee, err = scanDecimal(guestFee); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	now := time.Now().UTC()
	e := &model.Event{
		ID:                    uuid.New().String(),
		Title:                 req.Title,
		Description:           req.Description,
		Status:                req.Status,
		StartAt:               req.StartAt,
		Capacity:              req.Capacity,
		RegistrationFee:       req.RegistrationFee,
		GuestFee:              req.GuestFee,
		RegistrationOpensAt:   req.RegistrationOpensAt,
		RegistrationClosesAt:  req.RegistrationClosesAt,
		HasRegistration:       req.HasRegistration,
		HasExternalLink:       req.HasExternalLink,
		HasGuests:             req.HasGuests,
		HasMerchandise:        req.HasMerchandise,
		AllowFormModification: req.AllowFormModification,
		ModificationDeadline:  req.ModificationDeadline,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, status, start_at, capacity, confirmed_count,
			registration_fee, guest_fee, registration_opens_at, registration_closes_at,
			has_registration, has_external_link, has_guests, has_merchandise,
			allow_form_modification, modification_deadline_hours, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		e.ID, e.Title, e.Description, e.Status, e.StartAt, e.Capacity,
		e.RegistrationFee.String(), e.GuestFee.String(),
		e.RegistrationOpensAt, e.RegistrationClosesAt,
		e.HasRegistration, e.HasExternalLink, e.HasGuests, e.HasMerchandise,
		e.AllowFormModification, e.ModificationDeadline, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// List returns all events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetEvent returns a single event or model.ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
}
