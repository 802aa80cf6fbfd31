package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventledger/internal/model"
)

// FormRepository handles persistence for form schemas and responses.
type FormRepository struct {
	db *pgxpool.Pool
}

// NewFormRepository constructs a FormRepository.
func NewFormRepository(db *pgxpool.Pool) *FormRepository {
	return &FormRepository{db: db}
}

// CreateField inserts one field of an event's form schema.
func (r *FormRepository) CreateField(ctx context.Context, f *model.FormField) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO form_fields (id, event_id, kind, label, required, options, min_length, max_length, pattern, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.EventID, f.Kind, f.Label, f.Required, f.Options, f.MinLength, f.MaxLength, f.Pattern, f.Position,
	)
	if err != nil {
		return fmt.Errorf("insert form field: %w", err)
	}
	return nil
}

// ListFields returns an event's form schema in display order.
func (r *FormRepository) ListFields(ctx context.Context, eventID string) ([]model.FormField, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, kind, label, required, options, min_length, max_length, pattern, sort_order
		 FROM form_fields WHERE event_id = $1 ORDER BY sort_order ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	defer rows.Close()

	var fields []model.FormField
	for rows.Next() {
		var f model.FormField
		if err := rows.Scan(
			&f.ID, &f.EventID, &f.Kind, &f.Label, &f.Required,
			&f.Options, &f.MinLength, &f.MaxLength, &f.Pattern, &f.Position,
		); err != nil {
			return nil, fmt.Errorf("scan form field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// SaveResponses upserts a registration's form responses in one transaction.
func (r *FormRepository) SaveResponses(ctx context.Context, registrationID string, responses map[string]string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		for fieldID, value := range responses {
			if _, err := tx.Exec(ctx,
				`INSERT INTO form_responses (registration_id, field_id, value)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (registration_id, field_id) DO UPDATE SET value = EXCLUDED.value`,
				registrationID, fieldID, value,
			); err != nil {
				return fmt.Errorf("save form response: %w", err)
			}
		}
		return nil
	})
}

// ListResponses returns a registration's saved responses keyed by field id.
func (r *FormRepository) ListResponses(ctx context.Context, registrationID string) (map[string]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT field_id, value FROM form_responses WHERE registration_id = $1`,
		registrationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list form responses: %w", err)
	}
	defer rows.Close()

	responses := make(map[string]string)
	for rows.Next() {
		var fieldID, value string
		if err := rows.Scan(&fieldID, &value); err != nil {
			return nil, fmt.Errorf("scan form response: %w", err)
		}
		responses[fieldID] = value
	}
	return responses, rows.Err()
}
