package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    start_at TIMESTAMPTZ NOT NULL,
    capacity INTEGER,
    confirmed_count INTEGER NOT NULL DEFAULT 0,
    registration_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
    guest_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
    registration_opens_at TIMESTAMPTZ,
    registration_closes_at TIMESTAMPTZ,
    has_registration BOOLEAN NOT NULL DEFAULT TRUE,
    has_external_link BOOLEAN NOT NULL DEFAULT FALSE,
    has_guests BOOLEAN NOT NULL DEFAULT FALSE,
    has_merchandise BOOLEAN NOT NULL DEFAULT FALSE,
    allow_form_modification BOOLEAN NOT NULL DEFAULT TRUE,
    modification_deadline_hours INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);`

const createRegistrationsTableSQL = `
CREATE TABLE IF NOT EXISTS registrations (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    payment_status TEXT NOT NULL,
    mode TEXT NOT NULL,
    registration_fee_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
    guest_fees_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
    merchandise_total NUMERIC(12,2) NOT NULL DEFAULT 0,
    donation_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
    total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
    total_guests INTEGER NOT NULL DEFAULT 0,
    active_guests INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT registrations_event_user_key UNIQUE (event_id, user_id)
);`

const createGuestsTableSQL = `
CREATE TABLE IF NOT EXISTS guests (
    id UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations(id),
    name TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    fee_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL
);`

const createMerchandiseTableSQL = `
CREATE TABLE IF NOT EXISTS merchandise_items (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    name TEXT NOT NULL,
    price NUMERIC(12,2) NOT NULL DEFAULT 0,
    stock INTEGER CHECK (stock >= 0),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    sizes TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL
);`

const createCartOrdersTableSQL = `
CREATE TABLE IF NOT EXISTS cart_orders (
    id UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations(id),
    item_id UUID NOT NULL REFERENCES merchandise_items(id),
    size TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL,
    line_total NUMERIC(12,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);`

const createFormFieldsTableSQL = `
CREATE TABLE IF NOT EXISTS form_fields (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    kind TEXT NOT NULL,
    label TEXT NOT NULL,
    required BOOLEAN NOT NULL DEFAULT FALSE,
    options TEXT[] NOT NULL DEFAULT '{}',
    min_length INTEGER,
    max_length INTEGER,
    pattern TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0
);`

const createFormResponsesTableSQL = `
CREATE TABLE IF NOT EXISTS form_responses (
    registration_id UUID NOT NULL REFERENCES registrations(id),
    field_id UUID NOT NULL REFERENCES form_fields(id),
    value TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (registration_id, field_id)
);`

const createCohortMembersTableSQL = `
CREATE TABLE IF NOT EXISTS cohort_members (
    user_id TEXT NOT NULL,
    cohort_id TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (user_id, cohort_id)
);`

const createBatchCollectionsTableSQL = `
CREATE TABLE IF NOT EXISTS batch_collections (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    cohort_id TEXT NOT NULL,
    target_amount NUMERIC(12,2) NOT NULL,
    collected_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
    target_met BOOLEAN NOT NULL DEFAULT FALSE,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT batch_collections_event_cohort_key UNIQUE (event_id, cohort_id)
);`

const createBatchPaymentsTableSQL = `
CREATE TABLE IF NOT EXISTS batch_admin_payments (
    id UUID PRIMARY KEY,
    collection_id UUID NOT NULL REFERENCES batch_collections(id),
    payer_id TEXT NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    transaction_ref TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);`

// Migrate executes all schema bootstrap statements in dependency order. Every
// statement is idempotent, so running it on startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"events", createEventsTableSQL},
		{"registrations", createRegistrationsTableSQL},
		{"guests", createGuestsTableSQL},
		{"merchandise_items", createMerchandiseTableSQL},
		{"cart_orders", createCartOrdersTableSQL},
		{"form_fields", createFormFieldsTableSQL},
		{"form_responses", createFormResponsesTableSQL},
		{"cohort_members", createCohortMembersTableSQL},
		{"batch_collections", createBatchCollectionsTableSQL},
		{"batch_admin_payments", createBatchPaymentsTableSQL},
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", stmt.name, err)
		}
	}
	return nil
}
