// Package repository implements all database access for the commerce engine.
// It uses pgx directly (no ORM) for transparency over transaction boundaries:
// every multi-row write runs inside a single transaction, and read-modify-write
// sequences serialise on row locks (SELECT ... FOR UPDATE) rather than relying
// on read-then-write checks.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// uniqueViolation is the PostgreSQL error code raised when a uniqueness
// constraint rejects an insert. The schema's unique indexes on
// (event_id, user_id) and (event_id, cohort_id) are the last line of defence
// against duplicate rows under concurrency.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// scanDecimal parses a NUMERIC column selected as text.
func scanDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad numeric %q", model.ErrConsistency, s)
	}
	return d, nil
}
