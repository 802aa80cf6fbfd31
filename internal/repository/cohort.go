package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"eventledger/internal/model"
)

// CohortRepository is the default, table-backed implementation of the cohort
// membership and authorization provider. Deployments that source membership
// from an external system supply their own service.CohortProvider instead.
type CohortRepository struct {
	db *pgxpool.Pool
}

// NewCohortRepository constructs a CohortRepository.
func NewCohortRepository(db *pgxpool.Pool) *CohortRepository {
	return &CohortRepository{db: db}
}

// ActiveMembers returns the active members of a cohort.
func (r *CohortRepository) ActiveMembers(ctx context.Context, cohortID string) ([]model.CohortMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, email FROM cohort_members
		 WHERE cohort_id = $1 AND active ORDER BY user_id ASC`,
		cohortID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cohort members: %w", err)
	}
	defer rows.Close()

	var members []model.CohortMember
	for rows.Next() {
		var m model.CohortMember
		if err := rows.Scan(&m.UserID, &m.Email); err != nil {
			return nil, fmt.Errorf("scan cohort member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsAdministrator reports whether the user is an active administrator of the
// cohort.
func (r *CohortRepository) IsAdministrator(ctx context.Context, userID, cohortID string) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(bool_or(is_admin), FALSE) FROM cohort_members
		 WHERE user_id = $1 AND cohort_id = $2 AND active`,
		userID, cohortID,
	).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("check cohort administrator: %w", err)
	}
	return isAdmin, nil
}

// CohortOf returns the cohort a user is actively assigned to, or an empty
// string when they have none. Users belong to cohorts by explicit assignment.
func (r *CohortRepository) CohortOf(ctx context.Context, userID string) (string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cohort_id FROM cohort_members WHERE user_id = $1 AND active LIMIT 1`,
		userID,
	)
	if err != nil {
		return "", fmt.Errorf("lookup user cohort: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var cohortID string
		if err := rows.Scan(&cohortID); err != nil {
			return "", fmt.Errorf("scan user cohort: %w", err)
		}
		return cohortID, nil
	}
	return "", rows.Err()
}
