package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

// Constraint names the repositories translate into typed errors. These are
// the only storage-level invariants the core relies on (see migrations).
const (
	constraintActiveOrgName  = "organizations_active_name_key"
	constraintPendingRequest = "join_requests_pending_user_org_key"
	constraintCredentialMail = "credentials_email_key"
)

const uniqueViolation = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Unavailable(err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}

// violatedConstraint returns the name of the unique constraint err violated,
// or "" if err is not a unique violation.
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

// storageErr wraps an unclassified driver error as Unavailable so callers can
// retry with backoff. Typed errors pass through untouched.
func storageErr(op string, err error) error {
	if _, ok := err.(*apperrors.AppError); ok {
		return err
	}
	return apperrors.Unavailable(fmt.Errorf("%s: %w", op, err))
}
