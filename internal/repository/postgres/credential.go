package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type credentialRepository struct {
	BaseRepository
}

func NewCredentialRepository(base BaseRepository) repository.CredentialRepository {
	return &credentialRepository{base}
}

// CreateWithProfile inserts the credential and the initial pending profile in
// one transaction, so a signup never leaves a credential without a profile.
func (r *credentialRepository) CreateWithProfile(ctx context.Context, cred *model.Credential, profile *model.Profile) error {
	insertCred := `
		INSERT INTO credentials (user_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	insertProfile := `
		INSERT INTO profiles (
			user_id, email, full_name, phone, approval_status,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	profile.ApprovalStatus = model.ApprovalPending
	profile.IsActive = true
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insertCred,
			cred.UserID,
			cred.Email,
			cred.PasswordHash,
			cred.CreatedAt,
			cred.UpdatedAt,
		)
		if err != nil {
			if violatedConstraint(err) == constraintCredentialMail {
				return apperrors.Conflict("email already registered")
			}
			return storageErr("insert credential", err)
		}

		_, err = tx.ExecContext(ctx, insertProfile,
			profile.UserID,
			profile.Email,
			profile.FullName,
			profile.Phone,
			profile.ApprovalStatus,
			profile.IsActive,
			profile.CreatedAt,
			profile.UpdatedAt,
		)
		if err != nil {
			return storageErr("insert profile", err)
		}
		return nil
	})
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	query := `
		SELECT user_id, email, password_hash, created_at, updated_at
		FROM credentials
		WHERE email = $1
	`
	var cred model.Credential
	if err := r.db.GetContext(ctx, &cred, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("credential")
		}
		return nil, storageErr("get credential", err)
	}
	return &cred, nil
}
