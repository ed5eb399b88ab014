package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

const profileColumns = `
	user_id, email, full_name, phone, organization_id, role,
	approval_status, is_active, created_at, updated_at
`

func (r *profileRepository) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var p model.Profile
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("profile")
		}
		return nil, storageErr("get profile", err)
	}
	return &p, nil
}

// UpdateRole changes only the role column. organization_id is deliberately
// absent from the statement: no code path through this repository can move a
// profile between organizations.
func (r *profileRepository) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET role = $1, updated_at = $2
		WHERE user_id = $3
		RETURNING ` + profileColumns

	var p model.Profile
	if err := r.db.GetContext(ctx, &p, query, role, time.Now(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("profile")
		}
		return nil, storageErr("update profile role", err)
	}
	return &p, nil
}

func (r *profileRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET is_active = $1, updated_at = $2
		WHERE user_id = $3
		RETURNING ` + profileColumns

	var p model.Profile
	if err := r.db.GetContext(ctx, &p, query, active, time.Now(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("profile")
		}
		return nil, storageErr("set profile active", err)
	}
	return &p, nil
}

// UpdatePersonal writes the personal fields only. Nil patch fields keep their
// current value.
func (r *profileRepository) UpdatePersonal(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = COALESCE($1, full_name),
		    phone = COALESCE($2, phone),
		    updated_at = $3
		WHERE user_id = $4
		RETURNING ` + profileColumns

	var p model.Profile
	if err := r.db.GetContext(ctx, &p, query, patch.FullName, patch.Phone, time.Now(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("profile")
		}
		return nil, storageErr("update profile", err)
	}
	return &p, nil
}

func (r *profileRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE organization_id = $1 AND approval_status = $2
		ORDER BY full_name ASC
	`
	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, orgID, model.ApprovalApproved); err != nil {
		return nil, storageErr("list profiles", err)
	}
	return profiles, nil
}
