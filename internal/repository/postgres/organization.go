package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

// CreateWithFounder is the registration transaction: insert the organization,
// then promote the founder's profile to approved admin. If the founder has no
// profile row the whole transaction rolls back, so an organization can never
// exist without a responsible admin. A name collision, whether caught here or
// by a concurrent writer, surfaces as DuplicateName.
func (r *organizationRepository) CreateWithFounder(ctx context.Context, org *model.Organization) error {
	insertOrg := `
		INSERT INTO organizations (
			id, name, is_active, created_by, address, phone,
			billing_email, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	promoteFounder := `
		UPDATE profiles
		SET organization_id = $1, role = $2, approval_status = $3, updated_at = $4
		WHERE user_id = $5 AND approval_status <> $3
	`

	org.ID = uuid.New()
	org.IsActive = true
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insertOrg,
			org.ID,
			org.Name,
			org.IsActive,
			org.CreatedBy,
			org.Address,
			org.Phone,
			org.BillingEmail,
			org.CreatedAt,
			org.UpdatedAt,
		)
		if err != nil {
			if violatedConstraint(err) == constraintActiveOrgName {
				return apperrors.DuplicateName(org.Name)
			}
			return storageErr("insert organization", err)
		}

		res, err := tx.ExecContext(ctx, promoteFounder,
			org.ID,
			model.RoleAdmin,
			model.ApprovalApproved,
			org.UpdatedAt,
			org.CreatedBy,
		)
		if err != nil {
			return storageErr("promote founder", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return storageErr("promote founder", err)
		}
		if rows == 0 {
			// Either the founder has no profile row or a concurrent
			// approval already bound them to an organization. Both
			// roll back the organization insert.
			return apperrors.Conflict("founder profile missing or already assigned to an organization")
		}
		return nil
	})
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, name, is_active, created_by, address, phone,
		       billing_email, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("organization")
		}
		return nil, storageErr("get organization", err)
	}
	return &org, nil
}

// GetActiveByName is the friendly pre-check for registration. The partial
// unique index remains the source of truth under concurrency.
func (r *organizationRepository) GetActiveByName(ctx context.Context, name string) (*model.Organization, error) {
	query := `
		SELECT id, name, is_active, created_by, address, phone,
		       billing_email, created_at, updated_at
		FROM organizations
		WHERE name = $1 AND is_active = true
	`
	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("organization")
		}
		return nil, storageErr("get organization by name", err)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, is_active = $2, address = $3, phone = $4,
		    billing_email = $5, updated_at = $6
		WHERE id = $7
	`
	org.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		org.Name,
		org.IsActive,
		org.Address,
		org.Phone,
		org.BillingEmail,
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		if violatedConstraint(err) == constraintActiveOrgName {
			return apperrors.DuplicateName(org.Name)
		}
		return storageErr("update organization", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr("update organization", err)
	}
	if rows == 0 {
		return apperrors.NotFound("organization")
	}
	return nil
}
