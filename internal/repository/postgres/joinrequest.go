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

type joinRequestRepository struct {
	BaseRepository
}

func NewJoinRequestRepository(base BaseRepository) repository.JoinRequestRepository {
	return &joinRequestRepository{base}
}

const joinRequestColumns = `
	id, user_id, organization_id, requested_role, status,
	reviewer_id, reviewed_at, created_at
`

func (r *joinRequestRepository) Create(ctx context.Context, req *model.JoinRequest) error {
	query := `
		INSERT INTO join_requests (
			id, user_id, organization_id, requested_role, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	req.ID = uuid.New()
	req.Status = model.JoinRequestPending
	req.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.UserID,
		req.OrganizationID,
		req.RequestedRole,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		if violatedConstraint(err) == constraintPendingRequest {
			return apperrors.Conflict("a pending request for this organization already exists")
		}
		return storageErr("insert join request", err)
	}
	return nil
}

func (r *joinRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = $1`

	var req model.JoinRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("join request")
		}
		return nil, storageErr("get join request", err)
	}
	return &req, nil
}

func (r *joinRequestRepository) ListPending(ctx context.Context, orgID uuid.UUID) ([]*model.JoinRequest, error) {
	query := `
		SELECT ` + joinRequestColumns + `
		FROM join_requests
		WHERE organization_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	var reqs []*model.JoinRequest
	if err := r.db.SelectContext(ctx, &reqs, query, orgID, model.JoinRequestPending); err != nil {
		return nil, storageErr("list pending join requests", err)
	}
	return reqs, nil
}

// Approve resolves the request and assigns the requester's membership as one
// atomic pair. The row is re-read under FOR UPDATE so that of two concurrent
// resolutions exactly one sees pending; the loser gets AlreadyProcessed and
// the profile write is applied exactly once.
func (r *joinRequestRepository) Approve(ctx context.Context, id, reviewerID uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockPending(ctx, tx, id, &req); err != nil {
			return err
		}

		now := time.Now()
		req.Status = model.JoinRequestApproved
		req.ReviewerID = &reviewerID
		req.ReviewedAt = &now

		resolve := `
			UPDATE join_requests
			SET status = $1, reviewer_id = $2, reviewed_at = $3
			WHERE id = $4
		`
		if _, err := tx.ExecContext(ctx, resolve, req.Status, reviewerID, now, id); err != nil {
			return storageErr("resolve join request", err)
		}

		assign := `
			UPDATE profiles
			SET organization_id = $1, role = $2, approval_status = $3, updated_at = $4
			WHERE user_id = $5
		`
		res, err := tx.ExecContext(ctx, assign,
			req.OrganizationID,
			req.RequestedRole,
			model.ApprovalApproved,
			now,
			req.UserID,
		)
		if err != nil {
			return storageErr("assign membership", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return storageErr("assign membership", err)
		}
		if rows == 0 {
			return apperrors.NotFound("requester profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Reject resolves the request and touches nothing else: the requester's
// profile stays exactly as it was, leaving them free to apply again.
func (r *joinRequestRepository) Reject(ctx context.Context, id, reviewerID uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockPending(ctx, tx, id, &req); err != nil {
			return err
		}

		now := time.Now()
		req.Status = model.JoinRequestRejected
		req.ReviewerID = &reviewerID
		req.ReviewedAt = &now

		resolve := `
			UPDATE join_requests
			SET status = $1, reviewer_id = $2, reviewed_at = $3
			WHERE id = $4
		`
		if _, err := tx.ExecContext(ctx, resolve, req.Status, reviewerID, now, id); err != nil {
			return storageErr("resolve join request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// lockPending loads the request under FOR UPDATE and fails with
// AlreadyProcessed if it is no longer pending.
func (r *joinRequestRepository) lockPending(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, req *model.JoinRequest) error {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = $1 FOR UPDATE`

	if err := tx.GetContext(ctx, req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("join request")
		}
		return storageErr("lock join request", err)
	}
	if req.Terminal() {
		return apperrors.AlreadyProcessed()
	}
	return nil
}
