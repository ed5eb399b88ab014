package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinovia/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// OrganizationRepository owns the organization rows and the
	// registration transaction. Name uniqueness among active organizations
	// is enforced by the storage layer, not by callers.
	OrganizationRepository interface {
		// CreateWithFounder inserts the organization and promotes the
		// founder's profile to approved admin in one transaction. Either
		// both happen or neither.
		CreateWithFounder(ctx context.Context, org *model.Organization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
		GetActiveByName(ctx context.Context, name string) (*model.Organization, error)
		Update(ctx context.Context, org *model.Organization) error
	}

	ProfileRepository interface {
		Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
		// UpdateRole and SetActive touch only the named column; they can
		// never move a profile between organizations.
		UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.Profile, error)
		SetActive(ctx context.Context, userID uuid.UUID, active bool) (*model.Profile, error)
		UpdatePersonal(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch) (*model.Profile, error)
		ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Profile, error)
	}

	// JoinRequestRepository is the ledger. Approve and Reject re-check the
	// pending status under a row lock inside their own transaction, so a
	// lost resolution race surfaces as AlreadyProcessed and never re-applies
	// the profile write.
	JoinRequestRepository interface {
		Create(ctx context.Context, req *model.JoinRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error)
		ListPending(ctx context.Context, orgID uuid.UUID) ([]*model.JoinRequest, error)
		Approve(ctx context.Context, id, reviewerID uuid.UUID) (*model.JoinRequest, error)
		Reject(ctx context.Context, id, reviewerID uuid.UUID) (*model.JoinRequest, error)
	}

	// CredentialRepository backs the identity store adapter.
	CredentialRepository interface {
		// CreateWithProfile inserts the credential and the initial pending
		// profile in one transaction.
		CreateWithProfile(ctx context.Context, cred *model.Credential, profile *model.Profile) error
		GetByEmail(ctx context.Context, email string) (*model.Credential, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
