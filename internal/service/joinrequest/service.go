// Package joinrequest is the ledger of membership intent: pending requests
// and their single, admin-driven resolution.
package joinrequest

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/internal/service/event"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type Servicer interface {
	CreateJoinRequest(ctx context.Context, orgID uuid.UUID, role model.Role, actor authz.Actor) (*model.JoinRequest, error)
	ListPending(ctx context.Context, orgID uuid.UUID, actor authz.Actor) ([]*model.JoinRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, actor authz.Actor) (*model.JoinRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, actor authz.Actor) (*model.JoinRequest, error)
}

type Service struct {
	requestRepo repository.JoinRequestRepository
	orgRepo     repository.OrganizationRepository
	events      event.Emitter
	logger      zerolog.Logger
}

func NewService(requestRepo repository.JoinRequestRepository, orgRepo repository.OrganizationRepository,
	events event.Emitter, logger zerolog.Logger) *Service {
	return &Service{
		requestRepo: requestRepo,
		orgRepo:     orgRepo,
		events:      events,
		logger:      logger,
	}
}

// CreateJoinRequest records membership intent. The (user, organization)
// pending-uniqueness lives in storage; an approved membership blocks new
// requests until it is retired through an explicit workflow.
func (s *Service) CreateJoinRequest(ctx context.Context, orgID uuid.UUID, role model.Role, actor authz.Actor) (*model.JoinRequest, error) {
	if !model.ValidRole(role) {
		return nil, apperrors.InvalidArgument("role must be one of admin, doctor, nurse")
	}
	if actor.ApprovalStatus == model.ApprovalApproved {
		return nil, apperrors.Conflict("user already belongs to an organization")
	}

	org, err := s.orgRepo.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, apperrors.Conflict("organization is not accepting members")
	}

	req := &model.JoinRequest{
		UserID:         actor.UserID,
		OrganizationID: orgID,
		RequestedRole:  role,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventJoinRequestCreated, map[string]interface{}{
		"request_id":      req.ID,
		"user_id":         req.UserID,
		"organization_id": req.OrganizationID,
	})
	return req, nil
}

func (s *Service) ListPending(ctx context.Context, orgID uuid.UUID, actor authz.Actor) ([]*model.JoinRequest, error) {
	if d := authz.Authorize(actor, authz.ActionResolveJoinRequest, authz.Resource{OrganizationID: orgID}); !d.Allowed {
		s.denied(actor, "join_request.list", orgID, d.Reason)
		return nil, apperrors.Forbidden()
	}
	return s.requestRepo.ListPending(ctx, orgID)
}

// Approve resolves a pending request and assigns the requester's membership.
// Preconditions are checked in order: existence, pending status (re-checked
// under lock in the repository), then same-organization admin.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, actor authz.Actor) (*model.JoinRequest, error) {
	req, err := s.requestRepo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return nil, apperrors.AlreadyProcessed()
	}
	if d := authz.Authorize(actor, authz.ActionResolveJoinRequest, authz.Resource{OrganizationID: req.OrganizationID}); !d.Allowed {
		// The log distinguishes not-admin from admin-of-another-org;
		// the client-facing error does not.
		s.denied(actor, "join_request.approve", req.OrganizationID, d.Reason)
		return nil, apperrors.Forbidden()
	}

	resolved, err := s.requestRepo.Approve(ctx, requestID, actor.UserID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventJoinRequestApproved, map[string]interface{}{
		"request_id":      resolved.ID,
		"user_id":         resolved.UserID,
		"organization_id": resolved.OrganizationID,
		"role":            resolved.RequestedRole,
		"reviewer_id":     actor.UserID,
	})
	return resolved, nil
}

// Reject resolves the request without touching the requester's profile, so
// they remain free to apply again, to this organization or another.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, actor authz.Actor) (*model.JoinRequest, error) {
	req, err := s.requestRepo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return nil, apperrors.AlreadyProcessed()
	}
	if d := authz.Authorize(actor, authz.ActionResolveJoinRequest, authz.Resource{OrganizationID: req.OrganizationID}); !d.Allowed {
		s.denied(actor, "join_request.reject", req.OrganizationID, d.Reason)
		return nil, apperrors.Forbidden()
	}

	resolved, err := s.requestRepo.Reject(ctx, requestID, actor.UserID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventJoinRequestRejected, map[string]interface{}{
		"request_id":      resolved.ID,
		"user_id":         resolved.UserID,
		"organization_id": resolved.OrganizationID,
		"reviewer_id":     actor.UserID,
	})
	return resolved, nil
}

func (s *Service) denied(actor authz.Actor, op string, orgID uuid.UUID, reason authz.DenyReason) {
	s.logger.Warn().
		Str("op", op).
		Str("actor_id", actor.UserID.String()).
		Str("organization_id", orgID.String()).
		Str("reason", string(reason)).
		Msg("authorization denied")
}
