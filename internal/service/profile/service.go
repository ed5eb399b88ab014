// Package profile is the membership-record half of the membership directory.
package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type Servicer interface {
	GetProfile(ctx context.Context, targetUserID uuid.UUID, actor authz.Actor) (*model.Profile, error)
	SetRole(ctx context.Context, targetUserID uuid.UUID, role model.Role, actor authz.Actor) (*model.Profile, error)
	SetActive(ctx context.Context, targetUserID uuid.UUID, active bool, actor authz.Actor) (*model.Profile, error)
	UpdateOwnProfile(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch, actor authz.Actor) (*model.Profile, error)
}

type Service struct {
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

func NewService(profileRepo repository.ProfileRepository, logger zerolog.Logger) *Service {
	return &Service{profileRepo: profileRepo, logger: logger}
}

func (s *Service) GetProfile(ctx context.Context, targetUserID uuid.UUID, actor authz.Actor) (*model.Profile, error) {
	if d := authz.Authorize(actor, authz.ActionReadOwnProfile, authz.Resource{OwnerID: &targetUserID}); d.Allowed {
		return s.profileRepo.Get(ctx, targetUserID)
	}

	target, err := s.profileRepo.Get(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.OrganizationID == nil {
		// Unaffiliated profiles are visible to nobody but their owner;
		// NotFound avoids confirming the user exists.
		return nil, apperrors.NotFound("profile")
	}
	if d := authz.Authorize(actor, authz.ActionReadMemberProfile, authz.Resource{OrganizationID: *target.OrganizationID}); !d.Allowed {
		s.denied(actor, "profile.read", targetUserID, d.Reason)
		return nil, apperrors.NotFound("profile")
	}
	return target, nil
}

// SetRole changes a member's role. Admin-of-the-target's-organization only; a
// non-admin can never change their own role because the same-org admin check
// applies to self-targeting calls too.
func (s *Service) SetRole(ctx context.Context, targetUserID uuid.UUID, role model.Role, actor authz.Actor) (*model.Profile, error) {
	if !model.ValidRole(role) {
		return nil, apperrors.InvalidArgument("role must be one of admin, doctor, nurse")
	}

	target, err := s.profileRepo.Get(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(actor, "profile.set_role", target); err != nil {
		return nil, err
	}

	return s.profileRepo.UpdateRole(ctx, targetUserID, role)
}

// SetActive toggles the admin-controlled deactivation switch. It never alters
// the target's organization assignment.
func (s *Service) SetActive(ctx context.Context, targetUserID uuid.UUID, active bool, actor authz.Actor) (*model.Profile, error) {
	target, err := s.profileRepo.Get(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(actor, "profile.set_active", target); err != nil {
		return nil, err
	}

	return s.profileRepo.SetActive(ctx, targetUserID, active)
}

// UpdateOwnProfile changes personal fields only. Requests carrying membership
// fields are rejected wholesale by the handler before they reach this point;
// the patch type itself cannot represent them.
func (s *Service) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch, actor authz.Actor) (*model.Profile, error) {
	if d := authz.Authorize(actor, authz.ActionUpdateOwnProfile, authz.Resource{OwnerID: &userID}); !d.Allowed {
		s.denied(actor, "profile.update_own", userID, d.Reason)
		return nil, apperrors.Forbidden()
	}
	return s.profileRepo.UpdatePersonal(ctx, userID, patch)
}

// requireManage enforces the admin-of-same-organization rule for mutations of
// another member's record.
func (s *Service) requireManage(actor authz.Actor, op string, target *model.Profile) error {
	if target.OrganizationID == nil {
		s.denied(actor, op, target.UserID, authz.ReasonCrossOrg)
		return apperrors.Forbidden()
	}
	if d := authz.Authorize(actor, authz.ActionManageMember, authz.Resource{OrganizationID: *target.OrganizationID}); !d.Allowed {
		s.denied(actor, op, target.UserID, d.Reason)
		return apperrors.Forbidden()
	}
	return nil
}

func (s *Service) denied(actor authz.Actor, op string, targetID uuid.UUID, reason authz.DenyReason) {
	s.logger.Warn().
		Str("op", op).
		Str("actor_id", actor.UserID.String()).
		Str("target_id", targetID.String()).
		Str("reason", string(reason)).
		Msg("authorization denied")
}
