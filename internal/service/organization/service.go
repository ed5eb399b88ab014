// Package organization is the organization half of the membership directory.
package organization

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

// Organization reads tolerate brief staleness, so lookups go through a
// short-lived in-process cache. Writes invalidate.
const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

type Servicer interface {
	GetOrganization(ctx context.Context, id uuid.UUID, actor authz.Actor) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, patch *model.OrganizationPatch, actor authz.Actor) (*model.Organization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID, actor authz.Actor) ([]*model.Profile, error)
}

type Service struct {
	orgRepo     repository.OrganizationRepository
	profileRepo repository.ProfileRepository
	cache       *gocache.Cache
	logger      zerolog.Logger
}

func NewService(orgRepo repository.OrganizationRepository, profileRepo repository.ProfileRepository, logger zerolog.Logger) *Service {
	return &Service{
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		cache:       gocache.New(cacheTTL, cacheCleanup),
		logger:      logger,
	}
}

// GetOrganization returns the full record for approved members of the
// organization and the public view for everyone else.
func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID, actor authz.Actor) (*model.Organization, error) {
	org, err := s.getCached(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := authz.Authorize(actor, authz.ActionReadOrganizationSensitive, authz.Resource{OrganizationID: id}); !d.Allowed {
		return org.PublicView(), nil
	}
	return org, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, id uuid.UUID, patch *model.OrganizationPatch, actor authz.Actor) (*model.Organization, error) {
	if d := authz.Authorize(actor, authz.ActionUpdateOrganization, authz.Resource{OrganizationID: id}); !d.Allowed {
		s.denied(actor, "organization.update", id, d.Reason)
		return nil, apperrors.Forbidden()
	}

	org, err := s.orgRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := model.NormalizeOrganizationName(*patch.Name)
		if !model.ValidOrganizationName(name) {
			return nil, apperrors.InvalidArgument("organization name must be non-empty and at most 100 characters")
		}
		org.Name = name
	}
	if patch.IsActive != nil {
		org.IsActive = *patch.IsActive
	}
	if patch.Address != nil {
		org.Address = *patch.Address
	}
	if patch.Phone != nil {
		org.Phone = *patch.Phone
	}
	if patch.BillingEmail != nil {
		org.BillingEmail = *patch.BillingEmail
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return org, nil
}

func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, actor authz.Actor) ([]*model.Profile, error) {
	if d := authz.Authorize(actor, authz.ActionReadMemberProfile, authz.Resource{OrganizationID: orgID}); !d.Allowed {
		s.denied(actor, "organization.list_members", orgID, d.Reason)
		return nil, apperrors.Forbidden()
	}
	return s.profileRepo.ListByOrganization(ctx, orgID)
}

func (s *Service) getCached(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	if v, ok := s.cache.Get(id.String()); ok {
		return v.(*model.Organization), nil
	}
	org, err := s.orgRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), org, gocache.DefaultExpiration)
	return org, nil
}

// denied logs the internal reason; the caller only ever sees Forbidden.
func (s *Service) denied(actor authz.Actor, op string, orgID uuid.UUID, reason authz.DenyReason) {
	s.logger.Warn().
		Str("op", op).
		Str("actor_id", actor.UserID.String()).
		Str("organization_id", orgID.String()).
		Str("reason", string(reason)).
		Msg("authorization denied")
}
