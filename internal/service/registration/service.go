// Package registration implements the one workflow that must appear
// indivisible to any observer: create an organization and make its founder
// the approved admin.
package registration

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/internal/service/event"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	BillingEmail string `json:"billing_email"`
}

type Servicer interface {
	RegisterNewOrganization(ctx context.Context, founderID uuid.UUID, req *RegisterRequest) (*model.Organization, error)
}

type Service struct {
	orgRepo     repository.OrganizationRepository
	profileRepo repository.ProfileRepository
	events      event.Emitter
	logger      zerolog.Logger
}

func NewService(orgRepo repository.OrganizationRepository, profileRepo repository.ProfileRepository,
	events event.Emitter, logger zerolog.Logger) *Service {
	return &Service{
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		events:      events,
		logger:      logger,
	}
}

// RegisterNewOrganization validates the name, pre-checks it for a friendly
// DuplicateName, then runs the atomic insert-organization + promote-founder
// transaction. The storage unique index is the source of truth: losing a
// concurrent race on the same name surfaces as the same DuplicateName as the
// pre-check, with nothing partially applied.
func (s *Service) RegisterNewOrganization(ctx context.Context, founderID uuid.UUID, req *RegisterRequest) (*model.Organization, error) {
	name := model.NormalizeOrganizationName(req.Name)
	if !model.ValidOrganizationName(name) {
		return nil, apperrors.InvalidArgument("organization name must be non-empty and at most 100 characters")
	}

	founder, err := s.profileRepo.Get(ctx, founderID)
	if err != nil {
		return nil, err
	}
	if founder.ApprovalStatus == model.ApprovalApproved {
		return nil, apperrors.Conflict("user already belongs to an organization")
	}

	if _, err := s.orgRepo.GetActiveByName(ctx, name); err == nil {
		return nil, apperrors.DuplicateName(name)
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	org := &model.Organization{
		Name:         name,
		CreatedBy:    founderID,
		Address:      req.Address,
		Phone:        req.Phone,
		BillingEmail: req.BillingEmail,
	}
	if err := s.orgRepo.CreateWithFounder(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("organization_id", org.ID.String()).
		Str("founder_id", founderID.String()).
		Msg("organization registered")

	s.events.Emit(ctx, model.EventOrganizationCreated, map[string]interface{}{
		"organization_id": org.ID,
		"name":            org.Name,
		"created_by":      founderID,
	})

	return org, nil
}
