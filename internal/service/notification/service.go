// Package notification consumes the domain events published by the outbox
// processor and sends the matching user-facing emails. It runs outside the
// core transaction path: a failed email never affects membership state.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/email"
	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/pkg/messaging"
)

type Service struct {
	profileRepo repository.ProfileRepository
	orgRepo     repository.OrganizationRepository
	emailSvc    email.Service
	logger      zerolog.Logger
}

func NewService(profileRepo repository.ProfileRepository, orgRepo repository.OrganizationRepository,
	emailSvc email.Service, logger zerolog.Logger) *Service {
	return &Service{
		profileRepo: profileRepo,
		orgRepo:     orgRepo,
		emailSvc:    emailSvc,
		logger:      logger,
	}
}

type eventPayload struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatedBy      uuid.UUID `json:"created_by"`
	Name           string    `json:"name"`
}

// HandleMessage dispatches one broker message. Unknown event types are
// ignored so new producers can roll out ahead of this consumer.
func (s *Service) HandleMessage(ctx context.Context, raw []byte) error {
	var msg messaging.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode payload: %w", err)
	}
	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	switch msg.Type {
	case model.EventOrganizationCreated:
		return s.notify(ctx, payload.CreatedBy, payload.Name, s.emailSvc.SendOrganizationWelcome)
	case model.EventJoinRequestApproved:
		return s.notifyWithOrg(ctx, payload, s.emailSvc.SendJoinApproved)
	case model.EventJoinRequestRejected:
		return s.notifyWithOrg(ctx, payload, s.emailSvc.SendJoinRejected)
	default:
		s.logger.Debug().Str("event_type", msg.Type).Msg("ignoring event")
		return nil
	}
}

func (s *Service) notifyWithOrg(ctx context.Context, payload eventPayload,
	send func(ctx context.Context, to, orgName string) error) error {
	org, err := s.orgRepo.Get(ctx, payload.OrganizationID)
	if err != nil {
		return err
	}
	return s.notify(ctx, payload.UserID, org.Name, send)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, orgName string,
	send func(ctx context.Context, to, orgName string) error) error {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := send(ctx, profile.Email, orgName); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Msg("failed to send notification email")
		return err
	}
	return nil
}
