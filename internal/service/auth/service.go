// Package auth adapts the identity store: it owns credentials and turns a
// successful authentication into a stable user id. Membership decisions live
// elsewhere; this package only refuses logins that must not proceed at all
// (bad credentials, deactivated profile, deactivated organization).
package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/pkg/auth"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

const bcryptCost = 12

type Servicer interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
}

type Service struct {
	credRepo    repository.CredentialRepository
	profileRepo repository.ProfileRepository
	orgRepo     repository.OrganizationRepository
	jwtSvc      auth.JWTService
	logger      zerolog.Logger
}

func NewService(credRepo repository.CredentialRepository, profileRepo repository.ProfileRepository,
	orgRepo repository.OrganizationRepository, jwtSvc auth.JWTService, logger zerolog.Logger) *Service {
	return &Service{
		credRepo:    credRepo,
		profileRepo: profileRepo,
		orgRepo:     orgRepo,
		jwtSvc:      jwtSvc,
		logger:      logger,
	}
}

// Signup creates the credential and the initial pending profile (no
// organization, no role) in one transaction, then issues a token.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}

	userID := uuid.New()
	cred := &model.Credential{
		UserID:       userID,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	profile := &model.Profile{
		UserID:   userID,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
	}
	if err := s.credRepo.CreateWithProfile(ctx, cred, profile); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("user signed up")
	return s.issueToken(userID)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	cred, err := s.credRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, apperrors.InvalidArgument("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.InvalidArgument("invalid credentials")
	}

	profile, err := s.profileRepo.Get(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, apperrors.Forbidden()
	}
	if profile.OrganizationID != nil {
		org, err := s.orgRepo.Get(ctx, *profile.OrganizationID)
		if err != nil {
			return nil, err
		}
		// Organization deactivation blocks member login; the data stays.
		if !org.IsActive {
			return nil, apperrors.Forbidden()
		}
	}

	return s.issueToken(cred.UserID)
}

func (s *Service) issueToken(userID uuid.UUID) (*model.TokenResponse, error) {
	token, expiresAt, err := s.jwtSvc.Generate(userID)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      userID,
	}, nil
}
