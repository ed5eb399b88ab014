package registration

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/clinic-api/internal/model"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type fakeOrgRepo struct {
	byName     map[string]*model.Organization
	createErr  error
	created    *model.Organization
}

func (f *fakeOrgRepo) CreateWithFounder(ctx context.Context, org *model.Organization) error {
	if f.createErr != nil {
		return f.createErr
	}
	org.ID = uuid.New()
	f.created = org
	return nil
}

func (f *fakeOrgRepo) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return nil, apperrors.NotFound("organization")
}

func (f *fakeOrgRepo) GetActiveByName(ctx context.Context, name string) (*model.Organization, error) {
	if org, ok := f.byName[name]; ok {
		return org, nil
	}
	return nil, apperrors.NotFound("organization")
}

func (f *fakeOrgRepo) Update(ctx context.Context, org *model.Organization) error {
	return nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("profile")
}

func (f *fakeProfileRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.Profile, error) {
	return nil, apperrors.NotFound("profile")
}

func (f *fakeProfileRepo) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*model.Profile, error) {
	return nil, apperrors.NotFound("profile")
}

func (f *fakeProfileRepo) UpdatePersonal(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch) (*model.Profile, error) {
	return nil, apperrors.NotFound("profile")
}

func (f *fakeProfileRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Profile, error) {
	return nil, nil
}

type fakeEmitter struct {
	events []string
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	f.events = append(f.events, eventType)
}

func newTestService(orgRepo *fakeOrgRepo, profileRepo *fakeProfileRepo, emitter *fakeEmitter) *Service {
	return NewService(orgRepo, profileRepo, emitter, zerolog.Nop())
}

func pendingFounder() *model.Profile {
	return &model.Profile{
		UserID:         uuid.New(),
		ApprovalStatus: model.ApprovalPending,
	}
}

func TestRegisterNewOrganization(t *testing.T) {
	founder := pendingFounder()
	orgRepo := &fakeOrgRepo{byName: map[string]*model.Organization{}}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{founder.UserID: founder}}
	emitter := &fakeEmitter{}
	svc := newTestService(orgRepo, profileRepo, emitter)

	org, err := svc.RegisterNewOrganization(context.Background(), founder.UserID, &RegisterRequest{
		Name:    "  Clinic X  ",
		Address: "1 Main St",
	})

	require.NoError(t, err)
	assert.Equal(t, "Clinic X", org.Name, "name should be trimmed")
	assert.Equal(t, founder.UserID, org.CreatedBy)
	assert.NotEqual(t, uuid.Nil, org.ID)
	assert.Equal(t, []string{model.EventOrganizationCreated}, emitter.events)
}

func TestRegisterNewOrganizationInvalidName(t *testing.T) {
	founder := pendingFounder()
	orgRepo := &fakeOrgRepo{byName: map[string]*model.Organization{}}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{founder.UserID: founder}}
	svc := newTestService(orgRepo, profileRepo, &fakeEmitter{})

	for _, name := range []string{"", "   ", strings.Repeat("x", 101)} {
		_, err := svc.RegisterNewOrganization(context.Background(), founder.UserID, &RegisterRequest{Name: name})
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument), "name %q", name)
	}
	assert.Nil(t, orgRepo.created, "nothing should be persisted")
}

func TestRegisterNewOrganizationDuplicateName(t *testing.T) {
	founder := pendingFounder()
	orgRepo := &fakeOrgRepo{byName: map[string]*model.Organization{
		"Clinic X": {ID: uuid.New(), Name: "Clinic X", IsActive: true},
	}}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{founder.UserID: founder}}
	emitter := &fakeEmitter{}
	svc := newTestService(orgRepo, profileRepo, emitter)

	_, err := svc.RegisterNewOrganization(context.Background(), founder.UserID, &RegisterRequest{Name: "Clinic X"})

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateName))
	assert.Empty(t, emitter.events)
}

func TestRegisterNewOrganizationDuplicateNameRace(t *testing.T) {
	// The pre-check passes but the insert loses the unique-index race. The
	// caller sees the same DuplicateName either way.
	founder := pendingFounder()
	orgRepo := &fakeOrgRepo{
		byName:    map[string]*model.Organization{},
		createErr: apperrors.DuplicateName("Clinic X"),
	}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{founder.UserID: founder}}
	emitter := &fakeEmitter{}
	svc := newTestService(orgRepo, profileRepo, emitter)

	_, err := svc.RegisterNewOrganization(context.Background(), founder.UserID, &RegisterRequest{Name: "Clinic X"})

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateName))
	assert.Empty(t, emitter.events, "no event without a committed registration")
}

func TestRegisterNewOrganizationFounderAlreadyMember(t *testing.T) {
	orgID := uuid.New()
	founder := &model.Profile{
		UserID:         uuid.New(),
		OrganizationID: &orgID,
		Role:           model.RoleAdmin,
		ApprovalStatus: model.ApprovalApproved,
	}
	orgRepo := &fakeOrgRepo{byName: map[string]*model.Organization{}}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{founder.UserID: founder}}
	svc := newTestService(orgRepo, profileRepo, &fakeEmitter{})

	_, err := svc.RegisterNewOrganization(context.Background(), founder.UserID, &RegisterRequest{Name: "Clinic Y"})

	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Nil(t, orgRepo.created)
}

func TestRegisterNewOrganizationUnknownFounder(t *testing.T) {
	orgRepo := &fakeOrgRepo{byName: map[string]*model.Organization{}}
	profileRepo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{}}
	svc := newTestService(orgRepo, profileRepo, &fakeEmitter{})

	_, err := svc.RegisterNewOrganization(context.Background(), uuid.New(), &RegisterRequest{Name: "Clinic Z"})

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
