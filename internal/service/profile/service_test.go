package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/model"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperrors.NotFound("profile")
}

func (f *fakeProfileRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile")
	}
	p.Role = role
	copied := *p
	return &copied, nil
}

func (f *fakeProfileRepo) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile")
	}
	p.IsActive = active
	copied := *p
	return &copied, nil
}

func (f *fakeProfileRepo) UpdatePersonal(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile")
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfileRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Profile, error) {
	var out []*model.Profile
	for _, p := range f.profiles {
		if p.OrganizationID != nil && *p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func member(orgID uuid.UUID, role model.Role) *model.Profile {
	return &model.Profile{
		UserID:         uuid.New(),
		Email:          "member@clinic.example",
		FullName:       "Test Member",
		OrganizationID: &orgID,
		Role:           role,
		ApprovalStatus: model.ApprovalApproved,
		IsActive:       true,
	}
}

func actorFor(p *model.Profile) authz.Actor {
	return authz.ActorFromProfile(p)
}

func newTestService(profiles ...*model.Profile) (*Service, *fakeProfileRepo) {
	repo := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{}}
	for _, p := range profiles {
		repo.profiles[p.UserID] = p
	}
	return NewService(repo, zerolog.Nop()), repo
}

func TestGetProfileOwn(t *testing.T) {
	orgID := uuid.New()
	me := member(orgID, model.RoleNurse)
	svc, _ := newTestService(me)

	got, err := svc.GetProfile(context.Background(), me.UserID, actorFor(me))

	require.NoError(t, err)
	assert.Equal(t, me.UserID, got.UserID)
}

func TestGetProfileSameOrgMember(t *testing.T) {
	orgID := uuid.New()
	me := member(orgID, model.RoleNurse)
	colleague := member(orgID, model.RoleDoctor)
	svc, _ := newTestService(me, colleague)

	got, err := svc.GetProfile(context.Background(), colleague.UserID, actorFor(me))

	require.NoError(t, err)
	assert.Equal(t, colleague.UserID, got.UserID)
}

func TestGetProfileCrossOrgHidden(t *testing.T) {
	// Cross-tenant reads surface as NotFound, not Forbidden, so the caller
	// cannot probe which user IDs exist.
	me := member(uuid.New(), model.RoleAdmin)
	stranger := member(uuid.New(), model.RoleNurse)
	svc, _ := newTestService(me, stranger)

	_, err := svc.GetProfile(context.Background(), stranger.UserID, actorFor(me))

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestGetProfileUnaffiliatedHidden(t *testing.T) {
	me := member(uuid.New(), model.RoleAdmin)
	loner := &model.Profile{UserID: uuid.New(), ApprovalStatus: model.ApprovalPending}
	svc, _ := newTestService(me, loner)

	_, err := svc.GetProfile(context.Background(), loner.UserID, actorFor(me))

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestSetRole(t *testing.T) {
	orgID := uuid.New()
	admin := member(orgID, model.RoleAdmin)
	nurse := member(orgID, model.RoleNurse)
	svc, _ := newTestService(admin, nurse)

	got, err := svc.SetRole(context.Background(), nurse.UserID, model.RoleDoctor, actorFor(admin))

	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, got.Role)
}

func TestSetRoleInvalidRole(t *testing.T) {
	orgID := uuid.New()
	admin := member(orgID, model.RoleAdmin)
	nurse := member(orgID, model.RoleNurse)
	svc, _ := newTestService(admin, nurse)

	_, err := svc.SetRole(context.Background(), nurse.UserID, model.Role("janitor"), actorFor(admin))

	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestSetRoleByNonAdmin(t *testing.T) {
	orgID := uuid.New()
	nurse := member(orgID, model.RoleNurse)
	doctor := member(orgID, model.RoleDoctor)
	svc, repo := newTestService(nurse, doctor)

	_, err := svc.SetRole(context.Background(), doctor.UserID, model.RoleAdmin, actorFor(nurse))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	assert.Equal(t, model.RoleDoctor, repo.profiles[doctor.UserID].Role, "role unchanged")
}

func TestSetRoleOwnByNonAdmin(t *testing.T) {
	// Self-targeting does not bypass the admin requirement.
	orgID := uuid.New()
	nurse := member(orgID, model.RoleNurse)
	svc, repo := newTestService(nurse)

	_, err := svc.SetRole(context.Background(), nurse.UserID, model.RoleAdmin, actorFor(nurse))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	assert.Equal(t, model.RoleNurse, repo.profiles[nurse.UserID].Role)
}

func TestSetRoleCrossOrgAdmin(t *testing.T) {
	admin := member(uuid.New(), model.RoleAdmin)
	nurse := member(uuid.New(), model.RoleNurse)
	svc, _ := newTestService(admin, nurse)

	_, err := svc.SetRole(context.Background(), nurse.UserID, model.RoleDoctor, actorFor(admin))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestSetActive(t *testing.T) {
	orgID := uuid.New()
	admin := member(orgID, model.RoleAdmin)
	nurse := member(orgID, model.RoleNurse)
	svc, _ := newTestService(admin, nurse)

	got, err := svc.SetActive(context.Background(), nurse.UserID, false, actorFor(admin))

	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, &orgID, got.OrganizationID, "organization untouched")
}

func TestSetActiveUnaffiliatedTarget(t *testing.T) {
	admin := member(uuid.New(), model.RoleAdmin)
	loner := &model.Profile{UserID: uuid.New(), ApprovalStatus: model.ApprovalPending}
	svc, _ := newTestService(admin, loner)

	_, err := svc.SetActive(context.Background(), loner.UserID, false, actorFor(admin))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestUpdateOwnProfile(t *testing.T) {
	orgID := uuid.New()
	me := member(orgID, model.RoleNurse)
	svc, _ := newTestService(me)

	name := "New Name"
	got, err := svc.UpdateOwnProfile(context.Background(), me.UserID, &model.ProfilePatch{FullName: &name}, actorFor(me))

	require.NoError(t, err)
	assert.Equal(t, "New Name", got.FullName)
	assert.Equal(t, model.RoleNurse, got.Role, "membership fields untouched")
}

func TestUpdateOwnProfileForAnotherUser(t *testing.T) {
	orgID := uuid.New()
	me := member(orgID, model.RoleNurse)
	other := member(orgID, model.RoleDoctor)
	svc, _ := newTestService(me, other)

	name := "Hijacked"
	_, err := svc.UpdateOwnProfile(context.Background(), other.UserID, &model.ProfilePatch{FullName: &name}, actorFor(me))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}
