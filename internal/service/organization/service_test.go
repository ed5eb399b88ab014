package organization

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

type fakeOrgRepo struct {
	orgs      map[uuid.UUID]*model.Organization
	updateErr error
	getCalls  int
}

func (f *fakeOrgRepo) CreateWithFounder(ctx context.Context, org *model.Organization) error {
	return nil
}

func (f *fakeOrgRepo) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	f.getCalls++
	if org, ok := f.orgs[id]; ok {
		copied := *org
		return &copied, nil
	}
	return nil, apperrors.NotFound("organization")
}

func (f *fakeOrgRepo) GetActiveByName(ctx context.Context, name string) (*model.Organization, error) {
	for _, org := range f.orgs {
		if org.Name == name && org.IsActive {
			return org, nil
		}
	}
	return nil, apperrors.NotFound("organization")
}

func (f *fakeOrgRepo) Update(ctx context.Context, org *model.Organization) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.orgs[org.ID] = org
	return nil
}

type fakeProfileRepo struct {
	byOrg map[uuid.UUID][]*model.Profile
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
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
	return f.byOrg[orgID], nil
}

func testOrg() *model.Organization {
	return &model.Organization{
		ID:           uuid.New(),
		Name:         "Clinic A",
		IsActive:     true,
		Address:      "1 Main St",
		Phone:        "+1555000111",
		BillingEmail: "billing@clinic.example",
	}
}

func memberActor(orgID uuid.UUID, role model.Role) authz.Actor {
	return authz.Actor{
		UserID:         uuid.New(),
		Role:           role,
		OrganizationID: &orgID,
		ApprovalStatus: model.ApprovalApproved,
	}
}

func outsiderActor() authz.Actor {
	return authz.Actor{UserID: uuid.New(), ApprovalStatus: model.ApprovalPending}
}

func newTestService(org *model.Organization) (*Service, *fakeOrgRepo, *fakeProfileRepo) {
	orgRepo := &fakeOrgRepo{orgs: map[uuid.UUID]*model.Organization{org.ID: org}}
	profileRepo := &fakeProfileRepo{byOrg: map[uuid.UUID][]*model.Profile{}}
	return NewService(orgRepo, profileRepo, zerolog.Nop()), orgRepo, profileRepo
}

func TestGetOrganizationMemberSeesSensitiveFields(t *testing.T) {
	org := testOrg()
	svc, _, _ := newTestService(org)

	got, err := svc.GetOrganization(context.Background(), org.ID, memberActor(org.ID, model.RoleNurse))

	require.NoError(t, err)
	assert.Equal(t, "1 Main St", got.Address)
	assert.Equal(t, "billing@clinic.example", got.BillingEmail)
}

func TestGetOrganizationNonMemberSeesPublicView(t *testing.T) {
	org := testOrg()
	svc, _, _ := newTestService(org)

	got, err := svc.GetOrganization(context.Background(), org.ID, outsiderActor())

	require.NoError(t, err)
	assert.Equal(t, org.Name, got.Name)
	assert.Empty(t, got.Address)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.BillingEmail)
}

func TestGetOrganizationCrossOrgMemberSeesPublicView(t *testing.T) {
	org := testOrg()
	svc, _, _ := newTestService(org)

	got, err := svc.GetOrganization(context.Background(), org.ID, memberActor(uuid.New(), model.RoleAdmin))

	require.NoError(t, err)
	assert.Empty(t, got.BillingEmail)
}

func TestGetOrganizationCaches(t *testing.T) {
	org := testOrg()
	svc, orgRepo, _ := newTestService(org)
	actor := memberActor(org.ID, model.RoleNurse)

	_, err := svc.GetOrganization(context.Background(), org.ID, actor)
	require.NoError(t, err)
	_, err = svc.GetOrganization(context.Background(), org.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, orgRepo.getCalls)
}

func TestUpdateOrganization(t *testing.T) {
	org := testOrg()
	svc, orgRepo, _ := newTestService(org)
	admin := memberActor(org.ID, model.RoleAdmin)

	name := "  Clinic A Renamed "
	inactive := false
	got, err := svc.UpdateOrganization(context.Background(), org.ID, &model.OrganizationPatch{
		Name:     &name,
		IsActive: &inactive,
	}, admin)

	require.NoError(t, err)
	assert.Equal(t, "Clinic A Renamed", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Clinic A Renamed", orgRepo.orgs[org.ID].Name)
}

func TestUpdateOrganizationInvalidatesCache(t *testing.T) {
	org := testOrg()
	svc, orgRepo, _ := newTestService(org)
	admin := memberActor(org.ID, model.RoleAdmin)

	_, err := svc.GetOrganization(context.Background(), org.ID, admin)
	require.NoError(t, err)

	name := "Clinic A Renamed"
	_, err = svc.UpdateOrganization(context.Background(), org.ID, &model.OrganizationPatch{Name: &name}, admin)
	require.NoError(t, err)

	got, err := svc.GetOrganization(context.Background(), org.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "Clinic A Renamed", got.Name)
	assert.Greater(t, orgRepo.getCalls, 1, "cache entry dropped after update")
}

func TestUpdateOrganizationByNonAdmin(t *testing.T) {
	org := testOrg()
	svc, orgRepo, _ := newTestService(org)

	name := "Taken Over"
	_, err := svc.UpdateOrganization(context.Background(), org.ID, &model.OrganizationPatch{Name: &name}, memberActor(org.ID, model.RoleNurse))

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	assert.Equal(t, "Clinic A", orgRepo.orgs[org.ID].Name)
}

func TestUpdateOrganizationInvalidName(t *testing.T) {
	org := testOrg()
	svc, _, _ := newTestService(org)
	admin := memberActor(org.ID, model.RoleAdmin)

	name := "   "
	_, err := svc.UpdateOrganization(context.Background(), org.ID, &model.OrganizationPatch{Name: &name}, admin)

	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestUpdateOrganizationDuplicateName(t *testing.T) {
	// The rename loses to the active-name unique index; the storage error
	// passes through unchanged.
	org := testOrg()
	svc, orgRepo, _ := newTestService(org)
	orgRepo.updateErr = apperrors.DuplicateName("Clinic B")
	admin := memberActor(org.ID, model.RoleAdmin)

	name := "Clinic B"
	_, err := svc.UpdateOrganization(context.Background(), org.ID, &model.OrganizationPatch{Name: &name}, admin)

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateName))
}

func TestListMembers(t *testing.T) {
	org := testOrg()
	svc, _, profileRepo := newTestService(org)
	profileRepo.byOrg[org.ID] = []*model.Profile{
		{UserID: uuid.New(), FullName: "A"},
		{UserID: uuid.New(), FullName: "B"},
	}

	members, err := svc.ListMembers(context.Background(), org.ID, memberActor(org.ID, model.RoleNurse))

	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestListMembersByOutsider(t *testing.T) {
	org := testOrg()
	svc, _, _ := newTestService(org)

	_, err := svc.ListMembers(context.Background(), org.ID, outsiderActor())

	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}
