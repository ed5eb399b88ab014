package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/middleware"
	"github.com/clinovia/clinic-api/internal/model"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type fakeService struct {
	updated *model.ProfilePatch
}

func (f *fakeService) GetProfile(ctx context.Context, targetUserID uuid.UUID, actor authz.Actor) (*model.Profile, error) {
	return &model.Profile{UserID: targetUserID}, nil
}

func (f *fakeService) SetRole(ctx context.Context, targetUserID uuid.UUID, role model.Role, actor authz.Actor) (*model.Profile, error) {
	return nil, apperrors.Forbidden()
}

func (f *fakeService) SetActive(ctx context.Context, targetUserID uuid.UUID, active bool, actor authz.Actor) (*model.Profile, error) {
	return nil, apperrors.Forbidden()
}

func (f *fakeService) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, patch *model.ProfilePatch, actor authz.Actor) (*model.Profile, error) {
	f.updated = patch
	return &model.Profile{UserID: userID}, nil
}

func patchOwnProfile(t *testing.T, svc *fakeService, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	actor := authz.Actor{UserID: uuid.New(), ApprovalStatus: model.ApprovalApproved}
	engine.Use(func(c *gin.Context) { c.Set(middleware.ContextActor, actor) })
	NewHandler(svc).RegisterRoutes(engine.Group(""))

	req := httptest.NewRequest(http.MethodPatch, "/profiles/me", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestUpdateOwnProfilePersonalFields(t *testing.T) {
	svc := &fakeService{}

	w := patchOwnProfile(t, svc, `{"full_name": "New Name", "phone": "+1555"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, svc.updated) {
		assert.Equal(t, "New Name", *svc.updated.FullName)
	}
}

func TestUpdateOwnProfileRejectsMembershipFields(t *testing.T) {
	// A patch naming any restricted key fails wholesale, even when it also
	// carries allowed keys.
	for _, body := range []string{
		`{"organization_id": "` + uuid.New().String() + `"}`,
		`{"role": "admin"}`,
		`{"approval_status": "approved"}`,
		`{"full_name": "New Name", "role": "admin"}`,
	} {
		svc := &fakeService{}
		w := patchOwnProfile(t, svc, body)

		assert.Equal(t, http.StatusForbidden, w.Code, "body %s", body)
		assert.Nil(t, svc.updated, "no partial application for body %s", body)
	}
}

func TestUpdateOwnProfileInvalidJSON(t *testing.T) {
	svc := &fakeService{}

	w := patchOwnProfile(t, svc, `{"full_name": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.updated)
}
