package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/handler"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/pkg/auth"
)

// ContextActor is the gin context key holding the policy-engine actor.
const ContextActor = "actor"

type AuthMiddleware struct {
	jwtSvc      auth.JWTService
	profileRepo repository.ProfileRepository
}

func NewAuthMiddleware(jwtSvc auth.JWTService, profileRepo repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, profileRepo: profileRepo}
}

// Authenticate verifies the bearer token and loads the caller's membership
// snapshot into the context. The profile is read per request so that role
// changes and deactivation take effect immediately, not at token expiry.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewErrorResponse("invalid authorization format"))
			return
		}

		claims, err := m.jwtSvc.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewErrorResponse("invalid token"))
			return
		}

		profile, err := m.profileRepo.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewErrorResponse("unknown principal"))
			return
		}
		if !profile.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden,
				handler.NewErrorResponse("account deactivated"))
			return
		}

		c.Set(ContextActor, authz.ActorFromProfile(profile))
		c.Next()
	}
}

// Actor returns the authenticated actor set by Authenticate.
func Actor(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
