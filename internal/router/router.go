package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/handler"
	authHandler "github.com/clinovia/clinic-api/internal/handler/auth"
	joinrequestHandler "github.com/clinovia/clinic-api/internal/handler/joinrequest"
	organizationHandler "github.com/clinovia/clinic-api/internal/handler/organization"
	profileHandler "github.com/clinovia/clinic-api/internal/handler/profile"
	"github.com/clinovia/clinic-api/internal/middleware"
	"github.com/clinovia/clinic-api/pkg/metrics"
)

type Router struct {
	engine *gin.Engine
}

type Deps struct {
	DB           *sqlx.DB
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	Auth         *middleware.AuthMiddleware
	AuthLimiter  *middleware.RateLimiter
	AuthH        *authHandler.Handler
	OrgH         *organizationHandler.Handler
	ProfileH     *profileHandler.Handler
	JoinRequestH *joinrequestHandler.Handler
}

func New(d Deps) *Router {
	handler.RegisterValidators()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(d.Metrics),
	)

	engine.GET("/healthz", handler.Healthz)
	engine.GET("/readyz", handler.Readyz(d.DB))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	d.AuthH.RegisterRoutes(api, d.AuthLimiter.Limit())

	authed := api.Group("", d.Auth.Authenticate())
	d.OrgH.RegisterRoutes(authed)
	d.ProfileH.RegisterRoutes(authed)
	d.JoinRequestH.RegisterRoutes(authed)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
