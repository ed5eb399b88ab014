package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinovia/clinic-api/internal/config"
	authHandler "github.com/clinovia/clinic-api/internal/handler/auth"
	joinrequestHandler "github.com/clinovia/clinic-api/internal/handler/joinrequest"
	organizationHandler "github.com/clinovia/clinic-api/internal/handler/organization"
	profileHandler "github.com/clinovia/clinic-api/internal/handler/profile"
	"github.com/clinovia/clinic-api/internal/middleware"
	"github.com/clinovia/clinic-api/internal/repository/postgres"
	"github.com/clinovia/clinic-api/internal/router"
	authService "github.com/clinovia/clinic-api/internal/service/auth"
	eventService "github.com/clinovia/clinic-api/internal/service/event"
	joinrequestService "github.com/clinovia/clinic-api/internal/service/joinrequest"
	organizationService "github.com/clinovia/clinic-api/internal/service/organization"
	profileService "github.com/clinovia/clinic-api/internal/service/profile"
	registrationService "github.com/clinovia/clinic-api/internal/service/registration"
	"github.com/clinovia/clinic-api/pkg/auth"
	"github.com/clinovia/clinic-api/pkg/logger"
	"github.com/clinovia/clinic-api/pkg/messaging/redis"
	"github.com/clinovia/clinic-api/pkg/metrics"
	"github.com/clinovia/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	base := postgres.NewBaseRepository(db)
	orgRepo := postgres.NewOrganizationRepository(base)
	profileRepo := postgres.NewProfileRepository(base)
	joinRequestRepo := postgres.NewJoinRequestRepository(base)
	credRepo := postgres.NewCredentialRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, cfg.JWT.Issuer)
	eventSvc := eventService.NewService(outboxRepo, log)
	authSvc := authService.NewService(credRepo, profileRepo, orgRepo, jwtSvc, log)
	registrationSvc := registrationService.NewService(orgRepo, profileRepo, eventSvc, log)
	orgSvc := organizationService.NewService(orgRepo, profileRepo, log)
	profileSvc := profileService.NewService(profileRepo, log)
	joinRequestSvc := joinrequestService.NewService(joinRequestRepo, orgRepo, eventSvc, log)

	// HTTP surface
	m := metrics.New("clinic_api")
	authMw := middleware.NewAuthMiddleware(jwtSvc, profileRepo)
	r := router.New(router.Deps{
		DB:           db,
		Logger:       log,
		Metrics:      m,
		Auth:         authMw,
		AuthLimiter:  middleware.NewRateLimiter(5, 10),
		AuthH:        authHandler.NewHandler(authSvc),
		OrgH:         organizationHandler.NewHandler(orgSvc, registrationSvc),
		ProfileH:     profileHandler.NewHandler(profileSvc),
		JoinRequestH: joinrequestHandler.NewHandler(joinRequestSvc),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox processor publishing to redis, if configured. The API serves
	// fine without it; events wait in the outbox until a processor runs.
	if cfg.Redis.URL != "" {
		broker, err := redis.NewBroker(redis.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
			MaxRetries:   cfg.Outbox.MaxRetries,
			RetryDelay:   time.Duration(cfg.Outbox.RetryDelaySeconds) * time.Second,
		}, log, m)
		go processor.Start(ctx)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
