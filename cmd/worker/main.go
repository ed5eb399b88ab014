package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/config"
	"github.com/clinovia/clinic-api/internal/email"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/internal/repository/postgres"
	notificationService "github.com/clinovia/clinic-api/internal/service/notification"
	"github.com/clinovia/clinic-api/pkg/logger"
	"github.com/clinovia/clinic-api/pkg/messaging"
	"github.com/clinovia/clinic-api/pkg/messaging/redis"
	"github.com/clinovia/clinic-api/pkg/metrics"
	"github.com/clinovia/clinic-api/pkg/worker"
)

// workerOptions are the knobs specific to this process; everything else
// (database, redis, smtp) comes from the shared configuration file.
type workerOptions struct {
	MetricsPort       int           `envconfig:"WORKER_METRICS_PORT" default:"9091"`
	CleanupInterval   time.Duration `envconfig:"WORKER_CLEANUP_INTERVAL" default:"1h"`
	ProcessedRetained time.Duration `envconfig:"WORKER_PROCESSED_RETAINED" default:"168h"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var opts workerOptions
	if err := envconfig.Process("", &opts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load worker options: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	}).With().Str("component", "worker").Logger()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	profileRepo := postgres.NewProfileRepository(base)
	orgRepo := postgres.NewOrganizationRepository(base)

	emailSvc := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := notificationService.NewService(profileRepo, orgRepo, emailSvc, log)

	m := metrics.New("clinic_worker")
	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryDelay:   time.Duration(cfg.Outbox.RetryDelaySeconds) * time.Second,
	}, log, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)
	go runNotifier(ctx, broker, notifier, log)
	go runCleanup(ctx, outboxRepo, opts, log)

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	log.Info().Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}
	log.Info().Msg("worker exited properly")
}

func runNotifier(ctx context.Context, broker messaging.Broker, notifier *notificationService.Service, log zerolog.Logger) {
	msgs, err := broker.Subscribe(ctx, worker.EventsChannel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to events channel")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			if err := notifier.HandleMessage(ctx, raw); err != nil {
				log.Error().Err(err).Msg("failed to handle event")
			}
		}
	}
}

// runCleanup prunes processed outbox rows past the retention window.
func runCleanup(ctx context.Context, outboxRepo repository.OutboxRepository, opts workerOptions, log zerolog.Logger) {
	ticker := time.NewTicker(opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-opts.ProcessedRetained)
			deleted, err := outboxRepo.DeleteProcessedBefore(ctx, cutoff)
			if err != nil {
				log.Error().Err(err).Msg("outbox cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("pruned processed outbox events")
			}
		}
	}
}
