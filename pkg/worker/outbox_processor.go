package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
	"github.com/clinovia/clinic-api/pkg/messaging"
	"github.com/clinovia/clinic-api/pkg/metrics"
)

// EventsChannel is the broker channel domain events are published on.
const EventsChannel = "clinic.events"

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// OutboxProcessor drains pending outbox rows and publishes them to the
// broker. Publish failures are retried with a delay; events exceeding
// MaxRetries are marked failed and kept for inspection.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(repo repository.OutboxRepository, broker messaging.Broker,
	config OutboxProcessorConfig, logger zerolog.Logger, m *metrics.Metrics) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}
	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("outbox batch failed")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}

	for _, evt := range events {
		p.processEvent(ctx, evt)
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, evt *model.OutboxEvent) {
	start := time.Now()

	msg, err := json.Marshal(messaging.Message{
		Type:    evt.EventType,
		Payload: json.RawMessage(evt.Payload),
	})
	if err != nil {
		p.fail(ctx, evt, err)
		return
	}

	if err := p.broker.Publish(ctx, EventsChannel, msg); err != nil {
		if evt.RetryCount+1 >= p.config.MaxRetries {
			p.fail(ctx, evt, err)
			return
		}
		p.metrics.OutboxRetries.Inc()
		retryAt := time.Now().Add(p.config.RetryDelay)
		if markErr := p.repo.MarkRetry(ctx, evt.ID, err.Error(), retryAt); markErr != nil {
			p.logger.Error().Err(markErr).Str("event_id", evt.ID.String()).Msg("failed to mark retry")
		}
		return
	}

	if err := p.repo.MarkProcessed(ctx, evt.ID); err != nil {
		p.logger.Error().Err(err).Str("event_id", evt.ID.String()).Msg("failed to mark processed")
		return
	}
	p.metrics.OutboxEventsProcessed.Inc()
	p.metrics.OutboxProcessingLatency.Observe(time.Since(start).Seconds())
}

func (p *OutboxProcessor) fail(ctx context.Context, evt *model.OutboxEvent, cause error) {
	p.metrics.OutboxEventsFailed.Inc()
	p.logger.Error().Err(cause).
		Str("event_id", evt.ID.String()).
		Str("event_type", evt.EventType).
		Msg("outbox event failed permanently")
	if err := p.repo.MarkFailed(ctx, evt.ID, cause.Error()); err != nil {
		p.logger.Error().Err(err).Str("event_id", evt.ID.String()).Msg("failed to mark failed")
	}
}
