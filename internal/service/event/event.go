package event

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/clinovia/clinic-api/internal/model"
	"github.com/clinovia/clinic-api/internal/repository"
)

// Emitter records domain events for asynchronous delivery. Emission is
// fire-and-forget from the caller's perspective: a failed write is logged and
// never rolls back the operation that produced the event.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	outbox repository.OutboxRepository
	logger zerolog.Logger
}

func NewService(outbox repository.OutboxRepository, logger zerolog.Logger) *Service {
	return &Service{outbox: outbox, logger: logger}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
