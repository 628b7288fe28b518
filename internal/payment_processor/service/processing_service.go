package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ifthenpay-gateway/internal/domain/shared"
)

type EventProcessingServiceImpl struct {
	validator EventValidator
	recorder  EventRecorder
	logger    *slog.Logger
}

func NewEventProcessingService(
	validator EventValidator,
	recorder EventRecorder,
	logger *slog.Logger,
) EventProcessingService {
	return &EventProcessingServiceImpl{
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// ProcessEvent validates a state change and appends it to the audit log once.
// Validation failures are wrapped in ErrInvalidEvent.
func (s *EventProcessingServiceImpl) ProcessEvent(ctx context.Context, event *shared.StateChangedEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Processing state event",
		"event_id", event.EventID.String(),
		"transaction_id", event.TransactionID.String(),
		"state", string(event.State),
	)

	if err := s.validator.Validate(ctx, event); err != nil {
		logger.Error("State event validation failed", "event_id", event.EventID.String(), "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	exists, err := s.recorder.Exists(ctx, event.EventID)
	if err != nil {
		return err // Let Kafka retry
	}
	if exists {
		logger.Info("State event already recorded", "event_id", event.EventID.String())
		return nil
	}

	if err := s.recorder.Record(ctx, event); err != nil {
		logger.Error("Failed to record state event", "event_id", event.EventID.String(), "error", err)
		return err
	}

	logger.Info("State event recorded",
		"event_id", event.EventID.String(),
		"transaction_id", event.TransactionID.String(),
		"previous_state", string(event.PreviousState),
		"state", string(event.State),
		"source", string(event.Source),
	)
	return nil
}
