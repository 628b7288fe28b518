package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/payment_processor/service"
)

type EventRecorderImpl struct {
	eventLog record.EventLog
	logger   *slog.Logger
}

func NewEventRecorder(eventLog record.EventLog, logger *slog.Logger) service.EventRecorder {
	return &EventRecorderImpl{
		eventLog: eventLog,
		logger:   logger,
	}
}

// Exists reports whether the event is already in the audit log
func (r *EventRecorderImpl) Exists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	exists, err := r.eventLog.Exists(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to check state event %s: %w", eventID.String(), err)
	}
	return exists, nil
}

// Record appends the event. A concurrent duplicate insert counts as success.
func (r *EventRecorderImpl) Record(ctx context.Context, event *shared.StateChangedEvent) error {
	if err := r.eventLog.Append(ctx, event); err != nil {
		if errors.Is(err, record.ErrDuplicateEvent{}) {
			r.logger.Info("State event recorded concurrently", "event_id", event.EventID.String())
			return nil
		}
		return fmt.Errorf("failed to record state event %s: %w", event.EventID.String(), err)
	}
	return nil
}
