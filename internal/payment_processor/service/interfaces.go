package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// ErrInvalidEvent marks an event that can never be processed and must not be retried
var ErrInvalidEvent = errors.New("invalid state event")

// EventProcessingService defines the interface for processing state change events.
type EventProcessingService interface {
	ProcessEvent(ctx context.Context, event *shared.StateChangedEvent) error
}

// EventValidator validates state change events before they are recorded
type EventValidator interface {
	Validate(ctx context.Context, event *shared.StateChangedEvent) error
}

// EventRecorder writes state change events to the audit log
type EventRecorder interface {
	Exists(ctx context.Context, eventID uuid.UUID) (bool, error)
	Record(ctx context.Context, event *shared.StateChangedEvent) error
}
