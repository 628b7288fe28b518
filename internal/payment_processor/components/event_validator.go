package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/payment_processor/service"
)

var (
	ErrUnknownSource  = errors.New("unknown event source")
	ErrUnchangedState = errors.New("event does not change the transaction state")
)

type EventValidatorImpl struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewEventValidator(logger *slog.Logger) service.EventValidator {
	return &EventValidatorImpl{
		validate: validator.New(),
		logger:   logger,
	}
}

// Validate checks required fields, known states and known sources
func (v *EventValidatorImpl) Validate(ctx context.Context, event *shared.StateChangedEvent) error {
	if err := v.validate.StructCtx(ctx, event); err != nil {
		return fmt.Errorf("missing event fields: %w", err)
	}

	if !event.State.IsValid() {
		return fmt.Errorf("%w: %q", shared.ErrInvalidTransactionState, event.State)
	}
	if event.PreviousState != "" {
		if !event.PreviousState.IsValid() {
			return fmt.Errorf("%w: previous %q", shared.ErrInvalidTransactionState, event.PreviousState)
		}
		if event.PreviousState == event.State {
			return ErrUnchangedState
		}
	}

	switch event.Source {
	case shared.EventSourceWebhook, shared.EventSourceIframe, shared.EventSourceStatus, shared.EventSourceAdmin:
	default:
		v.logger.Warn("State event from unknown source", "event_id", event.EventID.String(), "source", string(event.Source))
		return fmt.Errorf("%w: %q", ErrUnknownSource, event.Source)
	}

	return nil
}
