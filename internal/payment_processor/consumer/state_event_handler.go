package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/payment_processor/service"
	"github.com/ifthenpay-gateway/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// StateEventHandler handles transaction state change messages from Kafka
type StateEventHandler struct {
	processingService service.EventProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewStateEventHandler creates a new handler
func NewStateEventHandler(
	logger *slog.Logger,
	processingService service.EventProcessingService,
	producer producers.DeadLetterPublisher,
) *StateEventHandler {
	return &StateEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. Payloads that can never succeed are parked on the DLQ and
// acknowledged; other failures are returned so the offset is not committed.
func (h *StateEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event shared.StateChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to unmarshal state event from Kafka message",
			"error", err,
			"message_key", string(msg.Key),
		)
		return h.deadLetter(ctx, msg, fmt.Sprintf("unmarshal state event: %s", err.Error()), err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received state event",
		"event_id", event.EventID.String(),
		"transaction_id", event.TransactionID.String(),
		"reference", event.Reference,
		"state", string(event.State),
	)

	if err := h.processingService.ProcessEvent(ctx, &event); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			return h.deadLetter(ctx, msg, err.Error(), err)
		}
		logger.Error("Failed to process state event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("processing state event %s failed: %w", event.EventID.String(), err)
	}

	return nil
}

// deadLetter publishes msg to the DLQ and acknowledges it. If the DLQ is unavailable the
// original error is returned so Kafka redelivers the message.
func (h *StateEventHandler) deadLetter(ctx context.Context, msg kafka.Message, reason string, cause error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable state event: %w", cause)
	}

	letter := producers.DeadLetter{
		Key:         string(msg.Key),
		Value:       msg.Value,
		Reason:      reason,
		SourceTopic: msg.Topic,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
	}
	if err := h.producer.PublishToDLQ(ctx, letter); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(msg.Key),
		)
		return fmt.Errorf("unprocessable state event: %w", cause)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(msg.Key), "reason", reason)
	return nil
}
