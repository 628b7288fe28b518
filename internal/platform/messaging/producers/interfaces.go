package producers

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// StateEventPublisher publishes transaction state changes
type StateEventPublisher interface {
	PublishStateChange(ctx context.Context, event *shared.StateChangedEvent) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, letter DeadLetter) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
