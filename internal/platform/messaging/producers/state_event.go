package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// Header names set on every state event
const (
	HeaderEventSource   = "event-source"
	HeaderCorrelationID = "correlation-id"
)

// StateEventProducer writes StateChangedEvents keyed by transaction ID, so every
// change of one transaction lands on the same partition in order.
type StateEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewStateEventProducer ensures the topic exists and creates an async producer
func NewStateEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*StateEventProducer, error) {
	if cfg.StateEventTopic == "" {
		return nil, fmt.Errorf("kafka state event topic is not configured")
	}

	log := logger.With("component", "StateEventProducer")
	if err := ensureTopic(ctx, log, cfg, cfg.StateEventTopic); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.StateEventTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("Failed to write state events asynchronously", "topic", cfg.StateEventTopic, "error", err, "count", len(messages))
			} else {
				log.Debug("Wrote state events asynchronously", "topic", cfg.StateEventTopic, "count", len(messages))
			}
		},
	}

	return NewStateEventProducerWithWriter(log, writer, cfg.StateEventTopic), nil
}

// NewStateEventProducerWithWriter creates a producer on top of an existing writer
func NewStateEventProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *StateEventProducer {
	return &StateEventProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// PublishStateChange serializes the event and hands it to the writer
func (p *StateEventProducer) PublishStateChange(ctx context.Context, event *shared.StateChangedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal state event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TransactionID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventSource, Value: []byte(event.Source)},
		},
	}
	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(event.CorrelationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish state event",
			"topic", p.topic,
			"transaction_id", event.TransactionID.String(),
			"state", string(event.State),
			"error", err,
		)
		return fmt.Errorf("failed to publish state event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published state event",
		"topic", p.topic,
		"event_id", event.EventID.String(),
		"state", string(event.State),
	)
	return nil
}

func (p *StateEventProducer) Close() error {
	p.logger.Info("Closing state event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
