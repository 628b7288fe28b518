package producers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestStateEventProducer_PublishStateChange(t *testing.T) {
	ctx := context.Background()
	event := &shared.StateChangedEvent{
		EventID:       uuid.New(),
		TransactionID: uuid.New(),
		Reference:     "INV/2024/0001",
		PreviousState: shared.TransactionStateDraft,
		State:         shared.TransactionStateDone,
		Source:        shared.EventSourceWebhook,
		CorrelationID: "corr-1",
		OccurredAt:    time.Now().UTC(),
	}

	t.Run("keys by transaction and sets headers", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := NewStateEventProducerWithWriter(newTestLogger(), mockWriter, "payment_state_events")

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			var decoded shared.StateChangedEvent
			if err := json.Unmarshal(msg.Value, &decoded); err != nil {
				return false
			}
			return string(msg.Key) == event.TransactionID.String() &&
				decoded.EventID == event.EventID &&
				headerValue(msg, HeaderEventSource) == "webhook" &&
				headerValue(msg, HeaderCorrelationID) == "corr-1"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishStateChange(ctx, event))
		mockWriter.AssertExpectations(t)
	})

	t.Run("writer error", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := NewStateEventProducerWithWriter(newTestLogger(), mockWriter, "payment_state_events")
		writerErr := errors.New("broker unavailable")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.PublishStateChange(ctx, event)
		assert.ErrorIs(t, err, writerErr)
		mockWriter.AssertExpectations(t)
	})
}

func TestStateEventProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := NewStateEventProducerWithWriter(newTestLogger(), mockWriter, "payment_state_events")
	closeErr := errors.New("close failed")

	mockWriter.On("Close").Return(nil).Once()
	assert.NoError(t, producer.Close())

	mockWriter.On("Close").Return(closeErr).Once()
	assert.ErrorIs(t, producer.Close(), closeErr)

	mockWriter.AssertExpectations(t)
}

var _ KafkaWriter = (*MockKafkaWriter)(nil)
