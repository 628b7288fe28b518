package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	letter := DeadLetter{
		Key:         "tx-key",
		Value:       []byte(`{"broken":`),
		Reason:      "unmarshal_failed",
		SourceTopic: "payment_state_events",
		Partition:   2,
		Offset:      41,
	}

	t.Run("success", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "payment_state_events_dlq"}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			var payload deadLetterPayload
			if err := json.Unmarshal(msgs[0].Value, &payload); err != nil {
				return false
			}
			return string(msgs[0].Key) == "tx-key" &&
				payload.OriginalValue == `{"broken":` &&
				payload.DLQReason == "unmarshal_failed" &&
				payload.SourceTopic == "payment_state_events" &&
				payload.Offset == 41 &&
				payload.Timestamp != "" &&
				headerValue(msgs[0], "dlq-reason") == "unmarshal_failed" &&
				headerValue(msgs[0], "dlq-source-offset") == "41"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, letter))
		mockWriter.AssertExpectations(t)
	})

	t.Run("writer error", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "dlq"}
		writerErr := errors.New("dlq write failed")
		mockWriter.On("WriteMessages", ctx, mock.Anything).Return(writerErr).Once()

		assert.ErrorIs(t, producer.PublishToDLQ(ctx, letter), writerErr)
	})

	t.Run("disabled producer", func(t *testing.T) {
		var producer *DLQProducer
		assert.ErrorIs(t, producer.PublishToDLQ(ctx, letter), ErrDLQDisabled)
		assert.NoError(t, producer.Close())
	})
}

type fakeTopicAdmin struct {
	readErrs   []error
	partitions []kafka.Partition
	created    []kafka.TopicConfig
	createErr  error
}

func (f *fakeTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		return nil, err
	}
	return f.partitions, nil
}

func (f *fakeTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	f.created = append(f.created, topics...)
	return f.createErr
}

func TestCreateKafkaTopicIfNotExists(t *testing.T) {
	ctx := context.Background()

	t.Run("existing topic", func(t *testing.T) {
		admin := &fakeTopicAdmin{partitions: []kafka.Partition{{Topic: "events", ID: 0}}}
		require.NoError(t, createKafkaTopicIfNotExists(ctx, admin, "events", 3, 1, newTestLogger()))
		assert.Empty(t, admin.created)
	})

	t.Run("missing topic gets defaults", func(t *testing.T) {
		admin := &fakeTopicAdmin{}
		require.NoError(t, createKafkaTopicIfNotExists(ctx, admin, "events", 0, 0, newTestLogger()))
		require.Len(t, admin.created, 1)
		assert.Equal(t, 1, admin.created[0].NumPartitions)
		assert.Equal(t, 1, admin.created[0].ReplicationFactor)
	})

	t.Run("create failure", func(t *testing.T) {
		admin := &fakeTopicAdmin{createErr: errors.New("not controller")}
		err := createKafkaTopicIfNotExists(ctx, admin, "events", 1, 1, newTestLogger())
		assert.ErrorContains(t, err, "not controller")
	})

	t.Run("cancelled while retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		admin := &fakeTopicAdmin{readErrs: []error{errors.New("leader not available")}}
		err := createKafkaTopicIfNotExists(cancelled, admin, "events", 1, 1, newTestLogger())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
