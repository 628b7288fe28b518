package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifthenpay-gateway/internal/config"
)

// fakeReader serves queued messages then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offsets := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		offsets = append(offsets, m.Offset)
	}
	return offsets
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:         "localhost:9092",
		StateEventTopic: "payment_state_events",
		ConsumerGroup:   "payment-processor-group",
		MinBytes:        1024,
		MaxBytes:        10240,
		MaxWait:         time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg)
	require.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "payment_state_events", consumer.topic)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_CommitsOnlyHandledMessages(t *testing.T) {
	reader := &fakeReader{
		fetchErrs: []error{errors.New("coordinator not available")},
		messages: []kafka.Message{
			{Topic: "events", Offset: 1, Value: []byte("ok")},
			{Topic: "events", Offset: 2, Value: []byte("fail")},
			{Topic: "events", Offset: 3, Value: []byte("ok")},
		},
	}
	consumer := NewKafkaConsumerWithReader(newTestLogger(), reader, "events", "group")
	consumer.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var handled sync.WaitGroup
	handled.Add(3)
	handler := func(_ context.Context, msg kafka.Message) error {
		defer handled.Done()
		if string(msg.Value) == "fail" {
			return errors.New("transient")
		}
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	handled.Wait()
	cancel()

	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, []int64{1, 3}, reader.committedOffsets())
	assert.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}

func TestKafkaConsumer_CloseWithNilReader(t *testing.T) {
	consumer := &KafkaConsumer{reader: nil, logger: newTestLogger()}
	require.NoError(t, consumer.Close())
}
