package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/domain/outbox"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestPoller(o *MockOutboxRepository, p *MockRecordPublisher) *Poller {
	return NewPoller(&config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}, o, p, newTestLogger())
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes every pending message", func(t *testing.T) {
		outboxRepo := new(MockOutboxRepository)
		publisher := new(MockRecordPublisher)
		first, second := sampleMessage(t, 1), sampleMessage(t, 2)

		outboxRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{first, second}, nil).Once()
		publisher.On("Publish", ctx, first).Return(nil).Once()
		publisher.On("Publish", ctx, second).Return(nil).Once()

		err := newTestPoller(outboxRepo, publisher).processPendingMessages(ctx)

		assert.NoError(t, err)
		publisher.AssertExpectations(t)
		outboxRepo.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
	})

	t.Run("failure increments attempts", func(t *testing.T) {
		outboxRepo := new(MockOutboxRepository)
		publisher := new(MockRecordPublisher)
		msg := sampleMessage(t, 3)

		outboxRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil).Once()
		publisher.On("Publish", ctx, msg).Return(errors.New("mongo down")).Once()
		outboxRepo.On("IncrementAttempts", ctx, msg.ID).Return(nil).Once()

		err := newTestPoller(outboxRepo, publisher).processPendingMessages(ctx)

		assert.NoError(t, err)
		outboxRepo.AssertExpectations(t)
		outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last attempt marks failed", func(t *testing.T) {
		outboxRepo := new(MockOutboxRepository)
		publisher := new(MockRecordPublisher)
		msg := sampleMessage(t, 4)
		msg.Attempts = 2

		outboxRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil).Once()
		publisher.On("Publish", ctx, msg).Return(errors.New("mongo down")).Once()
		outboxRepo.On("IncrementAttempts", ctx, msg.ID).Return(nil).Once()
		outboxRepo.On("UpdateStatus", ctx, msg.ID, shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := newTestPoller(outboxRepo, publisher).processPendingMessages(ctx)

		assert.NoError(t, err)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("fetch failure", func(t *testing.T) {
		outboxRepo := new(MockOutboxRepository)
		publisher := new(MockRecordPublisher)

		outboxRepo.On("GetPending", ctx, 10).Return(nil, errors.New("pg down")).Once()

		err := newTestPoller(outboxRepo, publisher).processPendingMessages(ctx)

		assert.Error(t, err)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestPoller_Start_StopsOnCancel(t *testing.T) {
	outboxRepo := new(MockOutboxRepository)
	publisher := new(MockRecordPublisher)
	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestPoller(outboxRepo, publisher).Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
	outboxRepo.AssertCalled(t, "GetPending", mock.Anything, 10)
}

func TestPoller_Start_DrainsBeforeFirstTick(t *testing.T) {
	outboxRepo := new(MockOutboxRepository)
	publisher := new(MockRecordPublisher)
	msg := sampleMessage(t, 11)
	called := make(chan struct{})

	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil).Once()
	publisher.On("Publish", mock.Anything, msg).Return(nil).Run(func(mock.Arguments) { close(called) }).Once()

	poller := NewPoller(&config.OutboxConfig{
		PollingInterval:  time.Hour,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}, outboxRepo, publisher, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("pending message was not published on start")
	}
	cancel()
	<-done
	publisher.AssertExpectations(t)
}
