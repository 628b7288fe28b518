package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockEventValidator struct {
	mock.Mock
}

func (m *MockEventValidator) Validate(ctx context.Context, event *shared.StateChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) Exists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRecorder) Record(ctx context.Context, event *shared.StateChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockProcessingService mocks the EventProcessingService interface
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessEvent(ctx context.Context, event *shared.StateChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func sampleEvent() *shared.StateChangedEvent {
	return &shared.StateChangedEvent{
		EventID:       uuid.New(),
		TransactionID: uuid.New(),
		Reference:     "S00042",
		PreviousState: shared.TransactionStateDraft,
		State:         shared.TransactionStatePending,
		Source:        shared.EventSourceIframe,
		CorrelationID: "corr-1",
		OccurredAt:    time.Now().UTC(),
	}
}
