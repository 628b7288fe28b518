package record

import (
	"context"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// EventLog stores the audit trail of transaction state changes
type EventLog interface {
	Append(ctx context.Context, event *shared.StateChangedEvent) error
	Exists(ctx context.Context, eventID uuid.UUID) (bool, error)
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID, limit int) ([]*shared.StateChangedEvent, error)
}

// ErrDuplicateEvent indicates the event was already recorded
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate state event: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEvent
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || e.EventID == t.EventID
}
