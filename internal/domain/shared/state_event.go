package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransactionState = errors.New("invalid transaction state")
	ErrUnsupportedCurrency     = errors.New("unsupported currency")
)

// StateChangedEvent defines a Kafka message emitted after every transaction state transition
type StateChangedEvent struct {
	EventID       uuid.UUID        `json:"event_id" bson:"event_id" validate:"required"`
	TransactionID uuid.UUID        `json:"transaction_id" bson:"transaction_id" validate:"required"`
	Reference     string           `json:"reference" bson:"reference" validate:"required"`
	ProviderID    uuid.UUID        `json:"provider_id" bson:"provider_id"`
	PreviousState TransactionState `json:"previous_state,omitempty" bson:"previous_state,omitempty"`
	State         TransactionState `json:"state" bson:"state" validate:"required"`
	StateMessage  string           `json:"state_message,omitempty" bson:"state_message,omitempty"`
	Source        EventSource      `json:"source" bson:"source" validate:"required"`
	CorrelationID string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at" bson:"occurred_at" validate:"required"`
}
