package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// Message stores a payment record awaiting publication
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Reference     string              `json:"reference"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a payment record for the outbox
func NewMessage(rec *record.PaymentRecord) (*Message, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: rec.TransactionID,
		Reference:     rec.Reference,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// PaymentRecord decodes the payload
func (m *Message) PaymentRecord() (*record.PaymentRecord, error) {
	var rec record.PaymentRecord
	if err := json.Unmarshal(m.Payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
