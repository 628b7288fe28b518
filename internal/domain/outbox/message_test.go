package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	rec := &record.PaymentRecord{
		ID:                uuid.New(),
		TransactionID:     uuid.New(),
		ProviderID:        uuid.New(),
		Reference:         "INV/2024/0001",
		ProviderReference: "ifthenpay_INV/2024/0001",
		Amount:            "12.34",
		Currency:          "EUR",
		CreatedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}

	beforeCreation := time.Now()
	msg, err := NewMessage(rec)
	afterCreation := time.Now()

	require.NoError(t, err)
	assert.Equal(t, rec.TransactionID, msg.TransactionID)
	assert.Equal(t, rec.Reference, msg.Reference)
	assert.Equal(t, shared.OutboxStatusPending, msg.Status)
	assert.Equal(t, 0, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)
	assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

	decoded, err := msg.PaymentRecord()
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, "12.34", decoded.Amount)
	assert.True(t, rec.CreatedAt.Equal(decoded.CreatedAt))
}

func TestMessage_PaymentRecordInvalidPayload(t *testing.T) {
	msg := &Message{Payload: []byte("{broken")}
	_, err := msg.PaymentRecord()
	assert.Error(t, err)
}

func TestMessage_StatusChanges(t *testing.T) {
	testCases := []struct {
		name     string
		apply    func(m *Message)
		status   shared.OutboxStatus
		attempts int
	}{
		{"IncrementAttempts", (*Message).IncrementAttempts, shared.OutboxStatusPending, 2},
		{"MarkAsProcessed", (*Message).MarkAsProcessed, shared.OutboxStatusProcessed, 1},
		{"MarkAsFailed", (*Message).MarkAsFailed, shared.OutboxStatusFailedToPublish, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			initialTime := time.Now().Add(-time.Hour)
			msg := &Message{Status: shared.OutboxStatusPending, Attempts: 1, LastAttemptAt: &initialTime}

			tc.apply(msg)

			assert.Equal(t, tc.status, msg.Status)
			assert.Equal(t, tc.attempts, msg.Attempts)
			require.NotNil(t, msg.LastAttemptAt)
			assert.True(t, msg.LastAttemptAt.After(initialTime))
		})
	}
}
