package mongo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func toDoc(t *testing.T, v interface{}) bson.D {
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func sampleRecord() *record.PaymentRecord {
	return &record.PaymentRecord{
		ID:                uuid.New(),
		TransactionID:     uuid.New(),
		ProviderID:        uuid.New(),
		Reference:         "INV/2024/0001",
		ProviderReference: "ifthenpay_INV/2024/0001",
		Amount:            "10.5",
		Currency:          "EUR",
		CreatedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPaymentRecordRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.Create(context.Background(), sampleRecord()))
	})

	mt.Run("duplicate transaction", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		rec := sampleRecord()
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Create(context.Background(), rec)
		assert.ErrorIs(mt, err, record.ErrDuplicateRecord{TransactionID: rec.TransactionID})
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
		}))

		err := repo.Create(context.Background(), sampleRecord())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to create payment record")
	})
}

func TestPaymentRecordRepository_GetByTransactionID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "test.payment_records"

	mt.Run("found", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		rec := sampleRecord()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, toDoc(mt.T, rec)))

		found, err := repo.GetByTransactionID(context.Background(), rec.TransactionID)
		require.NoError(mt, err)
		assert.Equal(mt, rec.ID, found.ID)
		assert.Equal(mt, rec.Amount, found.Amount)
		assert.True(mt, rec.CreatedAt.Equal(found.CreatedAt))
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		id := uuid.New()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		found, err := repo.GetByTransactionID(context.Background(), id)
		assert.Nil(mt, found)
		assert.ErrorIs(mt, err, record.ErrRecordNotFound{TransactionID: id})
	})
}

func TestPaymentRecordRepository_ExistsByTransactionID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "test.payment_records"

	mt.Run("exists", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		exists, err := repo.ExistsByTransactionID(context.Background(), uuid.New())
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewPaymentRecordRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		exists, err := repo.ExistsByTransactionID(context.Background(), uuid.New())
		require.NoError(mt, err)
		assert.False(mt, exists)
	})
}

func sampleEvent(transactionID uuid.UUID, state shared.TransactionState, at time.Time) *shared.StateChangedEvent {
	return &shared.StateChangedEvent{
		EventID:       uuid.New(),
		TransactionID: transactionID,
		Reference:     "INV/2024/0001",
		ProviderID:    uuid.New(),
		PreviousState: shared.TransactionStateDraft,
		State:         state,
		Source:        shared.EventSourceWebhook,
		OccurredAt:    at.UTC().Truncate(time.Millisecond),
	}
}

func TestTransactionEventRepository_Append(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewTransactionEventRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.Append(context.Background(), sampleEvent(uuid.New(), shared.TransactionStateDone, time.Now())))
	})

	mt.Run("redelivered event", func(mt *mtest.T) {
		repo := NewTransactionEventRepository(newTestLogger(), mt.DB)
		event := sampleEvent(uuid.New(), shared.TransactionStateDone, time.Now())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Append(context.Background(), event)
		assert.ErrorIs(mt, err, record.ErrDuplicateEvent{EventID: event.EventID})
	})
}

func TestTransactionEventRepository_Exists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("exists", func(mt *mtest.T) {
		repo := NewTransactionEventRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.transaction_events", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		exists, err := repo.Exists(context.Background(), uuid.New())
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := NewTransactionEventRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom"}))

		_, err := repo.Exists(context.Background(), uuid.New())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to check transaction event")
	})
}

func TestTransactionEventRepository_ListByTransactionID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "test.transaction_events"

	mt.Run("returns events", func(mt *mtest.T) {
		repo := NewTransactionEventRepository(newTestLogger(), mt.DB)
		txID := uuid.New()
		now := time.Now()
		done := sampleEvent(txID, shared.TransactionStateDone, now)
		pending := sampleEvent(txID, shared.TransactionStatePending, now.Add(-time.Minute))

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, toDoc(mt.T, done), toDoc(mt.T, pending)),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		events, err := repo.ListByTransactionID(context.Background(), txID, 10)
		require.NoError(mt, err)
		require.Len(mt, events, 2)
		assert.Equal(mt, done.EventID, events[0].EventID)
		assert.Equal(mt, shared.TransactionStatePending, events[1].State)
	})
}
