package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/platform/persistence"
)

// TransactionEventRepository implements the record.EventLog interface for MongoDB
type TransactionEventRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionEventRepository creates a new MongoDB event log
func NewTransactionEventRepository(logger *slog.Logger, db *mongo.Database) record.EventLog {
	return &TransactionEventRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a state change event. The unique index on event_id turns a
// redelivered event into ErrDuplicateEvent.
func (r *TransactionEventRepository) Append(ctx context.Context, event *shared.StateChangedEvent) error {
	collection := r.db.Collection(persistence.TransactionEventsCollection)

	_, err := collection.InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return record.ErrDuplicateEvent{EventID: event.EventID}
		}
		r.logger.Error("Failed to append transaction event",
			"event_id", event.EventID.String(),
			"transaction_id", event.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to append transaction event: %w", err)
	}

	return nil
}

// Exists reports whether the event was already recorded
func (r *TransactionEventRepository) Exists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	collection := r.db.Collection(persistence.TransactionEventsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{"event_id": eventID}, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("Failed to check transaction event",
			"event_id", eventID.String(),
			"error", err)
		return false, fmt.Errorf("failed to check transaction event: %w", err)
	}

	return count > 0, nil
}

// ListByTransactionID returns the most recent events of a transaction, newest first
func (r *TransactionEventRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID, limit int) ([]*shared.StateChangedEvent, error) {
	collection := r.db.Collection(persistence.TransactionEventsCollection)

	filter := bson.M{"transaction_id": transactionID}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list transaction events",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list transaction events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*shared.StateChangedEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode transaction events",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode transaction events: %w", err)
	}

	return events, nil
}
