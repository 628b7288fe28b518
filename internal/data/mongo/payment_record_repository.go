// Package mongo provides MongoDB implementations of the payment record and event audit repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/platform/persistence"
)

// PaymentRecordRepository implements the record.Repository interface for MongoDB
type PaymentRecordRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewPaymentRecordRepository creates a new MongoDB payment record repository
func NewPaymentRecordRepository(logger *slog.Logger, db *mongo.Database) record.Repository {
	return &PaymentRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a payment record.
// Returns ErrDuplicateRecord if a record for the same transaction exists.
func (r *PaymentRecordRepository) Create(ctx context.Context, rec *record.PaymentRecord) error {
	collection := r.db.Collection(persistence.PaymentRecordsCollection)

	_, err := collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return record.ErrDuplicateRecord{TransactionID: rec.TransactionID}
		}
		r.logger.Error("Failed to create payment record",
			"transaction_id", rec.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves the payment record of a transaction.
// Returns ErrRecordNotFound if none exists.
func (r *PaymentRecordRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*record.PaymentRecord, error) {
	collection := r.db.Collection(persistence.PaymentRecordsCollection)

	filter := bson.M{"transaction_id": transactionID}
	var rec record.PaymentRecord
	err := collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, record.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get payment record",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}

	return &rec, nil
}

// ExistsByTransactionID reports whether a record was already written for the transaction
func (r *PaymentRecordRepository) ExistsByTransactionID(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	collection := r.db.Collection(persistence.PaymentRecordsCollection)

	filter := bson.M{"transaction_id": transactionID}
	count, err := collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("Failed to count payment records",
			"transaction_id", transactionID.String(),
			"error", err)
		return false, fmt.Errorf("failed to count payment records: %w", err)
	}

	return count > 0, nil
}
