package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ifthenpay-gateway/internal/domain/outbox"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// RecordPublisher publishes outbox messages as payment records
type RecordPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// RecordPublisherImpl implements RecordPublisher
type RecordPublisherImpl struct {
	outboxRepo outbox.Repository
	recordRepo record.Repository
	logger     *slog.Logger
}

// NewRecordPublisher creates a new publisher
func NewRecordPublisher(
	outboxRepo outbox.Repository,
	recordRepo record.Repository,
	logger *slog.Logger,
) RecordPublisher {
	return &RecordPublisherImpl{
		outboxRepo: outboxRepo,
		recordRepo: recordRepo,
		logger:     logger,
	}
}

// Publish writes the payment record carried by message to MongoDB and marks the message PROCESSED.
// A record that already exists for the transaction counts as published.
func (p *RecordPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	rec, err := message.PaymentRecord()
	if err != nil {
		p.logger.Error("Failed to unmarshal payment record from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("reference", rec.Reference)
	logger.Info("Publishing payment record", "outbox_id", message.ID, "transaction_id", message.TransactionID)

	exists, err := p.recordRepo.ExistsByTransactionID(ctx, rec.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to check existing payment record %s: %w", rec.TransactionID, err)
	}

	if exists {
		logger.Info("Payment record already exists", "transaction_id", rec.TransactionID)
	} else if err := p.recordRepo.Create(ctx, rec); err != nil {
		if !errors.Is(err, record.ErrDuplicateRecord{}) {
			return fmt.Errorf("failed to create payment record %s: %w", rec.TransactionID, err)
		}
		logger.Info("Payment record created concurrently", "transaction_id", rec.TransactionID)
	} else {
		logger.Info("Created payment record in MongoDB", "transaction_id", rec.TransactionID, "amount", rec.Amount)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("payment record for %s written, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox message marked as PROCESSED", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
