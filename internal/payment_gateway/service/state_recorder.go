package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/outbox"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/logger"
	"github.com/ifthenpay-gateway/internal/platform/messaging/producers"
	"github.com/jackc/pgx/v5"
)

// StateRecorder applies a transition to a transaction, persists it and announces it.
// A confirmed invoice payment is stored together with its outbox row.
type StateRecorder struct {
	logger     *slog.Logger
	txRepo     transaction.Repository
	outboxRepo outbox.Repository
	txExecutor TxExecutor
	publisher  producers.StateEventPublisher
	metrics    Metrics
}

// NewStateRecorder creates a new state recorder
func NewStateRecorder(
	logger *slog.Logger,
	txRepo transaction.Repository,
	outboxRepo outbox.Repository,
	txExecutor TxExecutor,
	publisher producers.StateEventPublisher,
	metrics Metrics,
) *StateRecorder {
	return &StateRecorder{
		logger:     logger.With("component", "StateRecorder"),
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		txExecutor: txExecutor,
		publisher:  publisher,
		metrics:    metrics,
	}
}

// Apply runs change on tx and persists the result. Errors from change are returned untouched
// (transaction.ErrStateUnchanged, transaction.ErrInvalidTransition) and nothing is written.
// On a persistence failure tx is restored to its previous value.
func (r *StateRecorder) Apply(ctx context.Context, tx *transaction.Transaction, source shared.EventSource, change func(*transaction.Transaction) error) error {
	snapshot := *tx
	if err := change(tx); err != nil {
		return err
	}

	withRecord := tx.State == shared.TransactionStateDone && tx.RequiresPaymentRecord()
	if err := r.persist(ctx, tx, withRecord); err != nil {
		*tx = snapshot
		r.logger.ErrorContext(ctx, "Failed to persist transaction state",
			"transaction_id", tx.ID,
			"reference", tx.Reference,
			"error", err,
		)
		return err
	}

	r.logger.InfoContext(ctx, "Transaction state changed",
		"transaction_id", tx.ID,
		"reference", tx.Reference,
		"from", string(snapshot.State),
		"to", string(tx.State),
		"source", string(source),
		"payment_record", withRecord,
	)
	r.metrics.ObserveStateTransition(string(snapshot.State), string(tx.State), string(source))
	r.Announce(ctx, tx, snapshot.State, source)
	return nil
}

// Announce publishes a StateChangedEvent. Publishing is best effort; failures are only logged.
func (r *StateRecorder) Announce(ctx context.Context, tx *transaction.Transaction, previous shared.TransactionState, source shared.EventSource) {
	event := &shared.StateChangedEvent{
		EventID:       uuid.New(),
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		ProviderID:    tx.ProviderID,
		PreviousState: previous,
		State:         tx.State,
		StateMessage:  tx.StateMessage,
		Source:        source,
		CorrelationID: logger.CorrelationID(ctx),
		OccurredAt:    tx.UpdatedAt,
	}
	if err := r.publisher.PublishStateChange(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish state change event",
			"transaction_id", tx.ID,
			"event_id", event.EventID,
			"error", err,
		)
	}
}

func (r *StateRecorder) persist(ctx context.Context, tx *transaction.Transaction, withRecord bool) error {
	if !withRecord {
		if err := r.txRepo.UpdateState(ctx, tx); err != nil {
			return fmt.Errorf("failed to update transaction state: %w", err)
		}
		return nil
	}

	return r.txExecutor.ExecuteTx(ctx, func(dbTx pgx.Tx) error {
		if err := r.txRepo.WithTx(dbTx).UpdateState(ctx, tx); err != nil {
			return fmt.Errorf("failed to update transaction state: %w", err)
		}

		outboxRepo := r.outboxRepo.WithTx(dbTx)
		_, err := outboxRepo.GetByTransactionID(ctx, tx.ID)
		if err == nil {
			r.logger.InfoContext(ctx, "Payment record already queued", "transaction_id", tx.ID)
			return nil
		}
		var notFound outbox.ErrMessageNotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to check outbox message: %w", err)
		}

		msg, err := outbox.NewMessage(record.NewPaymentRecord(tx))
		if err != nil {
			return fmt.Errorf("failed to build outbox message: %w", err)
		}
		if err := outboxRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}
		return nil
	})
}
