package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	logger   *slog.Logger
	txRepo   transaction.Repository
	store    provider.ConfigStore
	recorder TransitionRecorder
	eventLog record.EventLog
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	txRepo transaction.Repository,
	store provider.ConfigStore,
	recorder TransitionRecorder,
	eventLog record.EventLog,
) TransactionService {
	return &TransactionServiceImpl{
		logger:   logger.With("component", "TransactionService"),
		txRepo:   txRepo,
		store:    store,
		recorder: recorder,
		eventLog: eventLog,
	}
}

// Create stores a draft transaction for an existing provider and announces it
func (s *TransactionServiceImpl) Create(ctx context.Context, req CreateTransactionRequest) (*transaction.Transaction, error) {
	if _, err := s.store.GetByID(ctx, req.ProviderID); err != nil {
		if isProviderNotFound(err) {
			return nil, ErrInvalidProvider
		}
		return nil, err
	}

	tx, err := transaction.NewTransaction(req.Reference, req.ProviderID, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create transaction",
			"reference", tx.Reference,
			"provider_id", tx.ProviderID,
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		"transaction_id", tx.ID,
		"reference", tx.Reference,
		"amount", tx.Amount.String(),
	)
	s.recorder.Announce(ctx, tx, "", shared.EventSourceAdmin)
	return tx, nil
}

// Get retrieves a transaction by its ID
func (s *TransactionServiceImpl) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if !isTransactionNotFound(err) {
			s.logger.ErrorContext(ctx, "Failed to get transaction", "transaction_id", id, "error", err)
		}
		return nil, err
	}
	return tx, nil
}

// History returns the recorded state changes of a transaction, newest first
func (s *TransactionServiceImpl) History(ctx context.Context, id uuid.UUID, limit int) ([]*shared.StateChangedEvent, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	events, err := s.eventLog.ListByTransactionID(ctx, id, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list transaction events", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to list transaction events: %w", err)
	}
	return events, nil
}
