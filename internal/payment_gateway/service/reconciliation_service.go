package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/shopspring/decimal"
)

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	logger   *slog.Logger
	txRepo   transaction.Repository
	store    provider.ConfigStore
	recorder TransitionRecorder
	poller   StatusPoller
	metrics  Metrics
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	logger *slog.Logger,
	txRepo transaction.Repository,
	store provider.ConfigStore,
	recorder TransitionRecorder,
	poller StatusPoller,
	metrics Metrics,
) ReconciliationService {
	return &ReconciliationServiceImpl{
		logger:   logger.With("component", "ReconciliationService"),
		txRepo:   txRepo,
		store:    store,
		recorder: recorder,
		poller:   poller,
		metrics:  metrics,
	}
}

// HandleNotification confirms or rejects a transaction from a webhook. A forged token or a
// wrong amount moves an unconfirmed transaction to error and is not reported as a failure;
// a confirmed transaction keeps its state.
func (s *ReconciliationServiceImpl) HandleNotification(ctx context.Context, n Notification) error {
	reference := strings.TrimSpace(n.Reference)
	if reference == "" {
		s.logger.ErrorContext(ctx, "Notification without reference")
		s.metrics.ObserveNotification(NotificationRejected)
		return ErrMissingReference
	}

	amount, err := parseAmount(n.Amount)
	if err != nil {
		s.logger.ErrorContext(ctx, "Notification with invalid amount", "reference", reference, "amount", n.Amount)
		s.metrics.ObserveNotification(NotificationRejected)
		return err
	}

	tx, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		if isTransactionNotFound(err) {
			s.logger.ErrorContext(ctx, "Notification for unknown transaction", "reference", reference, "amount", amount.String())
			s.metrics.ObserveNotification(NotificationNotFound)
		}
		return err
	}

	p, err := s.loadProvider(ctx, tx)
	if err != nil {
		return err
	}

	if !p.VerifyToken(n.Token) {
		s.logger.WarnContext(ctx, "Notification token does not match the configured API key, possible fraud attempt",
			"reference", reference,
			"transaction_id", tx.ID,
		)
		s.metrics.ObserveNotification(NotificationInvalidToken)
		return s.apply(ctx, tx, shared.EventSourceWebhook, func(t *transaction.Transaction) error {
			return t.SetError(MessageInvalidToken)
		})
	}

	if !tx.AmountMatches(amount) {
		s.logger.WarnContext(ctx, "Notification amount mismatch",
			"reference", reference,
			"expected", tx.Amount.String(),
			"received", amount.String(),
		)
		s.metrics.ObserveNotification(NotificationAmountMismatch)
		return s.apply(ctx, tx, shared.EventSourceWebhook, func(t *transaction.Transaction) error {
			return t.SetError(MessageAmountMismatch)
		})
	}

	err = s.recorder.Apply(ctx, tx, shared.EventSourceWebhook, func(t *transaction.Transaction) error {
		return t.SetDone(t.ConfirmedProviderReference())
	})
	switch {
	case err == nil:
		s.metrics.ObserveNotification(NotificationConfirmed)
		s.logger.InfoContext(ctx, "Transaction confirmed by notification",
			"reference", reference,
			"state", string(tx.State),
			"payment_record", tx.RequiresPaymentRecord(),
		)
		return nil
	case errors.Is(err, transaction.ErrStateUnchanged):
		s.metrics.ObserveNotification(NotificationDuplicate)
		s.logger.InfoContext(ctx, "Duplicate notification ignored", "reference", reference)
		return nil
	case errors.Is(err, transaction.ErrInvalidTransition{}):
		s.metrics.ObserveNotification(NotificationRejected)
		s.logger.WarnContext(ctx, "Notification ignored for transaction in final state",
			"reference", reference,
			"state", string(tx.State),
		)
		return nil
	default:
		return err
	}
}

// HandleReturn settles what it can from a browser return. A cancel return always reports
// pending and an error return always reports failure; any other return reports the final state.
func (s *ReconciliationServiceImpl) HandleReturn(ctx context.Context, params ReturnParams) (ReturnOutcome, error) {
	reference := strings.TrimSpace(params.Reference)
	amount, err := parseAmount(params.Amount)
	if reference == "" || err != nil {
		s.logger.ErrorContext(ctx, "Browser return with invalid parameters", "reference", reference, "amount", params.Amount)
		return ReturnOutcome{}, ErrInvalidReturn
	}

	tx, err := s.txRepo.GetByReferenceAndAmount(ctx, reference, amount, provider.DefaultCode)
	if err != nil {
		if isTransactionNotFound(err) {
			s.logger.ErrorContext(ctx, "Browser return for unknown transaction", "reference", reference, "amount", amount.String())
			return ReturnOutcome{}, ErrInvalidReturn
		}
		return ReturnOutcome{}, err
	}

	if _, err := s.loadProvider(ctx, tx); err != nil {
		return ReturnOutcome{}, err
	}

	switch params.Status {
	case ifthenpay.ReturnStatusCancel:
		// The hosted page routes its completion button through the close URL
		err = s.apply(ctx, tx, shared.EventSourceIframe, func(t *transaction.Transaction) error {
			return t.SetPending(MessageAwaitingConfirmation)
		})
		if tx, err = s.reloadOnConflict(ctx, tx, err); err != nil {
			return ReturnOutcome{}, err
		}
		return ReturnOutcome{Reference: tx.Reference, Status: OutcomePending, Message: MessagePaymentPending}, nil

	case ifthenpay.ReturnStatusError:
		s.logger.WarnContext(ctx, "Error return received", "reference", reference, "state", string(tx.State))
		if tx.State != shared.TransactionStateCancel && tx.State != shared.TransactionStateError {
			err = s.apply(ctx, tx, shared.EventSourceIframe, func(t *transaction.Transaction) error {
				return t.SetError(MessageReturnError)
			})
		}
		if tx, err = s.reloadOnConflict(ctx, tx, err); err != nil {
			return ReturnOutcome{}, err
		}
		message := tx.StateMessage
		if message == "" {
			message = MessageReturnFailed
		}
		return ReturnOutcome{Reference: tx.Reference, Status: OutcomeFailed, Message: message}, nil
	}

	if tx.State == shared.TransactionStateDraft {
		err = s.settleDraft(ctx, tx, strings.TrimSpace(params.TxID))
	}
	if tx, err = s.reloadOnConflict(ctx, tx, err); err != nil {
		return ReturnOutcome{}, err
	}
	return outcomeFor(tx), nil
}

// CheckStatus maps the local transaction state onto the checkout status vocabulary
func (s *ReconciliationServiceImpl) CheckStatus(ctx context.Context, reference string) (StatusView, error) {
	tx, err := s.txRepo.GetByReference(ctx, strings.TrimSpace(reference))
	if err != nil {
		if isTransactionNotFound(err) {
			s.logger.WarnContext(ctx, "Status requested for unknown transaction", "reference", reference)
			return StatusView{Status: StatusError, Message: MessageStatusNotFound}, nil
		}
		return StatusView{}, err
	}

	switch tx.State {
	case shared.TransactionStateDone:
		return StatusView{Status: StatusSuccess}, nil
	case shared.TransactionStatePending:
		return StatusView{Status: StatusPending}, nil
	case shared.TransactionStateCancel:
		return StatusView{Status: StatusError, Message: MessageStatusCanceled}, nil
	case shared.TransactionStateError:
		return StatusView{Status: StatusError, Message: MessageStatusError}, nil
	default:
		return StatusView{Status: StatusProcessing, Message: MessageStatusProcessing}, nil
	}
}

// settleDraft polls the aggregator when a transaction id came back, and confirms instantly
// settled methods. Everything else waits for the webhook.
func (s *ReconciliationServiceImpl) settleDraft(ctx context.Context, tx *transaction.Transaction, txid string) error {
	if txid != "" && txid != ifthenpay.TransactionIDPlaceholder {
		status, err := s.poller.Poll(ctx, txid)
		if err != nil {
			return err
		}
		if status.IsSettled() {
			return s.apply(ctx, tx, shared.EventSourceStatus, func(t *transaction.Transaction) error {
				return t.SetDone(t.ConfirmedProviderReference())
			})
		}
	}
	return s.apply(ctx, tx, shared.EventSourceIframe, func(t *transaction.Transaction) error {
		return t.SetPending(MessageAwaitingConfirmation)
	})
}

// apply records a transition and swallows the lifecycle refusals
func (s *ReconciliationServiceImpl) apply(ctx context.Context, tx *transaction.Transaction, source shared.EventSource, change func(*transaction.Transaction) error) error {
	err := s.recorder.Apply(ctx, tx, source, change)
	if errors.Is(err, transaction.ErrStateUnchanged) || errors.Is(err, transaction.ErrInvalidTransition{}) {
		s.logger.InfoContext(ctx, "Transition skipped",
			"reference", tx.Reference,
			"state", string(tx.State),
			"reason", err.Error(),
		)
		return nil
	}
	return err
}

// reloadOnConflict fetches the winning version when another writer changed the transaction first
func (s *ReconciliationServiceImpl) reloadOnConflict(ctx context.Context, tx *transaction.Transaction, err error) (*transaction.Transaction, error) {
	if !errors.Is(err, transaction.ErrConcurrentModification{}) {
		return tx, err
	}
	s.logger.InfoContext(ctx, "Transaction changed concurrently, reloading", "reference", tx.Reference)
	return s.txRepo.GetByID(ctx, tx.ID)
}

func (s *ReconciliationServiceImpl) loadProvider(ctx context.Context, tx *transaction.Transaction) (*provider.Provider, error) {
	p, err := s.store.GetByID(ctx, tx.ProviderID)
	if err != nil {
		if isProviderNotFound(err) {
			s.logger.ErrorContext(ctx, "Transaction references a missing provider",
				"reference", tx.Reference,
				"provider_id", tx.ProviderID,
			)
			return nil, ErrProviderConfiguration
		}
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	return p, nil
}

func outcomeFor(tx *transaction.Transaction) ReturnOutcome {
	outcome := ReturnOutcome{Reference: tx.Reference}
	switch tx.State {
	case shared.TransactionStateDone:
		outcome.Status = OutcomeSuccess
		outcome.Message = MessagePaymentSucceeded
	case shared.TransactionStateCancel, shared.TransactionStateError:
		outcome.Status = OutcomeFailed
		outcome.Message = tx.StateMessage
		if outcome.Message == "" {
			outcome.Message = MessagePaymentFailed
		}
	default:
		outcome.Status = OutcomePending
		outcome.Message = MessagePaymentPending
	}
	return outcome
}

// parseAmount reads a decimal amount; an empty value counts as zero
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return amount, nil
}
