package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// StatusPollerImpl implements the StatusPoller interface
type StatusPollerImpl struct {
	logger      *slog.Logger
	client      AggregatorClient
	metrics     Metrics
	maxAttempts int
	wait        time.Duration
}

// NewStatusPoller creates a poller making at most maxAttempts calls, wait apart
func NewStatusPoller(logger *slog.Logger, client AggregatorClient, metrics Metrics, maxAttempts int, wait time.Duration) StatusPoller {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &StatusPollerImpl{
		logger:      logger.With("component", "StatusPoller"),
		client:      client,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		wait:        wait,
	}
}

// Poll retries while the aggregator answers that the status is not available yet.
// Any other failure, exhaustion or cancellation yields nil, nil.
func (p *StatusPollerImpl) Poll(ctx context.Context, transactionID string) (*ifthenpay.TransactionStatus, error) {
	attempt := 0
	defer func() { p.metrics.ObservePollAttempts(attempt) }()

	for attempt < p.maxAttempts {
		attempt++
		status, err := p.client.TransactionStatus(ctx, transactionID)
		if err == nil {
			p.logger.InfoContext(ctx, "Transaction status received",
				"txid", transactionID,
				"attempt", attempt,
				"payment_method", status.PaymentMethod,
			)
			return status, nil
		}
		if !errors.Is(err, ifthenpay.ErrStatusNotAvailable) {
			p.logger.ErrorContext(ctx, "Transaction status request failed", "txid", transactionID, "attempt", attempt, "error", err)
			return nil, nil
		}
		if attempt == p.maxAttempts {
			break
		}

		p.logger.DebugContext(ctx, "Transaction status not yet available", "txid", transactionID, "attempt", attempt)
		select {
		case <-ctx.Done():
			p.logger.WarnContext(ctx, "Status polling interrupted", "txid", transactionID, "attempt", attempt)
			return nil, nil
		case <-time.After(p.wait):
		}
	}

	p.logger.WarnContext(ctx, "Transaction status unavailable after polling", "txid", transactionID, "attempts", attempt)
	return nil, nil
}
