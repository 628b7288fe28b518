package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/domain/outbox"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// Poller moves payment records from the Postgres outbox to MongoDB
type Poller struct {
	outboxRepo  outbox.Repository
	publisher   RecordPublisher
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher RecordPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:  outboxRepo,
		publisher:   publisher,
		logger:      logger.With("component", "OutboxPoller"),
		interval:    cfg.PollingInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxRetryAttempts,
	}
}

// Start drains the outbox once, then on every tick until ctx is cancelled.
// Records confirmed while the processor was down are published without waiting a full interval.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"interval", p.interval.String(),
		"batch_size", p.batchSize,
		"max_attempts", p.maxAttempts,
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.processPendingMessages(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("Outbox batch failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	published, failed := 0, 0
	for _, msg := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := p.publisher.Publish(ctx, msg); err != nil {
			failed++
			p.recordFailure(ctx, msg, err)
			continue
		}
		published++
	}

	p.logger.Info("Outbox batch done", "fetched", len(messages), "published", published, "failed", failed)
	return nil
}

// recordFailure counts the attempt and gives up on the message once maxAttempts is reached
func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With(
		"outbox_id", msg.ID,
		"transaction_id", msg.TransactionID.String(),
		"reference", msg.Reference,
	)
	logger.Warn("Failed to publish payment record", "attempt", msg.Attempts+1, "error", cause)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment outbox attempts", "error", err)
		return
	}

	if msg.Attempts+1 < p.maxAttempts {
		return
	}

	logger.Error("Payment record abandoned after max attempts, manual replay required", "attempts", msg.Attempts+1)
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "error", err)
	}
}
