package components

import (
	"log/slog"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/domain/record"
	"github.com/ifthenpay-gateway/internal/payment_processor/service"
)

// CreateProcessingService creates a new EventProcessingService with all its dependencies.
func CreateProcessingService(
	eventLog record.EventLog,
	logger *slog.Logger,
	cfg *config.Config,
) service.EventProcessingService {
	validator := NewEventValidator(logger.With("component", "event_validator"))
	recorder := NewEventRecorder(eventLog, logger.With("component", "event_recorder"))

	baseService := service.NewEventProcessingService(validator, recorder, logger)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
