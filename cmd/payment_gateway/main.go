package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/data/cache"
	"github.com/ifthenpay-gateway/internal/data/mongo"
	"github.com/ifthenpay-gateway/internal/data/postgres"
	"github.com/ifthenpay-gateway/internal/logger"
	"github.com/ifthenpay-gateway/internal/payment_gateway"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/ifthenpay-gateway/internal/platform/messaging/producers"
	"github.com/ifthenpay-gateway/internal/platform/persistence"
	"github.com/ifthenpay-gateway/internal/platform/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("payment_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	shutdownTracing, err := telemetry.InitTracing(appCtx, log, cfg.Telemetry)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Migrations run before the pool is opened
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedis(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	stateProducer, err := producers.NewStateEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize state event producer", "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	client := ifthenpay.NewClient(log, cfg.Ifthenpay, ifthenpay.WithObserver(metrics))

	// Initialize repositories
	providerRepo := postgres.NewProviderRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	eventLog := mongo.NewTransactionEventRepository(log, mongoDB.Database())
	methodCache := cache.NewMethodCatalogCache(log, redisClient, cfg.Ifthenpay.MethodsCacheTTL)

	// Initialize services
	recorder := service.NewStateRecorder(log, transactionRepo, outboxRepo, postgresDB, stateProducer, metrics)
	poller := service.NewStatusPoller(log, client, metrics, cfg.Ifthenpay.PollMaxAttempts, cfg.Ifthenpay.PollWait)
	services := payment_gateway.Services{
		Payments:       service.NewPaymentService(log, providerRepo, transactionRepo, client, cfg.Ifthenpay.CMSLabel),
		Methods:        service.NewMethodsService(log, providerRepo, client, methodCache),
		Reconciliation: service.NewReconciliationService(log, transactionRepo, providerRepo, recorder, poller, metrics),
		Providers:      service.NewProviderService(log, providerRepo, client),
		Transactions:   service.NewTransactionService(log, transactionRepo, providerRepo, recorder, eventLog),
	}

	server, err := payment_gateway.NewServer(log, cfg, services)
	if err != nil {
		log.Error("Failed to initialize HTTP server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = stateProducer.Close(); err != nil {
		log.Error("Error closing state event producer", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if err = shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
