package payment_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/payment_gateway/handler"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Payments       service.PaymentService
	Methods        service.MethodsService
	Reconciliation service.ReconciliationService
	Providers      service.ProviderService
	Transactions   service.TransactionService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	httpRouter      *gin.Engine
	shutdownTimeout time.Duration
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	h := handlers{
		checkout:     handler.NewCheckoutHandler(log, services.Payments, services.Methods, services.Reconciliation),
		notification: handler.NewNotificationHandler(log, services.Reconciliation),
		iframe:       handler.NewReturnHandler(log, services.Reconciliation),
		provider:     handler.NewProviderHandler(log, services.Providers),
		transaction:  handler.NewTransactionHandler(log, services.Transactions),
	}

	if err := setupRouter(log, httpRouter, cfg.Security, h); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within the configured shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
