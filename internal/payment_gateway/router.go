package payment_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/payment_gateway/handler"
	"github.com/ifthenpay-gateway/internal/payment_gateway/middleware"
	"github.com/ifthenpay-gateway/internal/platform/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handlers groups the HTTP handlers mounted by setupRouter
type handlers struct {
	checkout     *handler.CheckoutHandler
	notification *handler.NotificationHandler
	iframe       *handler.ReturnHandler
	provider     *handler.ProviderHandler
	transaction  *handler.TransactionHandler
}

// setupRouter configures routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, security config.SecurityConfig, h handlers) error {
	callbackFilter, err := middleware.IPFilter(logger, security.CallbackAllowedIPs)
	if err != nil {
		return err
	}

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(telemetry.TracingMiddleware())
	r.SetHTMLTemplate(handler.Templates())

	// Checkout, aggregator and browser return endpoints
	payment := r.Group("/payment/ifthenpay")
	{
		payment.POST("/submit_payment", h.checkout.SubmitPayment)
		payment.POST("/get_payment_methods_icons", h.checkout.PaymentMethods)
		payment.POST("/check_transaction_status", h.checkout.CheckStatus)

		callback := payment.Group("/s2s_callback",
			middleware.RecoveryWith(logger, func(c *gin.Context) {
				c.String(http.StatusBadRequest, handler.NotificationFailure)
			}),
			callbackFilter,
			middleware.BodyLimit(security.MaxRequestBodyBytes),
		)
		{
			callback.GET("", h.notification.Callback)
			callback.POST("", h.notification.Callback)
		}

		payment.GET("/iframe_redirect", h.iframe.Redirect)
		payment.GET("/iframe_callback", h.iframe.Callback)
	}

	// Administration API
	v1 := r.Group("/api/v1", middleware.InternalAuth(logger, security.InternalSecret))
	{
		providers := v1.Group("/providers")
		{
			providers.POST("", h.provider.Create)
			providers.GET("/:id", h.provider.GetByID)
			providers.PUT("/:id/credential", h.provider.UpdateCredential)
			providers.PUT("/:id/state", h.provider.SetState)
			providers.POST("/:id/integration", h.provider.RefreshIntegration)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", h.transaction.Create)
			transactions.GET("/:id", h.transaction.GetByID)
			transactions.GET("/:id/events", h.transaction.History)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return nil
}
