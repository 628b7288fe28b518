package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
)

// NotificationFailure is the only failure body the aggregator ever sees
const NotificationFailure = "Error: Internal server error"

// NotificationHandler receives the aggregator server-to-server callback
type NotificationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *NotificationHandler {
	return &NotificationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Callback accepts the notification as query string or form body. Any failure is answered with a
// generic 400 so that no detail leaks to the caller.
func (h *NotificationHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	var params NotificationParams
	if err := c.ShouldBindWith(&params, binding.Form); err != nil {
		h.logger.ErrorContext(ctx, "Unreadable ifthenpay notification", "error", err)
		c.String(http.StatusBadRequest, NotificationFailure)
		return
	}

	h.logger.InfoContext(ctx, "ifthenpay notification received",
		"reference", params.Reference,
		"amount", params.Amount,
	)

	err := h.reconciliationService.HandleNotification(ctx, service.Notification{
		Reference: params.Reference,
		Amount:    params.Amount,
		Token:     params.Token,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to process ifthenpay notification", "reference", params.Reference, "error", err)
		c.String(http.StatusBadRequest, NotificationFailure)
		return
	}

	c.String(http.StatusOK, "OK")
}
