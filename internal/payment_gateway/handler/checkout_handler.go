package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// Messages returned to the checkout script
const (
	msgInvalidProvider     = "Provedor de pagamento invalido."
	msgTransactionNotFound = "Transacao nao encontrada."
	msgUnsupportedMethod   = "Metodo de pagamento nao suportado."
	msgProviderDisabled    = "Unable to connect to ifthenpay because the provider is disabled."
	msgMethodsDisabled     = "Provider disable."
	msgMissingAPIKey       = "API Key for ifthenpay not configured."
	msgInvalidAPIResponse  = "Invalid API response from ifthenpay."
	msgMethodsUnreachable  = "Failed to connect to ifthenpay API: "
	msgInvalidRequest      = "Invalid request body."
)

// CheckoutHandler serves the JSON endpoints called by the checkout page
type CheckoutHandler struct {
	paymentService        service.PaymentService
	methodsService        service.MethodsService
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(
	logger *slog.Logger,
	paymentService service.PaymentService,
	methodsService service.MethodsService,
	reconciliationService service.ReconciliationService,
) *CheckoutHandler {
	return &CheckoutHandler{
		paymentService:        paymentService,
		methodsService:        methodsService,
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// SubmitPayment creates a hosted payment and returns its redirect URL.
// Failures are reported in the body with status 200 so the checkout script can display them.
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "Invalid submit payment body", "error", err)
		c.JSON(http.StatusOK, gin.H{"error": msgInvalidRequest})
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Invalid provider on payment submission", "provider_id", req.ProviderID)
		c.JSON(http.StatusOK, gin.H{"error": msgInvalidProvider})
		return
	}

	redirectURL, err := h.paymentService.InitiatePayment(ctx, service.SubmitPaymentRequest{
		ProviderID:    providerID,
		Reference:     req.Reference,
		PaymentMethod: req.PaymentMethod,
		ExtraData:     req.ExtraData,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to initiate payment", "reference", req.Reference, "error", err)
		c.JSON(http.StatusOK, gin.H{"error": submitErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

// PaymentMethods lists the aggregator methods enabled on the provider account
func (h *CheckoutHandler) PaymentMethods(c *gin.Context) {
	ctx := c.Request.Context()

	var req PaymentMethodsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "Invalid payment methods body", "error", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": msgInvalidRequest})
		return
	}

	methods, err := h.methodsService.AvailableMethods(ctx, req.ProviderCode)
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to list payment methods", "provider_code", req.ProviderCode, "error", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": methodsErrorMessage(err)})
		return
	}
	if methods == nil {
		methods = []ifthenpay.PaymentMethod{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": methods})
}

// CheckStatus reports the local state of a transaction to the waiting checkout page
func (h *CheckoutHandler) CheckStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var req CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "Invalid status check body", "error", err)
		c.JSON(http.StatusBadRequest, service.StatusView{Status: service.StatusError, Message: msgInvalidRequest})
		return
	}

	view, err := h.reconciliationService.CheckStatus(ctx, req.Reference)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to check transaction status", "reference", req.Reference, "error", err)
		c.JSON(http.StatusInternalServerError, service.StatusView{Status: service.StatusError, Message: service.MessageStatusError})
		return
	}

	c.JSON(http.StatusOK, view)
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidProvider):
		return msgInvalidProvider
	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		return msgTransactionNotFound
	case errors.Is(err, service.ErrUnsupportedMethod):
		return msgUnsupportedMethod
	case errors.Is(err, service.ErrProviderDisabled):
		return msgProviderDisabled
	default:
		return err.Error()
	}
}

func methodsErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrProviderDisabled):
		return msgMethodsDisabled
	case errors.Is(err, service.ErrMissingCredential):
		return msgMissingAPIKey
	case errors.Is(err, ifthenpay.ErrUnexpectedResponse):
		return msgInvalidAPIResponse
	default:
		return msgMethodsUnreachable + err.Error()
	}
}
