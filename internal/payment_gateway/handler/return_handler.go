package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
)

// IframeCallbackPath is the page the return redirect hands the parameters to
const IframeCallbackPath = "/payment/ifthenpay/iframe_callback"

const (
	titleReturnError        = "An error occurred while processing the payment:"
	msgInvalidReturn        = "Invalid or expired transaction."
	msgProviderConfig       = "Payment provider configuration error."
	msgReturnProcessingFail = "The payment with ifthenpay failed. Please try again."
)

// ReturnHandler renders the pages the browser lands on when leaving the hosted payment page
type ReturnHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReturnHandler {
	return &ReturnHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Redirect hands the return parameters to the parent checkout window, or navigates to the
// callback page itself when it is not framed.
func (h *ReturnHandler) Redirect(c *gin.Context) {
	ctx := c.Request.Context()

	// Fields bind before validation, so the page still forwards whatever arrived
	var query ReturnQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.DebugContext(ctx, "iframe return with invalid query", "error", err)
	}

	h.logger.InfoContext(ctx, "iframe return received",
		"reference", query.Reference,
		"status", query.Status,
	)

	params := query.values()
	c.HTML(http.StatusOK, templateIframeRedirect, gin.H{
		"Params":      flatten(params),
		"CallbackURL": IframeCallbackPath + "?" + params.Encode(),
	})
}

// Callback reconciles the transaction and renders the status posted back to the checkout page
func (h *ReturnHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	var query ReturnQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.DebugContext(ctx, "iframe callback with invalid query", "error", err)
		h.renderError(c, msgInvalidReturn)
		return
	}

	outcome, err := h.reconciliationService.HandleReturn(ctx, service.ReturnParams{
		Reference: query.Reference,
		Amount:    query.Amount,
		Status:    query.Status,
		TxID:      query.TxID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReturn):
			h.renderError(c, msgInvalidReturn)
		case errors.Is(err, service.ErrProviderConfiguration):
			h.renderError(c, msgProviderConfig)
		default:
			h.logger.ErrorContext(ctx, "Failed to process iframe return", "reference", query.Reference, "error", err)
			h.renderError(c, msgReturnProcessingFail)
		}
		return
	}

	c.HTML(http.StatusOK, templateIframeStatus, gin.H{
		"Status":  outcome.Status,
		"Message": outcome.Message,
	})
}

func (h *ReturnHandler) renderError(c *gin.Context, message string) {
	c.HTML(http.StatusOK, templateIframeError, gin.H{
		"Title":   titleReturnError,
		"Message": message,
	})
}

func (q ReturnQuery) values() url.Values {
	v := url.Values{}
	for key, value := range map[string]string{
		"reference": q.Reference,
		"amount":    q.Amount,
		"status":    q.Status,
		"txid":      q.TxID,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}

func flatten(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for key := range v {
		out[key] = v.Get(key)
	}
	return out
}
