package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
)

// TransactionHandler handles HTTP requests for transaction administration
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create registers a draft transaction the checkout can later submit
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		h.logger.Error("Invalid provider ID", "provider_id", req.ProviderID, "error", err)
		RespondBadRequest(c, "Invalid provider ID")
		return
	}

	tx, err := h.transactionService.Create(c.Request.Context(), service.CreateTransactionRequest{
		ProviderID: providerID,
		Reference:  req.Reference,
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		var duplicate transaction.ErrDuplicateReference
		switch {
		case errors.Is(err, service.ErrInvalidProvider):
			RespondBadRequest(c, "Invalid provider")
		case errors.Is(err, transaction.ErrEmptyReference),
			errors.Is(err, transaction.ErrInvalidAmount),
			errors.Is(err, shared.ErrUnsupportedCurrency):
			RespondBadRequest(c, err.Error())
		case errors.As(err, &duplicate):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to create transaction", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	tx, err := h.transactionService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransactionToResponse(tx))
}

// History lists the state changes recorded for a transaction, newest first
func (h *TransactionHandler) History(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	var query HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid limit")
		return
	}

	events, err := h.transactionService.History(c.Request.Context(), id, query.Limit)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction history", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEventsToResponse(events))
}
