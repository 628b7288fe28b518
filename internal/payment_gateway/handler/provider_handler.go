package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/sony/gobreaker"
)

// ProviderHandler handles HTTP requests for provider administration
type ProviderHandler struct {
	providerService service.ProviderService
	logger          *slog.Logger
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(logger *slog.Logger, providerService service.ProviderService) *ProviderHandler {
	return &ProviderHandler{
		providerService: providerService,
		logger:          logger,
	}
}

// Create registers a provider without credential. State defaults to disabled.
func (h *ProviderHandler) Create(c *gin.Context) {
	var req CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.State == "" {
		req.State = string(shared.ProviderStateDisabled)
	}

	p, err := h.providerService.Create(c.Request.Context(), service.CreateProviderRequest{
		Name:            req.Name,
		State:           shared.ProviderState(req.State),
		CallbackBaseURL: req.CallbackBaseURL,
	})
	if err != nil {
		h.respondError(c, "Failed to create provider", err)
		return
	}

	RespondCreated(c, mapProviderToResponse(p))
}

// GetByID retrieves provider details by its ID, returns 404 if not found
func (h *ProviderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.providerService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get provider", err)
		return
	}

	RespondOK(c, mapProviderToResponse(p))
}

// UpdateCredential validates and stores a new API key
func (h *ProviderHandler) UpdateCredential(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.providerService.UpdateCredential(c.Request.Context(), id, req.APIKey)
	if err != nil {
		h.respondError(c, "Failed to update provider credential", err)
		return
	}

	RespondOK(c, mapProviderToResponse(p))
}

// SetState changes the administrative state of a provider
func (h *ProviderHandler) SetState(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetProviderStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.providerService.SetState(c.Request.Context(), id, shared.ProviderState(req.State))
	if err != nil {
		h.respondError(c, "Failed to set provider state", err)
		return
	}

	RespondOK(c, mapProviderToResponse(p))
}

// RefreshIntegration fetches the account configuration again and caches it on the provider
func (h *ProviderHandler) RefreshIntegration(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	integration, err := h.providerService.FetchIntegration(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to refresh provider integration", err)
		return
	}
	if integration == nil {
		RespondConflict(c, "Provider is disabled")
		return
	}

	RespondOK(c, mapIntegrationToResponse(integration))
}

func (h *ProviderHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid provider ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid provider ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProviderHandler) respondError(c *gin.Context, msg string, err error) {
	var (
		apiErr   *ifthenpay.APIError
		conflict provider.ErrConcurrentModification
	)

	switch {
	case errors.Is(err, provider.ErrProviderNotFound{}):
		RespondNotFound(c, "Provider not found")
	case errors.Is(err, provider.ErrEmptyName), errors.Is(err, provider.ErrInvalidState):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, service.ErrMissingCredential):
		RespondBadRequest(c, "Provider has no API key")
	case errors.Is(err, service.ErrProviderDisabled):
		RespondConflict(c, "Provider is disabled")
	case errors.As(err, &conflict):
		RespondConflict(c, "Provider was modified concurrently, retry the request")
	case errors.As(err, &apiErr),
		errors.Is(err, ifthenpay.ErrUnexpectedResponse),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		h.logger.Warn(msg, "error", err)
		RespondBadGateway(c, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		RespondInternalError(c)
	}
}
