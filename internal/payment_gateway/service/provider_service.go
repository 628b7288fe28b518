package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// ProviderServiceImpl implements the ProviderService interface
type ProviderServiceImpl struct {
	logger *slog.Logger
	store  provider.ConfigStore
	client AggregatorClient
}

// NewProviderService creates a new provider service
func NewProviderService(logger *slog.Logger, store provider.ConfigStore, client AggregatorClient) ProviderService {
	return &ProviderServiceImpl{
		logger: logger.With("component", "ProviderService"),
		store:  store,
		client: client,
	}
}

// Create stores a new provider without credential
func (s *ProviderServiceImpl) Create(ctx context.Context, req CreateProviderRequest) (*provider.Provider, error) {
	p, err := provider.NewProvider(req.Name, req.State, req.CallbackBaseURL)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create provider", "name", p.Name, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Provider created", "provider_id", p.ID, "state", string(p.State))
	return p, nil
}

// Get retrieves a provider by its ID
func (s *ProviderServiceImpl) Get(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	return s.store.GetByID(ctx, id)
}

// SetState changes the administrative state of a provider
func (s *ProviderServiceImpl) SetState(ctx context.Context, id uuid.UUID, state shared.ProviderState) (*provider.Provider, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.SetState(state); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update provider state", "provider_id", id, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Provider state changed", "provider_id", id, "state", string(state))
	return p, nil
}

// UpdateCredential replaces the API key of a provider. An empty key clears the cached
// integration; any other key is checked against the aggregator and the webhook is activated.
func (s *ProviderServiceImpl) UpdateCredential(ctx context.Context, id uuid.UUID, apiKey string) (*provider.Provider, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.SetCredential(apiKey)
	if p.HasCredential() {
		integration, err := fetchIntegration(ctx, s.client, p)
		if err != nil {
			return nil, err
		}
		if integration == nil {
			return nil, ErrProviderDisabled
		}
		p.ApplyIntegration(integration)

		activation := ifthenpay.CallbackActivation{
			AntiPhishingKey: integration.TokenAPI,
			GatewayKey:      integration.GatewayKey,
			CallbackURL:     ifthenpay.CallbackURL(p.CallbackBase()),
		}
		if err := s.client.ActivateCallback(ctx, activation); err != nil {
			return nil, fmt.Errorf("failed to activate ifthenpay callback: %w", err)
		}
	}

	if err := s.store.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist provider credential", "provider_id", id, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Provider credential updated",
		"provider_id", id,
		"configured", p.HasCredential(),
		"store_name", p.StoreName,
	)
	return p, nil
}

// FetchIntegration refreshes the cached integration of an enabled provider
func (s *ProviderServiceImpl) FetchIntegration(ctx context.Context, id uuid.UUID) (*provider.Integration, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasCredential() {
		return nil, ErrMissingCredential
	}

	integration, err := fetchIntegration(ctx, s.client, p)
	if err != nil || integration == nil {
		return nil, err
	}

	p.ApplyIntegration(integration)
	if err := s.store.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist provider integration", "provider_id", id, "error", err)
		return nil, err
	}
	return integration, nil
}

// fetchIntegration returns nil, nil for a provider that is not enabled without calling the aggregator
func fetchIntegration(ctx context.Context, client AggregatorClient, p *provider.Provider) (*provider.Integration, error) {
	if !p.IsEnabled() {
		return nil, nil
	}
	integration, err := client.FetchIntegration(ctx, p.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ifthenpay integration: %w", err)
	}
	return integration, nil
}
