package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// MethodsServiceImpl implements the MethodsService interface
type MethodsServiceImpl struct {
	logger  *slog.Logger
	store   provider.ConfigStore
	client  AggregatorClient
	catalog MethodCatalog
}

// NewMethodsService creates a new methods service
func NewMethodsService(logger *slog.Logger, store provider.ConfigStore, client AggregatorClient, catalog MethodCatalog) MethodsService {
	return &MethodsServiceImpl{
		logger:  logger.With("component", "MethodsService"),
		store:   store,
		client:  client,
		catalog: catalog,
	}
}

// AvailableMethods returns the catalogue entries accepted by the provider's accounts
func (s *MethodsServiceImpl) AvailableMethods(ctx context.Context, providerCode string) ([]ifthenpay.PaymentMethod, error) {
	if providerCode == "" {
		providerCode = provider.DefaultCode
	}

	p, err := s.store.GetByCode(ctx, providerCode)
	if err != nil {
		if isProviderNotFound(err) {
			s.logger.WarnContext(ctx, "No provider configured", "code", providerCode)
			return nil, ErrMissingCredential
		}
		return nil, err
	}
	if !p.HasCredential() {
		s.logger.WarnContext(ctx, "Provider has no API key", "provider_id", p.ID)
		return nil, ErrMissingCredential
	}

	integration, err := fetchIntegration(ctx, s.client, p)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		s.logger.WarnContext(ctx, "Provider disabled, no integration available", "provider_id", p.ID)
		return nil, ErrProviderDisabled
	}

	methods, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}

	accounts := provider.ParseAccountKeys(integration.AccountKeys)
	filtered := make([]ifthenpay.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		if accounts.Accepts(strings.ToUpper(m.Entity)) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// catalogue reads the cached catalogue and falls back to the aggregator. Cache failures are logged only.
func (s *MethodsServiceImpl) catalogue(ctx context.Context) ([]ifthenpay.PaymentMethod, error) {
	methods, ok, err := s.catalog.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Method catalogue cache read failed", "error", err)
	}
	if ok {
		return methods, nil
	}

	methods, err = s.client.AvailableMethods(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.Set(ctx, methods); err != nil {
		s.logger.WarnContext(ctx, "Method catalogue cache write failed", "error", err)
	}
	return methods, nil
}
