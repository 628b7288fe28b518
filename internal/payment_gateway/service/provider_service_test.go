package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProviderServiceImpl_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockProviderStore)
		svc := NewProviderService(newTestLogger(), store, new(MockAggregatorClient))

		store.On("Create", ctx, mock.AnythingOfType("*provider.Provider")).Return(nil).Once()

		p, err := svc.Create(ctx, CreateProviderRequest{Name: "ifthenpay", State: shared.ProviderStateTest, CallbackBaseURL: "https://pay.example.com/"})

		require.NoError(t, err)
		assert.Equal(t, provider.DefaultCode, p.Code)
		assert.Equal(t, shared.ProviderStateTest, p.State)
		assert.Equal(t, "https://pay.example.com", p.CallbackBaseURL)
		store.AssertExpectations(t)
	})

	t.Run("InvalidState", func(t *testing.T) {
		store := new(MockProviderStore)
		svc := NewProviderService(newTestLogger(), store, new(MockAggregatorClient))

		_, err := svc.Create(ctx, CreateProviderRequest{Name: "ifthenpay", State: "archived"})

		assert.ErrorIs(t, err, provider.ErrInvalidState)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestProviderServiceImpl_SetState(t *testing.T) {
	ctx := context.Background()
	store := new(MockProviderStore)
	svc := NewProviderService(newTestLogger(), store, new(MockAggregatorClient))
	p := sampleProvider()

	store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
	store.On("Update", ctx, p).Return(nil).Once()

	updated, err := svc.SetState(ctx, p.ID, shared.ProviderStateDisabled)

	require.NoError(t, err)
	assert.False(t, updated.IsEnabled())
	store.AssertExpectations(t)
}

func TestProviderServiceImpl_UpdateCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchesActivatesAndPersists", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p, _ := provider.NewProvider("ifthenpay", shared.ProviderStateEnabled, "https://pay.example.com")
		integration := sampleIntegration()

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		client.On("FetchIntegration", ctx, "NEW-KEY").Return(integration, nil).Once()
		client.On("ActivateCallback", ctx, ifthenpay.CallbackActivation{
			AntiPhishingKey: "AP-KEY",
			GatewayKey:      "GW-1",
			CallbackURL:     "https://pay.example.com/payment/ifthenpay/s2s_callback?amount=[AMOUNT]&reference=[ORDER_ID]&apk=[ANTI_PHISHING_KEY]",
		}).Return(nil).Once()
		store.On("Update", ctx, p).Return(nil).Once()

		updated, err := svc.UpdateCredential(ctx, p.ID, " NEW-KEY ")

		require.NoError(t, err)
		assert.Equal(t, "NEW-KEY", updated.APIKey)
		assert.Equal(t, "GW-1", updated.GatewayKey)
		assert.Equal(t, "Demo Store", updated.StoreName)
		assert.Equal(t, "3", updated.ExpiryDays)
		store.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("EmptyKeyClearsIntegration", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		store.On("Update", ctx, p).Return(nil).Once()

		updated, err := svc.UpdateCredential(ctx, p.ID, "")

		require.NoError(t, err)
		assert.False(t, updated.HasCredential())
		assert.Empty(t, updated.GatewayKey)
		assert.Empty(t, updated.AccountKeys)
		client.AssertNotCalled(t, "FetchIntegration", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("DisabledProvider", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()
		p.State = shared.ProviderStateDisabled

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		_, err := svc.UpdateCredential(ctx, p.ID, "NEW-KEY")

		assert.ErrorIs(t, err, ErrProviderDisabled)
		client.AssertNotCalled(t, "FetchIntegration", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ActivationFailureAbortsWithoutPersisting", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()
		activationErr := &ifthenpay.APIError{Endpoint: ifthenpay.EndpointActivation, StatusCode: 500}

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		client.On("FetchIntegration", ctx, "NEW-KEY").Return(sampleIntegration(), nil).Once()
		client.On("ActivateCallback", ctx, mock.Anything).Return(activationErr).Once()

		_, err := svc.UpdateCredential(ctx, p.ID, "NEW-KEY")

		var apiErr *ifthenpay.APIError
		assert.True(t, errors.As(err, &apiErr))
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestProviderServiceImpl_FetchIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("DisabledReturnsNilWithoutCall", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()
		p.State = shared.ProviderStateDisabled

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		integration, err := svc.FetchIntegration(ctx, p.ID)

		assert.NoError(t, err)
		assert.Nil(t, integration)
		client.AssertNotCalled(t, "FetchIntegration", mock.Anything, mock.Anything)
	})

	t.Run("TestStateReturnsNilWithoutCall", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()
		p.State = shared.ProviderStateTest

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		integration, err := svc.FetchIntegration(ctx, p.ID)

		assert.NoError(t, err)
		assert.Nil(t, integration)
		client.AssertNotCalled(t, "FetchIntegration", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("RefreshesCachedFields", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		client.On("FetchIntegration", ctx, "API-KEY-1").Return(sampleIntegration(), nil).Once()
		store.On("Update", ctx, p).Return(nil).Once()

		integration, err := svc.FetchIntegration(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, "GW-1", integration.GatewayKey)
		assert.Equal(t, `{"defaultPaymentMethod":"CCARD"}`, p.PaymentData)
		store.AssertExpectations(t)
	})

	t.Run("AggregatorFailure", func(t *testing.T) {
		store := new(MockProviderStore)
		client := new(MockAggregatorClient)
		svc := NewProviderService(newTestLogger(), store, client)
		p := sampleProvider()

		store.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		client.On("FetchIntegration", ctx, "API-KEY-1").Return(nil, &ifthenpay.APIError{StatusCode: 401}).Once()

		_, err := svc.FetchIntegration(ctx, p.ID)

		assert.Error(t, err)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := new(MockProviderStore)
		svc := NewProviderService(newTestLogger(), store, new(MockAggregatorClient))
		id := uuid.New()

		store.On("GetByID", ctx, id).Return(nil, provider.ErrProviderNotFound{ID: id}).Once()

		_, err := svc.FetchIntegration(ctx, id)

		assert.ErrorIs(t, err, provider.ErrProviderNotFound{})
	})
}
