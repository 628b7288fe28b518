package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/payment_gateway/service"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(Templates())
	return router
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitiatePayment(ctx context.Context, req service.SubmitPaymentRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockMethodsService struct {
	mock.Mock
}

func (m *MockMethodsService) AvailableMethods(ctx context.Context, providerCode string) ([]ifthenpay.PaymentMethod, error) {
	args := m.Called(ctx, providerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ifthenpay.PaymentMethod), args.Error(1)
}

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) HandleNotification(ctx context.Context, n service.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockReconciliationService) HandleReturn(ctx context.Context, params service.ReturnParams) (service.ReturnOutcome, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(service.ReturnOutcome), args.Error(1)
}

func (m *MockReconciliationService) CheckStatus(ctx context.Context, reference string) (service.StatusView, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(service.StatusView), args.Error(1)
}

type MockProviderService struct {
	mock.Mock
}

func (m *MockProviderService) Create(ctx context.Context, req service.CreateProviderRequest) (*provider.Provider, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderService) Get(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderService) SetState(ctx context.Context, id uuid.UUID, state shared.ProviderState) (*provider.Provider, error) {
	args := m.Called(ctx, id, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderService) UpdateCredential(ctx context.Context, id uuid.UUID, apiKey string) (*provider.Provider, error) {
	args := m.Called(ctx, id, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderService) FetchIntegration(ctx context.Context, id uuid.UUID) (*provider.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Integration), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Create(ctx context.Context, req service.CreateTransactionRequest) (*transaction.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) History(ctx context.Context, id uuid.UUID, limit int) ([]*shared.StateChangedEvent, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.StateChangedEvent), args.Error(1)
}
