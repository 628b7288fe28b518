package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/outbox"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByReferenceAndAmount(ctx context.Context, reference string, amount decimal.Decimal, providerCode string) (*transaction.Transaction, error) {
	args := m.Called(ctx, reference, amount.String(), providerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateState(ctx context.Context, tx *transaction.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) WithTx(pgx.Tx) transaction.Repository {
	return m
}

type MockProviderStore struct {
	mock.Mock
}

func (m *MockProviderStore) Create(ctx context.Context, p *provider.Provider) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProviderStore) GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderStore) GetByCode(ctx context.Context, code string) (*provider.Provider, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Provider), args.Error(1)
}

func (m *MockProviderStore) Update(ctx context.Context, p *provider.Provider) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProviderStore) WithTx(pgx.Tx) provider.ConfigStore {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(pgx.Tx) outbox.Repository {
	return m
}

// MockTxExecutor runs fn directly unless an error is configured for ExecuteTx itself
type MockEventLog struct {
	mock.Mock
}

func (m *MockEventLog) Append(ctx context.Context, event *shared.StateChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventLog) Exists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventLog) ListByTransactionID(ctx context.Context, transactionID uuid.UUID, limit int) ([]*shared.StateChangedEvent, error) {
	args := m.Called(ctx, transactionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.StateChangedEvent), args.Error(1)
}

type MockTxExecutor struct {
	mock.Mock
}

func (m *MockTxExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}

type MockAggregatorClient struct {
	mock.Mock
}

func (m *MockAggregatorClient) FetchIntegration(ctx context.Context, apiKey string) (*provider.Integration, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Integration), args.Error(1)
}

func (m *MockAggregatorClient) CreatePayment(ctx context.Context, gatewayKey string, req ifthenpay.PaymentRequest) (*ifthenpay.PaymentResponse, error) {
	args := m.Called(ctx, gatewayKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ifthenpay.PaymentResponse), args.Error(1)
}

func (m *MockAggregatorClient) ActivateCallback(ctx context.Context, activation ifthenpay.CallbackActivation) error {
	args := m.Called(ctx, activation)
	return args.Error(0)
}

func (m *MockAggregatorClient) AvailableMethods(ctx context.Context) ([]ifthenpay.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ifthenpay.PaymentMethod), args.Error(1)
}

func (m *MockAggregatorClient) TransactionStatus(ctx context.Context, transactionID string) (*ifthenpay.TransactionStatus, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ifthenpay.TransactionStatus), args.Error(1)
}

type MockMethodCatalog struct {
	mock.Mock
}

func (m *MockMethodCatalog) Get(ctx context.Context) ([]ifthenpay.PaymentMethod, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]ifthenpay.PaymentMethod), args.Bool(1), args.Error(2)
}

func (m *MockMethodCatalog) Set(ctx context.Context, methods []ifthenpay.PaymentMethod) error {
	args := m.Called(ctx, methods)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveNotification(result string) {
	m.Called(result)
}

func (m *MockMetrics) ObserveStateTransition(from, to, source string) {
	m.Called(from, to, source)
}

func (m *MockMetrics) ObservePollAttempts(attempts int) {
	m.Called(attempts)
}

type MockStateEventPublisher struct {
	mock.Mock
}

func (m *MockStateEventPublisher) PublishStateChange(ctx context.Context, event *shared.StateChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStateEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTransitionRecorder runs the requested change and records the resulting state
type MockTransitionRecorder struct {
	mock.Mock
}

func (m *MockTransitionRecorder) Apply(ctx context.Context, tx *transaction.Transaction, source shared.EventSource, change func(*transaction.Transaction) error) error {
	if err := change(tx); err != nil {
		return err
	}
	args := m.Called(ctx, tx.State, source)
	return args.Error(0)
}

func (m *MockTransitionRecorder) Announce(ctx context.Context, tx *transaction.Transaction, previous shared.TransactionState, source shared.EventSource) {
	m.Called(ctx, tx, previous, source)
}

type MockStatusPoller struct {
	mock.Mock
}

func (m *MockStatusPoller) Poll(ctx context.Context, transactionID string) (*ifthenpay.TransactionStatus, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ifthenpay.TransactionStatus), args.Error(1)
}

func sampleProvider() *provider.Provider {
	p, _ := provider.NewProvider("ifthenpay", shared.ProviderStateEnabled, "https://shop.example.com")
	p.APIKey = "API-KEY-1"
	p.GatewayKey = "GW-1"
	p.StoreURL = "https://shop.example.com"
	p.AccountKeys = "MB|Multibanco;CCARD|Cards"
	return p
}

func sampleIntegration() *provider.Integration {
	return &provider.Integration{
		StoreName:   "Demo Store",
		StoreURL:    "https://shop.example.com",
		Email:       "owner@example.com",
		GatewayKey:  "GW-1",
		ExpiryDays:  "3",
		AccountKeys: "12345|Multibanco; CCARD|Cards",
		PaymentData: []byte(`"{\"defaultPaymentMethod\":\"CCARD\"}"`),
		TokenAPI:    "AP-KEY",
	}
}

func sampleTransaction(providerID uuid.UUID, reference string) *transaction.Transaction {
	tx, _ := transaction.NewTransaction(reference, providerID, decimal.RequireFromString("25.50"), "EUR")
	return tx
}
