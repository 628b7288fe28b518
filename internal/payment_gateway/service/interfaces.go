package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	"github.com/jackc/pgx/v5"
)

// TxExecutor runs a function inside a database transaction
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// AggregatorClient is the subset of the ifthenpay client the services depend on
type AggregatorClient interface {
	FetchIntegration(ctx context.Context, apiKey string) (*provider.Integration, error)
	CreatePayment(ctx context.Context, gatewayKey string, req ifthenpay.PaymentRequest) (*ifthenpay.PaymentResponse, error)
	ActivateCallback(ctx context.Context, activation ifthenpay.CallbackActivation) error
	AvailableMethods(ctx context.Context) ([]ifthenpay.PaymentMethod, error)
	TransactionStatus(ctx context.Context, transactionID string) (*ifthenpay.TransactionStatus, error)
}

// MethodCatalog caches the unfiltered aggregator method catalogue
type MethodCatalog interface {
	Get(ctx context.Context) ([]ifthenpay.PaymentMethod, bool, error)
	Set(ctx context.Context, methods []ifthenpay.PaymentMethod) error
}

// Metrics records business counters
type Metrics interface {
	ObserveNotification(result string)
	ObserveStateTransition(from, to, source string)
	ObservePollAttempts(attempts int)
}

// TransitionRecorder applies and announces transaction state changes
type TransitionRecorder interface {
	Apply(ctx context.Context, tx *transaction.Transaction, source shared.EventSource, change func(*transaction.Transaction) error) error
	Announce(ctx context.Context, tx *transaction.Transaction, previous shared.TransactionState, source shared.EventSource)
}

// ProviderService manages provider configuration
type ProviderService interface {
	// Create stores a new provider without credential
	Create(ctx context.Context, req CreateProviderRequest) (*provider.Provider, error)

	// Get returns ErrProviderNotFound if the provider doesn't exist
	Get(ctx context.Context, id uuid.UUID) (*provider.Provider, error)

	SetState(ctx context.Context, id uuid.UUID, state shared.ProviderState) (*provider.Provider, error)

	// UpdateCredential replaces the API key. A non-empty key is validated against the aggregator,
	// its integration cached and the callback activated before anything is persisted.
	UpdateCredential(ctx context.Context, id uuid.UUID, apiKey string) (*provider.Provider, error)

	// FetchIntegration refreshes the cached integration. Returns nil, nil for a disabled provider.
	FetchIntegration(ctx context.Context, id uuid.UUID) (*provider.Integration, error)
}

// PaymentService starts hosted payments
type PaymentService interface {
	// InitiatePayment returns the aggregator redirect URL for a draft transaction
	InitiatePayment(ctx context.Context, req SubmitPaymentRequest) (string, error)
}

// MethodsService exposes the payment methods usable by a provider account
type MethodsService interface {
	AvailableMethods(ctx context.Context, providerCode string) ([]ifthenpay.PaymentMethod, error)
}

// StatusPoller queries the aggregator for a transaction status with bounded retries
type StatusPoller interface {
	// Poll returns nil, nil when no status could be obtained
	Poll(ctx context.Context, transactionID string) (*ifthenpay.TransactionStatus, error)
}

// ReconciliationService moves transactions according to aggregator feedback
type ReconciliationService interface {
	// HandleNotification processes a server-to-server webhook
	HandleNotification(ctx context.Context, n Notification) error

	// HandleReturn processes a browser return from the hosted payment page
	HandleReturn(ctx context.Context, params ReturnParams) (ReturnOutcome, error)

	// CheckStatus reports a transaction state to the checkout page
	CheckStatus(ctx context.Context, reference string) (StatusView, error)
}

// TransactionService administers transactions
type TransactionService interface {
	Create(ctx context.Context, req CreateTransactionRequest) (*transaction.Transaction, error)

	// Get returns ErrTransactionNotFound if the transaction doesn't exist
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// History lists the audit trail written by the processor. A limit outside
	// (0, MaxHistoryLimit] is clamped to MaxHistoryLimit.
	History(ctx context.Context, id uuid.UUID, limit int) ([]*shared.StateChangedEvent, error)
}

// MaxHistoryLimit caps the number of events returned by TransactionService.History
const MaxHistoryLimit = 200
