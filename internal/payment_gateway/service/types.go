package service

import (
	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Browser return outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomePending = "pending"
)

// Checkout status values
const (
	StatusSuccess    = "success"
	StatusPending    = "pending"
	StatusError      = "error"
	StatusProcessing = "processing"
)

// PaymentMethodCode is the only method code the checkout may submit
const PaymentMethodCode = "ifthenpay"

// Messages written to transactions or shown to the customer
const (
	MessageAwaitingConfirmation = "Payment initiated with ifthenpay, awaiting confirmation."
	MessageReturnError          = "An error occurred while trying to process the payment with ifthenpay. Please try again."
	MessageInvalidToken         = "Error: Invalid Token"
	MessageAmountMismatch       = "Amount mismatch from ifthenpay notification."

	MessagePaymentSucceeded = "Pagamento realizado com sucesso!"
	MessagePaymentFailed    = "O pagamento falhou ou foi cancelado."
	MessageReturnFailed     = "There was an error in the payment."
	MessagePaymentPending   = "Your payment is being processed and awaiting confirmation. Please wait."

	MessageStatusCanceled   = "Pagamento cancelado."
	MessageStatusError      = "Erro no pagamento."
	MessageStatusProcessing = "Aguardando confirmacao do pagamento."
	MessageStatusNotFound   = "Transaction not found."
)

// Notification results reported to metrics
const (
	NotificationConfirmed      = "confirmed"
	NotificationDuplicate      = "duplicate"
	NotificationInvalidToken   = "invalid_token"
	NotificationAmountMismatch = "amount_mismatch"
	NotificationNotFound       = "not_found"
	NotificationRejected       = "rejected"
)

// CreateProviderRequest holds the fields of a new provider
type CreateProviderRequest struct {
	Name            string
	State           shared.ProviderState
	CallbackBaseURL string
}

// SubmitPaymentRequest is the checkout submission. ExtraData keys "reference" and
// "payment_method" take precedence over the top-level fields.
type SubmitPaymentRequest struct {
	ProviderID    uuid.UUID
	Reference     string
	PaymentMethod string
	ExtraData     map[string]interface{}
}

// Notification is a server-to-server payment confirmation
type Notification struct {
	Reference string
	Amount    string
	Token     string
}

// ReturnParams are the query parameters of a browser return
type ReturnParams struct {
	Reference string
	Amount    string
	Status    string
	TxID      string
}

// ReturnOutcome is shown to the customer after a browser return
type ReturnOutcome struct {
	Reference string
	Status    string
	Message   string
}

// StatusView is the checkout status poll answer
type StatusView struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CreateTransactionRequest holds the fields of a new draft transaction
type CreateTransactionRequest struct {
	ProviderID uuid.UUID
	Reference  string
	Amount     decimal.Decimal
	Currency   string
}
