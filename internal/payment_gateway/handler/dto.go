package handler

import (
	"time"

	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// SubmitPaymentRequest is posted by the checkout form
type SubmitPaymentRequest struct {
	ProviderID    string                 `json:"provider_id"`
	Reference     string                 `json:"reference"`
	PaymentMethod string                 `json:"payment_method"`
	ExtraData     map[string]interface{} `json:"extra_data"`
}

// PaymentMethodsRequest selects the provider whose methods are listed
type PaymentMethodsRequest struct {
	ProviderCode string `json:"provider_code"`
}

// CheckStatusRequest is posted by the checkout page while it waits for confirmation
type CheckStatusRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// NotificationParams are sent by the aggregator on the server-to-server callback
type NotificationParams struct {
	Reference string `form:"reference"`
	Amount    string `form:"amount"`
	Token     string `form:"apk"`
}

// ReturnQuery carries the browser return parameters
type ReturnQuery struct {
	Reference string `form:"reference" binding:"max=255"`
	Amount    string `form:"amount" binding:"max=32"`
	Status    string `form:"status" binding:"max=16"`
	TxID      string `form:"txid" binding:"max=255"`
}

// CreateProviderRequest represents a request to create a new provider
type CreateProviderRequest struct {
	Name            string `json:"name" binding:"required"`
	State           string `json:"state" binding:"omitempty,oneof=enabled disabled test"`
	CallbackBaseURL string `json:"callback_base_url" binding:"omitempty,url"`
}

// UpdateCredentialRequest replaces the API key; an empty key clears it
type UpdateCredentialRequest struct {
	APIKey string `json:"api_key"`
}

// SetProviderStateRequest changes the administrative state of a provider
type SetProviderStateRequest struct {
	State string `json:"state" binding:"required,oneof=enabled disabled test"`
}

// ProviderResponse represents a provider in API responses. Secrets are never exposed.
type ProviderResponse struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	State           string `json:"state"`
	HasCredential   bool   `json:"has_credential"`
	StoreName       string `json:"store_name,omitempty"`
	Email           string `json:"email,omitempty"`
	GatewayKey      string `json:"gateway_key,omitempty"`
	ExpiryDays      string `json:"expiry_days,omitempty"`
	StoreURL        string `json:"store_url,omitempty"`
	AccountKeys     string `json:"account_keys,omitempty"`
	CallbackBaseURL string `json:"callback_base_url,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// IntegrationResponse represents the cached aggregator account configuration
type IntegrationResponse struct {
	StoreName   string `json:"store_name"`
	StoreURL    string `json:"store_url"`
	Email       string `json:"email"`
	GatewayKey  string `json:"gateway_key"`
	ExpiryDays  string `json:"expiry_days"`
	AccountKeys string `json:"account_keys"`
	PaymentData string `json:"payment_data,omitempty"`
}

// CreateTransactionRequest represents a request to create a new draft transaction
type CreateTransactionRequest struct {
	ProviderID string          `json:"provider_id" binding:"required,uuid"`
	Reference  string          `json:"reference" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" binding:"required,len=3"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                string `json:"id"`
	Reference         string `json:"reference"`
	ProviderID        string `json:"provider_id"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	State             string `json:"state"`
	StateMessage      string `json:"state_message,omitempty"`
	ProviderReference string `json:"provider_reference,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// HistoryQuery holds paging for the transaction event history
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// StateEventResponse is one entry of a transaction's state history
type StateEventResponse struct {
	EventID       string `json:"event_id"`
	PreviousState string `json:"previous_state,omitempty"`
	State         string `json:"state"`
	StateMessage  string `json:"state_message,omitempty"`
	Source        string `json:"source"`
	CorrelationID string `json:"correlation_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

func mapProviderToResponse(p *provider.Provider) ProviderResponse {
	return ProviderResponse{
		ID:              p.ID.String(),
		Code:            p.Code,
		Name:            p.Name,
		State:           string(p.State),
		HasCredential:   p.HasCredential(),
		StoreName:       p.StoreName,
		Email:           p.Email,
		GatewayKey:      p.GatewayKey,
		ExpiryDays:      p.ExpiryDays,
		StoreURL:        p.StoreURL,
		AccountKeys:     p.AccountKeys,
		CallbackBaseURL: p.CallbackBaseURL,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func mapIntegrationToResponse(in *provider.Integration) IntegrationResponse {
	return IntegrationResponse{
		StoreName:   in.StoreName,
		StoreURL:    in.StoreURL,
		Email:       in.Email,
		GatewayKey:  in.GatewayKey,
		ExpiryDays:  string(in.ExpiryDays),
		AccountKeys: in.AccountKeys,
		PaymentData: in.PaymentDataString(),
	}
}

func mapTransactionToResponse(tx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                tx.ID.String(),
		Reference:         tx.Reference,
		ProviderID:        tx.ProviderID.String(),
		Amount:            tx.FormattedAmount(),
		Currency:          tx.Currency,
		State:             string(tx.State),
		StateMessage:      tx.StateMessage,
		ProviderReference: tx.ProviderReference,
		CreatedAt:         tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         tx.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEventsToResponse(events []*shared.StateChangedEvent) []StateEventResponse {
	out := make([]StateEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, StateEventResponse{
			EventID:       e.EventID.String(),
			PreviousState: string(e.PreviousState),
			State:         string(e.State),
			StateMessage:  e.StateMessage,
			Source:        string(e.Source),
			CorrelationID: e.CorrelationID,
			OccurredAt:    e.OccurredAt.Format(time.RFC3339),
		})
	}
	return out
}
