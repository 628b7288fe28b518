package provider

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
)

// DefaultCode is the provider code used by the aggregator integration
const DefaultCode = "ifthenpay"

// Common errors
var (
	ErrEmptyName         = errors.New("provider name cannot be empty")
	ErrInvalidState      = errors.New("invalid provider state")
	ErrPaymentDataAbsent = errors.New("payment data is empty")
	ErrNoDefaultMethod   = errors.New("payment data has no defaultPaymentMethod")
)

// Provider holds the aggregator credential and the account metadata cached from it
type Provider struct {
	ID              uuid.UUID            `json:"id"`
	Code            string               `json:"code"`
	Name            string               `json:"name"`
	State           shared.ProviderState `json:"state"`
	APIKey          string               `json:"-"`
	StoreName       string               `json:"store_name,omitempty"`
	Email           string               `json:"email,omitempty"`
	GatewayKey      string               `json:"gateway_key,omitempty"`
	ExpiryDays      string               `json:"expiry_days,omitempty"`
	StoreURL        string               `json:"store_url,omitempty"`
	AccountKeys     string               `json:"account_keys,omitempty"`
	PaymentData     string               `json:"payment_data,omitempty"`
	TokenAPI        string               `json:"-"`
	CallbackBaseURL string               `json:"callback_base_url,omitempty"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewProvider creates a provider in the given state without credential
func NewProvider(name string, state shared.ProviderState, callbackBaseURL string) (*Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !state.IsValid() {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	return &Provider{
		ID:              uuid.New(),
		Code:            DefaultCode,
		Name:            name,
		State:           state,
		CallbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsEnabled reports whether the provider may talk to the aggregator. Only the enabled
// state qualifies; a provider in test state is treated like a disabled one.
func (p *Provider) IsEnabled() bool {
	return p.State == shared.ProviderStateEnabled
}

// HasCredential reports whether an API key is configured
func (p *Provider) HasCredential() bool {
	return p.APIKey != ""
}

// SetState changes the administrative state
func (p *Provider) SetState(state shared.ProviderState) error {
	if !state.IsValid() {
		return ErrInvalidState
	}
	p.State = state
	p.touch()
	return nil
}

// SetCredential replaces the API key; an empty key also drops every cached integration field
func (p *Provider) SetCredential(apiKey string) {
	p.APIKey = strings.TrimSpace(apiKey)
	if p.APIKey == "" {
		p.ClearIntegration()
		return
	}
	p.touch()
}

// ApplyIntegration caches the account metadata returned by the aggregator
func (p *Provider) ApplyIntegration(in *Integration) {
	p.StoreName = in.StoreName
	p.Email = in.Email
	p.GatewayKey = in.GatewayKey
	p.ExpiryDays = string(in.ExpiryDays)
	p.StoreURL = strings.TrimRight(in.StoreURL, "/")
	p.AccountKeys = in.AccountKeys
	p.PaymentData = in.PaymentDataString()
	p.TokenAPI = in.TokenAPI
	p.touch()
}

// ClearIntegration drops every cached integration field
func (p *Provider) ClearIntegration() {
	p.StoreName = ""
	p.Email = ""
	p.GatewayKey = ""
	p.ExpiryDays = ""
	p.StoreURL = ""
	p.AccountKeys = ""
	p.PaymentData = ""
	p.TokenAPI = ""
	p.touch()
}

// VerifyToken compares a notification token with the configured credential in constant time
func (p *Provider) VerifyToken(token string) bool {
	if p.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(p.APIKey)) == 1
}

// CallbackBase returns the public base URL the aggregator should call back on
func (p *Provider) CallbackBase() string {
	if p.CallbackBaseURL != "" {
		return p.CallbackBaseURL
	}
	return p.StoreURL
}

// Accounts parses the cached account keys
func (p *Provider) Accounts() AccountSet {
	return ParseAccountKeys(p.AccountKeys)
}

// DefaultPaymentMethod extracts paymentData.defaultPaymentMethod.
// An error means the method is unset and the aggregator shows its full picker.
func (p *Provider) DefaultPaymentMethod() (string, error) {
	return defaultPaymentMethod(p.PaymentData)
}

func defaultPaymentMethod(paymentData string) (string, error) {
	if strings.TrimSpace(paymentData) == "" {
		return "", ErrPaymentDataAbsent
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(paymentData), &data); err != nil {
		return "", err
	}

	method, ok := data["defaultPaymentMethod"]
	if !ok || method == nil {
		return "", ErrNoDefaultMethod
	}
	s, ok := method.(string)
	if !ok {
		b, _ := json.Marshal(method)
		s = string(b)
	}
	return s, nil
}

func (p *Provider) touch() {
	p.UpdatedAt = time.Now().UTC()
	p.Version++
}
