// Package ifthenpay is the HTTP client for the ifthenpay aggregator REST API.
package ifthenpay

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ifthenpay-gateway/internal/config"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/ifthenpay-gateway/internal/platform/ifthenpay"
	maxResponseBody = 1 << 20
	maxErrorMessage = 512
)

// Endpoint names used for logs, spans and metrics
const (
	EndpointIntegration = "integration"
	EndpointPayment     = "payment"
	EndpointActivation  = "callback_activation"
	EndpointMethods     = "methods"
	EndpointStatus      = "status"
)

// HTTPClient is the subset of *http.Client used by Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestObserver receives the outcome of every aggregator call
type RequestObserver interface {
	ObserveAggregatorRequest(endpoint, outcome string)
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default TLS 1.2+ client
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithObserver attaches a request observer
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// Client talks to the aggregator. Every call runs behind a shared circuit breaker
// and its own timeout.
type Client struct {
	logger     *slog.Logger
	cfg        config.IfthenpayConfig
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	observer   RequestObserver
}

// NewClient creates an aggregator client
func NewClient(logger *slog.Logger, cfg config.IfthenpayConfig, opts ...Option) *Client {
	log := logger.With("component", "IfthenpayClient")

	c := &Client{
		logger: log,
		cfg:    cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		tracer: otel.Tracer(tracerName),
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ifthenpay",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isBreakerSuccess,
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isBreakerSuccess counts only transport failures and 5xx answers against the breaker
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// FetchIntegration retrieves the account configuration bound to an API key
func (c *Client) FetchIntegration(ctx context.Context, apiKey string) (*provider.Integration, error) {
	endpoint := fmt.Sprintf("%s/v2/cmsintegration/get/%s/%s",
		c.cfg.BaseURL, url.PathEscape(apiKey), url.PathEscape(c.cfg.CMS))

	body, err := c.call(ctx, EndpointIntegration, http.MethodPost, endpoint, nil, c.cfg.IntegrationTimeout)
	if err != nil {
		return nil, err
	}

	var integration provider.Integration
	if err := json.Unmarshal(body, &integration); err != nil {
		c.observe(EndpointIntegration, "decode_error")
		return nil, fmt.Errorf("failed to decode integration response: %w", err)
	}
	if err := integration.Validate(); err != nil {
		return nil, err
	}
	return &integration, nil
}

// CreatePayment asks the aggregator for a hosted payment page
func (c *Client) CreatePayment(ctx context.Context, gatewayKey string, req PaymentRequest) (*PaymentResponse, error) {
	endpoint := fmt.Sprintf("%s/gateway/pinpay/%s", c.cfg.BaseURL, url.PathEscape(gatewayKey))

	body, err := c.call(ctx, EndpointPayment, http.MethodPost, endpoint, req, c.cfg.PaymentTimeout)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.observe(EndpointPayment, "decode_error")
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	resp := &PaymentResponse{Raw: raw}
	if v, ok := raw["PinpayUrl"].(string); ok {
		resp.PaymentURL = v
	}
	if v, ok := raw["message"].(string); ok {
		resp.Message = v
	}
	if resp.PaymentURL == "" {
		c.logger.ErrorContext(ctx, "Payment created without redirect URL", "reference", req.ID, "message", resp.Message)
		return nil, ErrMissingPaymentURL{Message: resp.Message}
	}
	return resp, nil
}

// ActivateCallback registers the webhook URL for a gateway key
func (c *Client) ActivateCallback(ctx context.Context, activation CallbackActivation) error {
	endpoint := fmt.Sprintf("%s/endpoint/callback/activation/?cms=%s", c.cfg.BaseURL, url.QueryEscape(c.cfg.CMS))

	body, err := c.call(ctx, EndpointActivation, http.MethodPost, endpoint, activation, c.cfg.ActivationTimeout)
	if err != nil {
		return err
	}

	var ack interface{}
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("failed to decode callback activation response: %w", err)
	}
	c.logger.InfoContext(ctx, "Callback activated", "gateway_key", activation.GatewayKey, "response", ack)
	return nil
}

// AvailableMethods lists every payment method the aggregator offers
func (c *Client) AvailableMethods(ctx context.Context) ([]PaymentMethod, error) {
	endpoint := c.cfg.BaseURL + "/gateway/methods/available"

	body, err := c.call(ctx, EndpointMethods, http.MethodGet, endpoint, nil, c.cfg.MethodsTimeout)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		c.observe(EndpointMethods, "decode_error")
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	methods := make([]PaymentMethod, 0, len(items))
	for _, item := range items {
		m, err := NewPaymentMethod(item)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed payment method entry", "error", err)
			continue
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// TransactionStatus fetches the aggregator status of a gateway transaction.
// ErrStatusNotAvailable means the aggregator does not know the transaction yet.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (*TransactionStatus, error) {
	endpoint := fmt.Sprintf("%s/gateway/transaction/status/get?transactionId=%s",
		c.cfg.BaseURL, url.QueryEscape(transactionID))

	body, err := c.call(ctx, EndpointStatus, http.MethodGet, endpoint, nil, c.cfg.StatusTimeout)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrStatusNotAvailable
		}
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.observe(EndpointStatus, "decode_error")
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	status := &TransactionStatus{Raw: raw}
	if v, ok := raw["PaymentMethod"].(string); ok {
		status.PaymentMethod = v
	}
	return status, nil
}

// call executes one request through the breaker and returns the body of a 200 answer
func (c *Client) call(ctx context.Context, name, method, endpoint string, payload interface{}, timeout time.Duration) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "ifthenpay."+name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("ifthenpay.endpoint", name),
	)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, name, method, endpoint, payload)
	})
	if err != nil {
		outcome := "error"
		var apiErr *APIError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "circuit_open"
		case errors.As(err, &apiErr):
			outcome = fmt.Sprintf("status_%d", apiErr.StatusCode)
			span.SetAttributes(attribute.Int("http.status_code", apiErr.StatusCode))
		}
		c.observe(name, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apiErr == nil || apiErr.StatusCode != http.StatusNotFound {
			c.logger.ErrorContext(ctx, "ifthenpay request failed", "endpoint", name, "error", err)
		}
		return nil, err
	}

	c.observe(name, "ok")
	span.SetAttributes(attribute.Int("http.status_code", http.StatusOK))
	return result.([]byte), nil
}

func (c *Client) do(ctx context.Context, name, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", name, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Endpoint: name, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.observer != nil {
		c.observer.ObserveAggregatorRequest(endpoint, outcome)
	}
}

// errorMessage prefers the aggregator's "message" field and falls back to the raw body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}
