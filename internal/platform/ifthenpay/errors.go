package ifthenpay

import (
	"errors"
	"fmt"
)

var (
	// ErrStatusNotAvailable is returned while the aggregator has no status for a transaction yet (HTTP 404)
	ErrStatusNotAvailable = errors.New("transaction status not yet available")
	// ErrUnexpectedResponse is returned when a 200 response does not have the documented shape
	ErrUnexpectedResponse = errors.New("invalid API response from ifthenpay")
)

// APIError describes a non-200 answer from the aggregator
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ifthenpay %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("ifthenpay %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// ErrMissingPaymentURL is returned when payment creation succeeds without a redirect URL
type ErrMissingPaymentURL struct {
	Message string
}

func (e ErrMissingPaymentURL) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error from ifthenpay API"
	}
	return "failed to create ifthenpay payment: " + msg
}

// Is implements the errors.Is interface for ErrMissingPaymentURL
func (e ErrMissingPaymentURL) Is(target error) bool {
	_, ok := target.(ErrMissingPaymentURL)
	return ok
}
