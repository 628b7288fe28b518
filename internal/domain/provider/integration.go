package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Integration is the account configuration returned by the aggregator for an API key
type Integration struct {
	StoreName   string          `json:"storeName"`
	StoreURL    string          `json:"storeUrl" validate:"required"`
	Email       string          `json:"email"`
	GatewayKey  string          `json:"gatewayKey" validate:"required"`
	ExpiryDays  FlexString      `json:"expiryDays"`
	AccountKeys string          `json:"accountKeys" validate:"required"`
	PaymentData json.RawMessage `json:"paymentData,omitempty"`
	TokenAPI    string          `json:"tokenApi"`
}

// Validate checks the fields every later aggregator call depends on
func (i *Integration) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid integration payload: %w", err)
	}
	return nil
}

// PaymentDataString returns paymentData as stored text. The aggregator sends it as a
// JSON-encoded string; any other JSON value is kept verbatim.
func (i *Integration) PaymentDataString() string {
	raw := bytes.TrimSpace(i.PaymentData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// DefaultPaymentMethod extracts paymentData.defaultPaymentMethod from the payload
func (i *Integration) DefaultPaymentMethod() (string, error) {
	return defaultPaymentMethod(i.PaymentDataString())
}

// FlexString decodes a JSON string or number into its textual form
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expiryDays must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// MarshalJSON emits the value as a number when it is numeric
func (f FlexString) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.Atoi(string(f)); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}
