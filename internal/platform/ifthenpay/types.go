package ifthenpay

import (
	"encoding/json"

	"github.com/ifthenpay-gateway/internal/domain/provider"
)

// settledMethods are the payment methods whose status response already means the money is captured
var settledMethods = map[string]struct{}{
	"CCARD":  {},
	"APPLE":  {},
	"GOOGLE": {},
}

// PaymentRequest is the body of a payment creation call
type PaymentRequest struct {
	ID             string              `json:"id"`
	Amount         string              `json:"amount"`
	Description    string              `json:"description"`
	Accounts       string              `json:"accounts"`
	SelectedMethod *string             `json:"selected_method"`
	SuccessURL     string              `json:"success_url"`
	ErrorURL       string              `json:"error_url"`
	CloseURL       string              `json:"btnCloseUrl"`
	CMS            string              `json:"cms"`
	ExpiryDays     provider.FlexString `json:"expiryDays"`
}

// PaymentResponse is the answer to a payment creation call
type PaymentResponse struct {
	PaymentURL string                 `json:"PinpayUrl"`
	Message    string                 `json:"message,omitempty"`
	Raw        map[string]interface{} `json:"-"`
}

// CallbackActivation registers the webhook URL for a gateway key
type CallbackActivation struct {
	AntiPhishingKey string `json:"apKey"`
	GatewayKey      string `json:"chave"`
	CallbackURL     string `json:"urlCb"`
}

// PaymentMethod is one entry of the aggregator method catalogue. The original JSON object is
// kept so it can be relayed to the browser unchanged.
type PaymentMethod struct {
	Entity string
	raw    json.RawMessage
}

// NewPaymentMethod builds a catalogue entry from its JSON object
func NewPaymentMethod(raw json.RawMessage) (PaymentMethod, error) {
	var m PaymentMethod
	err := m.UnmarshalJSON(raw)
	return m, err
}

// UnmarshalJSON implements json.Unmarshaler
func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var probe struct {
		Entity interface{} `json:"Entity"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch v := probe.Entity.(type) {
	case string:
		m.Entity = v
	case nil:
		m.Entity = ""
	default:
		b, _ := json.Marshal(v)
		m.Entity = string(b)
	}
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler
func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return json.Marshal(map[string]string{"Entity": m.Entity})
	}
	return m.raw, nil
}

// TransactionStatus is the aggregator's view of a gateway transaction
type TransactionStatus struct {
	PaymentMethod string
	Raw           map[string]interface{}
}

// IsSettled reports whether the payment method confirms capture immediately
func (s *TransactionStatus) IsSettled() bool {
	if s == nil {
		return false
	}
	_, ok := settledMethods[s.PaymentMethod]
	return ok
}
