package shared

// TransactionState defines the local payment transaction lifecycle
type TransactionState string

const (
	TransactionStateDraft   TransactionState = "draft"
	TransactionStatePending TransactionState = "pending"
	TransactionStateDone    TransactionState = "done"
	TransactionStateCancel  TransactionState = "cancel"
	TransactionStateError   TransactionState = "error"
)

// IsValid reports whether s is one of the known transaction states
func (s TransactionState) IsValid() bool {
	switch s {
	case TransactionStateDraft, TransactionStatePending, TransactionStateDone,
		TransactionStateCancel, TransactionStateError:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected from s
func (s TransactionState) IsTerminal() bool {
	return s == TransactionStateDone || s == TransactionStateCancel || s == TransactionStateError
}

// ProviderState defines the administrative state of a payment provider
type ProviderState string

const (
	ProviderStateEnabled  ProviderState = "enabled"
	ProviderStateDisabled ProviderState = "disabled"
	ProviderStateTest     ProviderState = "test"
)

// IsValid reports whether s is one of the known provider states
func (s ProviderState) IsValid() bool {
	return s == ProviderStateEnabled || s == ProviderStateDisabled || s == ProviderStateTest
}

// EventSource identifies which flow triggered a state change
type EventSource string

const (
	EventSourceWebhook EventSource = "webhook"
	EventSourceIframe  EventSource = "iframe"
	EventSourceStatus  EventSource = "status"
	EventSourceAdmin   EventSource = "admin"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// SupportedCurrencies lists the ISO codes accepted by the aggregator
var SupportedCurrencies = []string{"EUR"}

// IsSupportedCurrency reports whether code is accepted by the aggregator
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
