package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyReference = errors.New("reference cannot be empty")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrStateUnchanged = errors.New("transaction already in requested state")
)

// AmountTolerance is the largest difference accepted between a notified and a stored amount
var AmountTolerance = decimal.RequireFromString("0.001")

// ProviderReferencePrefix is prepended to the merchant reference once the aggregator confirms payment
const ProviderReferencePrefix = "ifthenpay_"

// allowedSources lists, per target state, the states a transaction may leave to reach it
var allowedSources = map[shared.TransactionState][]shared.TransactionState{
	shared.TransactionStatePending: {shared.TransactionStateDraft},
	shared.TransactionStateDone:    {shared.TransactionStateDraft, shared.TransactionStatePending, shared.TransactionStateError},
	shared.TransactionStateCancel:  {shared.TransactionStateDraft, shared.TransactionStatePending},
	shared.TransactionStateError:   {shared.TransactionStateDraft, shared.TransactionStatePending},
}

// Transaction represents a single payment attempt routed through the aggregator
type Transaction struct {
	ID                uuid.UUID               `json:"id"`
	Reference         string                  `json:"reference"`
	ProviderID        uuid.UUID               `json:"provider_id"`
	Amount            decimal.Decimal         `json:"amount"`
	Currency          string                  `json:"currency"`
	State             shared.TransactionState `json:"state"`
	StateMessage      string                  `json:"state_message,omitempty"`
	ProviderReference string                  `json:"provider_reference,omitempty"`
	Version           int64                   `json:"version"` // For optimistic locking
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// NewTransaction creates a draft transaction
func NewTransaction(reference string, providerID uuid.UUID, amount decimal.Decimal, currency string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrEmptyReference
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !shared.IsSupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedCurrency, currency)
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:         uuid.New(),
		Reference:  reference,
		ProviderID: providerID,
		Amount:     amount,
		Currency:   currency,
		State:      shared.TransactionStateDraft,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanTransitionTo reports whether the transaction may move to target
func (t *Transaction) CanTransitionTo(target shared.TransactionState) bool {
	for _, from := range allowedSources[target] {
		if from == t.State {
			return true
		}
	}
	return false
}

// SetPending moves a draft transaction to pending
func (t *Transaction) SetPending(message string) error {
	return t.transition(shared.TransactionStatePending, message)
}

// SetDone confirms the payment and records the aggregator-side reference
func (t *Transaction) SetDone(providerReference string) error {
	if err := t.transition(shared.TransactionStateDone, ""); err != nil {
		return err
	}
	if providerReference != "" {
		t.ProviderReference = providerReference
	}
	return nil
}

// SetCanceled moves the transaction to cancel
func (t *Transaction) SetCanceled(message string) error {
	return t.transition(shared.TransactionStateCancel, message)
}

// SetError moves the transaction to error with a diagnostic message
func (t *Transaction) SetError(message string) error {
	return t.transition(shared.TransactionStateError, message)
}

func (t *Transaction) transition(target shared.TransactionState, message string) error {
	if t.State == target {
		return ErrStateUnchanged
	}
	if !t.CanTransitionTo(target) {
		return ErrInvalidTransition{From: t.State, To: target}
	}

	t.State = target
	t.StateMessage = message
	t.UpdatedAt = time.Now().UTC()
	t.Version++
	return nil
}

// IsTerminal reports whether the transaction reached done, cancel or error
func (t *Transaction) IsTerminal() bool {
	return t.State.IsTerminal()
}

// AmountMatches compares a notified amount against the stored one within AmountTolerance
func (t *Transaction) AmountMatches(received decimal.Decimal) bool {
	return t.Amount.Sub(received).Abs().LessThanOrEqual(AmountTolerance)
}

// FormattedAmount renders the amount with exactly two decimals, rounding half away from zero
func (t *Transaction) FormattedAmount() string {
	return t.Amount.StringFixed(2)
}

// ConfirmedProviderReference is the provider reference recorded when the payment is confirmed
func (t *Transaction) ConfirmedProviderReference() string {
	return ProviderReferencePrefix + t.Reference
}

// RequiresPaymentRecord reports whether a confirmed payment must produce a downstream payment record
func (t *Transaction) RequiresPaymentRecord() bool {
	return strings.Contains(strings.ToLower(t.Reference), "inv")
}
