package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/shared"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines transaction persistence operations
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// GetByReferenceAndAmount matches the reference, the exact stored amount and the provider code
	GetByReferenceAndAmount(ctx context.Context, reference string, amount decimal.Decimal, providerCode string) (*Transaction, error)

	// UpdateState persists a transition using optimistic locking on Version
	UpdateState(ctx context.Context, tx *Transaction) error
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	ID        uuid.UUID
	Reference string
}

func (e ErrTransactionNotFound) Error() string {
	if e.Reference != "" {
		return "transaction not found: " + e.Reference
	}
	return "transaction not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil && t.Reference == "" {
		return true
	}
	return e.ID == t.ID && e.Reference == t.Reference
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	TransactionID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for transaction: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateReference indicates reference uniqueness violation
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "transaction with reference already exists: " + e.Reference
}

// ErrInvalidTransition indicates a state change the lifecycle does not allow
type ErrInvalidTransition struct {
	From shared.TransactionState
	To   shared.TransactionState
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transaction state transition from %q to %q", e.From, e.To)
}

// Is implements the errors.Is interface for ErrInvalidTransition
func (e ErrInvalidTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidTransition)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}
