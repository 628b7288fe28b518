package record

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
)

// PaymentRecord is the accounting entry produced when an invoice payment is confirmed
type PaymentRecord struct {
	ID                uuid.UUID `json:"id" bson:"_id"`
	TransactionID     uuid.UUID `json:"transaction_id" bson:"transaction_id"`
	ProviderID        uuid.UUID `json:"provider_id" bson:"provider_id"`
	Reference         string    `json:"reference" bson:"reference"`
	ProviderReference string    `json:"provider_reference" bson:"provider_reference"`
	Amount            string    `json:"amount" bson:"amount"` // Decimal text, never float
	Currency          string    `json:"currency" bson:"currency"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

// NewPaymentRecord builds the record for a confirmed transaction
func NewPaymentRecord(tx *transaction.Transaction) *PaymentRecord {
	return &PaymentRecord{
		ID:                uuid.New(),
		TransactionID:     tx.ID,
		ProviderID:        tx.ProviderID,
		Reference:         tx.Reference,
		ProviderReference: tx.ProviderReference,
		Amount:            tx.Amount.String(),
		Currency:          tx.Currency,
		CreatedAt:         time.Now().UTC(),
	}
}

// Repository manages payment record persistence
type Repository interface {
	Create(ctx context.Context, rec *PaymentRecord) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*PaymentRecord, error)
	ExistsByTransactionID(ctx context.Context, transactionID uuid.UUID) (bool, error)
}

// ErrRecordNotFound indicates a missing payment record
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "payment record not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || e.TransactionID == t.TransactionID
}

// ErrDuplicateRecord indicates a record already exists for the transaction
type ErrDuplicateRecord struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate payment record: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || e.TransactionID == t.TransactionID
}
