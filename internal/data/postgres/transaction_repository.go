// Package postgres provides PostgreSQL implementations of the domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, reference, provider_id, amount::text, currency, state, state_message, provider_reference, version, created_at, updated_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to the given database transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transaction. A reused reference yields ErrDuplicateReference.
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, reference, provider_id, amount, currency, state, state_message, provider_reference, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		tx.ID,
		tx.Reference,
		tx.ProviderID,
		tx.Amount.String(),
		tx.Currency,
		tx.State,
		tx.StateMessage,
		tx.ProviderReference,
		tx.Version,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return transaction.ErrDuplicateReference{Reference: tx.Reference}
		}
		r.logger.Error("Failed to create transaction", "reference", tx.Reference, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetByReference retrieves a transaction by its merchant reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

	tx, err := scanTransaction(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get transaction by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return tx, nil
}

// GetByReferenceAndAmount retrieves a transaction whose reference, amount and provider code all match
func (r *TransactionRepository) GetByReferenceAndAmount(ctx context.Context, reference string, amount decimal.Decimal, providerCode string) (*transaction.Transaction, error) {
	query := `
		SELECT t.id, t.reference, t.provider_id, t.amount::text, t.currency, t.state, t.state_message,
		       t.provider_reference, t.version, t.created_at, t.updated_at
		FROM transactions t
		JOIN providers p ON p.id = t.provider_id
		WHERE t.reference = $1 AND t.amount = $2::numeric AND p.code = $3
		LIMIT 1
	`

	tx, err := scanTransaction(r.querier.QueryRow(ctx, query, reference, amount.String(), providerCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get transaction by reference and amount", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get transaction by reference and amount: %w", err)
	}
	return tx, nil
}

// UpdateState persists the state fields, checking the previous version for optimistic locking
func (r *TransactionRepository) UpdateState(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET state = $1, state_message = $2, provider_reference = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7
	`

	result, err := r.querier.Exec(ctx, query,
		tx.State,
		tx.StateMessage,
		tx.ProviderReference,
		tx.Version,
		tx.UpdatedAt,
		tx.ID,
		tx.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update transaction state", "id", tx.ID.String(), "error", err)
		return fmt.Errorf("failed to update transaction state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrConcurrentModification{TransactionID: tx.ID}
	}

	return nil
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var (
		tx     transaction.Transaction
		amount string
	)
	err := row.Scan(
		&tx.ID,
		&tx.Reference,
		&tx.ProviderID,
		&amount,
		&tx.Currency,
		&tx.State,
		&tx.StateMessage,
		&tx.ProviderReference,
		&tx.Version,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return &tx, nil
}
