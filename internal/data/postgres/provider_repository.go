package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const providerColumns = `id, code, name, state, api_key, store_name, email, gateway_key, expiry_days, store_url,
	account_keys, payment_data, token_api, callback_base_url, version, created_at, updated_at`

// ProviderRepository implements the provider.ConfigStore interface for PostgreSQL
type ProviderRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewProviderRepository creates a new PostgreSQL provider repository
func NewProviderRepository(logger *slog.Logger, db *persistence.PostgresDB) provider.ConfigStore {
	return &ProviderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to the given database transaction
func (r *ProviderRepository) WithTx(tx pgx.Tx) provider.ConfigStore {
	return &ProviderRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new provider
func (r *ProviderRepository) Create(ctx context.Context, p *provider.Provider) error {
	query := `
		INSERT INTO providers (` + providerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.Code,
		p.Name,
		p.State,
		p.APIKey,
		p.StoreName,
		p.Email,
		p.GatewayKey,
		p.ExpiryDays,
		p.StoreURL,
		p.AccountKeys,
		p.PaymentData,
		p.TokenAPI,
		p.CallbackBaseURL,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create provider", "name", p.Name, "error", err)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// GetByID retrieves a provider by its ID
func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	p, err := scanProvider(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, provider.ErrProviderNotFound{ID: id}
		}
		r.logger.Error("Failed to get provider", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

// GetByCode retrieves the oldest provider registered under a code
func (r *ProviderRepository) GetByCode(ctx context.Context, code string) (*provider.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE code = $1 ORDER BY created_at ASC LIMIT 1`

	p, err := scanProvider(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, provider.ErrProviderNotFound{Code: code}
		}
		r.logger.Error("Failed to get provider by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get provider by code: %w", err)
	}
	return p, nil
}

// Update persists every mutable field, checking the previous version for optimistic locking
func (r *ProviderRepository) Update(ctx context.Context, p *provider.Provider) error {
	query := `
		UPDATE providers
		SET name = $1, state = $2, api_key = $3, store_name = $4, email = $5, gateway_key = $6,
		    expiry_days = $7, store_url = $8, account_keys = $9, payment_data = $10, token_api = $11,
		    callback_base_url = $12, version = $13, updated_at = $14
		WHERE id = $15 AND version = $16
	`

	result, err := r.querier.Exec(ctx, query,
		p.Name,
		p.State,
		p.APIKey,
		p.StoreName,
		p.Email,
		p.GatewayKey,
		p.ExpiryDays,
		p.StoreURL,
		p.AccountKeys,
		p.PaymentData,
		p.TokenAPI,
		p.CallbackBaseURL,
		p.Version,
		p.UpdatedAt,
		p.ID,
		p.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update provider", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update provider: %w", err)
	}

	if result.RowsAffected() == 0 {
		return provider.ErrConcurrentModification{ProviderID: p.ID}
	}

	return nil
}

func scanProvider(row rowScanner) (*provider.Provider, error) {
	var p provider.Provider
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.State,
		&p.APIKey,
		&p.StoreName,
		&p.Email,
		&p.GatewayKey,
		&p.ExpiryDays,
		&p.StoreURL,
		&p.AccountKeys,
		&p.PaymentData,
		&p.TokenAPI,
		&p.CallbackBaseURL,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
