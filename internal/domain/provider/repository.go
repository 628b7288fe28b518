package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConfigStore defines provider configuration persistence operations
type ConfigStore interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	GetByCode(ctx context.Context, code string) (*Provider, error)

	// Update persists the provider using optimistic locking on Version
	Update(ctx context.Context, p *Provider) error
	WithTx(tx pgx.Tx) ConfigStore
}

// ErrProviderNotFound indicates a missing provider
type ErrProviderNotFound struct {
	ID   uuid.UUID
	Code string
}

func (e ErrProviderNotFound) Error() string {
	if e.Code != "" {
		return "provider not found: " + e.Code
	}
	return "provider not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrProviderNotFound
func (e ErrProviderNotFound) Is(target error) bool {
	t, ok := target.(ErrProviderNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil && t.Code == "" {
		return true
	}
	return e.ID == t.ID && e.Code == t.Code
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	ProviderID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for provider: " + e.ProviderID.String()
}
