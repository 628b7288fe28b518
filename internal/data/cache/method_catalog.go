// Package cache keeps short-lived copies of aggregator data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// MethodCatalogKey holds the unfiltered aggregator method catalogue
const MethodCatalogKey = "ifthenpay:methods:available"

// KeyValueStore is the subset of *redis.Client used by the cache
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// MethodCatalogCache stores the aggregator method catalogue as JSON with a TTL
type MethodCatalogCache struct {
	store  KeyValueStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewMethodCatalogCache creates a catalogue cache
func NewMethodCatalogCache(logger *slog.Logger, store KeyValueStore, ttl time.Duration) *MethodCatalogCache {
	return &MethodCatalogCache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "MethodCatalogCache"),
	}
}

// Get returns the cached catalogue. A miss is reported as ok == false with a nil error.
func (c *MethodCatalogCache) Get(ctx context.Context) ([]ifthenpay.PaymentMethod, bool, error) {
	payload, err := c.store.Get(ctx, MethodCatalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read method catalogue: %w", err)
	}

	var methods []ifthenpay.PaymentMethod
	if err := json.Unmarshal(payload, &methods); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable cached catalogue", "error", err)
		return nil, false, nil
	}
	return methods, true, nil
}

// Set replaces the cached catalogue
func (c *MethodCatalogCache) Set(ctx context.Context, methods []ifthenpay.PaymentMethod) error {
	payload, err := json.Marshal(methods)
	if err != nil {
		return fmt.Errorf("failed to encode method catalogue: %w", err)
	}

	if err := c.store.Set(ctx, MethodCatalogKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write method catalogue: %w", err)
	}
	return nil
}
