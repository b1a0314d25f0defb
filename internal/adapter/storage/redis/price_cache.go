package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const priceSnapshotKey = "prices:latest"

// PriceCache implements ports.PriceCache. Replicas share the last fetched
// snapshot through a single JSON key.
type PriceCache struct {
	client goredis.Cmdable
}

// NewPriceCache creates a new Redis-backed price cache.
func NewPriceCache(client goredis.Cmdable) *PriceCache {
	return &PriceCache{client: client}
}

// Get returns the cached snapshot, or nil when none is stored.
func (c *PriceCache) Get(ctx context.Context) (*domain.PriceSnapshot, error) {
	raw, err := c.client.Get(ctx, priceSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis price get: %w", err)
	}

	var snap domain.PriceSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode price snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores snapshot for ttl.
func (c *PriceCache) Set(ctx context.Context, snapshot domain.PriceSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode price snapshot: %w", err)
	}
	if err := c.client.Set(ctx, priceSnapshotKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis price set: %w", err)
	}
	return nil
}
