package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TokenBlocklist implements ports.TokenBlocklist. A revoked token id is kept
// only until the token would have expired anyway.
type TokenBlocklist struct {
	client goredis.Cmdable
	ns     keyspace
}

// NewTokenBlocklist creates a new Redis-backed token blocklist.
func NewTokenBlocklist(client goredis.Cmdable) *TokenBlocklist {
	return &TokenBlocklist{client: client, ns: "revoked:"}
}

// Revoke blocks tokenID for ttl. Revoking twice is a no-op.
func (b *TokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	err := b.client.SetArgs(ctx, b.ns.key(tokenID), 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (b *TokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.ns.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis token lookup: %w", err)
	}
	return n > 0, nil
}
