package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "store:revoked:"

// TokenBlocklist implements repository.TokenBlocklist using Redis keys that
// expire together with the token they revoke.
type TokenBlocklist struct {
	client *redis.Client
	now    func() time.Time
}

// NewTokenBlocklist creates a new Redis-backed blocklist.
func NewTokenBlocklist(client *redis.Client) *TokenBlocklist {
	return &TokenBlocklist{client: client, now: time.Now}
}

// Block revokes tokenID until the given time.
func (b *TokenBlocklist) Block(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis block token: %w", err)
	}
	return nil
}

// IsBlocked reports whether tokenID has been revoked.
func (b *TokenBlocklist) IsBlocked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis check token: %w", err)
	}
	return n > 0, nil
}
