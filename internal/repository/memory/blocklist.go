package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlocklist holds revoked token ids in memory until they expire.
type TokenBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewTokenBlocklist creates an empty blocklist.
func NewTokenBlocklist() *TokenBlocklist {
	return &TokenBlocklist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Block revokes tokenID until the given time. Tokens already past until are
// ignored.
func (b *TokenBlocklist) Block(_ context.Context, tokenID string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !until.After(b.now()) {
		return nil
	}
	b.revoked[tokenID] = until
	return nil
}

// IsBlocked reports whether tokenID is revoked. Expired entries are pruned
// lazily.
func (b *TokenBlocklist) IsBlocked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(b.now()) {
		delete(b.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
