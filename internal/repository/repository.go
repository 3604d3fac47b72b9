package repository

import (
	"context"
	"time"

	"github.com/kreedentials/store/internal/domain"
)

// SessionRepository defines the persistence interface for storefront sessions.
type SessionRepository interface {
	// Get returns the session with the given id, or a NotFound error when it
	// does not exist or has expired.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// SaveIfVersion stores s only if the stored version equals
	// expectedVersion (0 means the session must not exist yet). On success
	// s.Version is advanced to expectedVersion+1. A mismatch returns a
	// Conflict error.
	SaveIfVersion(ctx context.Context, s *domain.Session, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

// AccountRepository defines the persistence interface for shopper accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// TokenBlocklist records revoked access tokens until they expire.
type TokenBlocklist interface {
	Block(ctx context.Context, tokenID string, until time.Time) error
	IsBlocked(ctx context.Context, tokenID string) (bool, error)
}
