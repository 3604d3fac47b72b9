package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/kreedentials/store/internal/domain"
	apperrors "github.com/kreedentials/store/pkg/errors"
)

// AccountRepository is an in-memory account store for development and tests.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

// NewAccountRepository creates an empty in-memory account store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

// Create stores a new account. Emails are compared case-insensitively.
func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(a.Email)
	if _, taken := r.byEmail[email]; taken {
		return apperrors.AlreadyExists("account", "email", a.Email)
	}
	if _, taken := r.byID[a.ID]; taken {
		return apperrors.AlreadyExists("account", "id", a.ID)
	}

	stored := *a
	r.byID[a.ID] = &stored
	r.byEmail[email] = a.ID
	return nil
}

// GetByID returns the account with the given id.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("account", id)
	}
	out := *a
	return &out, nil
}

// GetByEmail returns the account registered under email.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("account", email)
	}
	out := *r.byID[id]
	return &out, nil
}
