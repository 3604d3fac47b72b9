package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kreedentials/store/internal/domain"
	apperrors "github.com/kreedentials/store/pkg/errors"
)

// SessionRepository keeps sessions in process memory. Sessions are lost when
// the process exits.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Get returns a copy of the stored session.
func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.live(id)
	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	return s.Clone(), nil
}

// SaveIfVersion stores a copy of s when the stored version matches.
func (r *SessionRepository) SaveIfVersion(_ context.Context, s *domain.Session, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := 0
	if stored, ok := r.live(s.ID); ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return apperrors.Conflict(fmt.Sprintf("session %s was modified concurrently", s.ID))
	}

	s.Version = expectedVersion + 1
	r.sessions[s.ID] = s.Clone()
	return nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (r *SessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Sweep every interval until ctx is cancelled.
func (r *SessionRepository) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of stored sessions, expired ones included.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// live must be called with r.mu held.
func (r *SessionRepository) live(id string) (*domain.Session, bool) {
	s, ok := r.sessions[id]
	if !ok || s.Expired(r.now()) {
		return nil, false
	}
	return s, true
}
