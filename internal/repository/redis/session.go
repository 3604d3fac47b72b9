package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kreedentials/store/internal/domain"
	"github.com/kreedentials/store/pkg/database"
	apperrors "github.com/kreedentials/store/pkg/errors"
)

const sessionKeyPrefix = "store:session:"

// SessionRepository implements repository.SessionRepository using Redis.
// Version checks run inside WATCH/MULTI so two writers racing on the same
// session cannot both win.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	tracer database.QueryTracer
	now    func() time.Time
}

// NewSessionRepository creates a new Redis-backed session repository. ttl is
// used when a session carries no expiry of its own.
func NewSessionRepository(client *redis.Client, ttl time.Duration, tracer database.QueryTracer) *SessionRepository {
	tracer.System = "redis"
	return &SessionRepository{
		client: client,
		ttl:    ttl,
		tracer: tracer,
		now:    time.Now,
	}
}

// Get retrieves a session by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (s *domain.Session, err error) {
	key := sessionKeyPrefix + id
	ctx, end := r.tracer.Start(ctx, "GetSession", "GET "+key)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", id)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	return decodeSession(data)
}

// SaveIfVersion writes s when the stored version equals expectedVersion.
func (r *SessionRepository) SaveIfVersion(ctx context.Context, s *domain.Session, expectedVersion int) (err error) {
	key := sessionKeyPrefix + s.ID
	ctx, end := r.tracer.Start(ctx, "SaveSession", "WATCH/MULTI SET "+key)
	defer func() { end(err) }()

	next := s.Clone()
	next.Version = expectedVersion + 1
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := r.ttl
	if !s.ExpiresAt.IsZero() {
		if remaining := s.ExpiresAt.Sub(r.now()); remaining > 0 {
			ttl = remaining
		}
	}

	txf := func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return apperrors.Conflict(fmt.Sprintf("session %s was modified concurrently", s.ID))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return apperrors.Conflict(fmt.Sprintf("session %s was modified concurrently", s.ID))
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		return fmt.Errorf("redis save session: %w", err)
	}

	s.Version = next.Version
	return nil
}

// Delete removes a session from Redis.
func (r *SessionRepository) Delete(ctx context.Context, id string) (err error) {
	key := sessionKeyPrefix + id
	ctx, end := r.tracer.Start(ctx, "DeleteSession", "DEL "+key)
	defer func() { end(err) }()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get session: %w", err)
	}

	s, err := decodeSession(data)
	if err != nil {
		return 0, err
	}
	return s.Version, nil
}

func decodeSession(data []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
