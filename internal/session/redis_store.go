package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps markers in Redis so every API replica sees them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. Markers expire after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Mark writes the marker with an expiry.
func (s *RedisStore) Mark(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	if err := s.client.Set(ctx, markerKey(sessionID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Get reads the marker.
func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSession
	}
	value, err := s.client.Get(ctx, markerKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMarkerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: redis get: %w", err)
	}
	return value, nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
