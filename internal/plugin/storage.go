package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Storage is the namespaced key-value host capability exposed to a single
// plugin; one instance never sees another plugin's keys.
type Storage struct {
	redis    *redis.Client
	pluginID uuid.UUID
}

// NewStorage builds a Storage scoped to pluginID.
func NewStorage(client *redis.Client, pluginID uuid.UUID) *Storage {
	return &Storage{redis: client, pluginID: pluginID}
}

func (s *Storage) key(userKey string) string {
	return fmt.Sprintf("plugin:%s:data:%s", s.pluginID, userKey)
}

// Get returns the value stored under key, or ("", false) if absent.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redis.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key, with an optional ttl (zero means no expiry).
func (s *Storage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.redis.Set(ctx, s.key(key), value, ttl).Err()
}

// Delete removes key, reporting whether it existed.
func (s *Storage) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether key is present.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
