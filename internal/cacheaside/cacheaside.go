// Package cacheaside implements the read-through cache-aside pattern used
// throughout the server: look aside to Redis before falling back to the
// repository, and repopulate on miss or expiry.
package cacheaside

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached wraps a cacheable value with the absolute expiry it was stored
// with. Unlike the inheritance-style AsCache/ToCache trait pair this is
// modeled after, Go generics make a single parametrized envelope simpler
// than a capability interface per value type.
type Cached[T any] struct {
	Value     T     `json:"value"`
	ExpiredAt int64 `json:"expired_at"`
}

func (c Cached[T]) expired(now time.Time) bool {
	return c.ExpiredAt <= now.Unix()
}

// Fetch is the fallback call invoked on cache miss or expiry.
type Fetch[T any] func(ctx context.Context) (T, error)

// Aside resolves key under cachePrefix: serves a live cached value if
// present, otherwise calls fetch, stores the result with ttl, and returns
// it. A Redis error on the read path is treated as a miss; a Redis error on
// the write path is swallowed, since a cache-aside write failure must never
// fail the read it is caching.
func Aside[T any](ctx context.Context, client *redis.Client, cachePrefix, key string, now time.Time, ttl time.Duration, fetch Fetch[T]) (T, error) {
	var zero T
	cacheKey := fmt.Sprintf("%s:%s", cachePrefix, key)

	raw, err := client.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		var cached Cached[T]
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			if !cached.expired(now) {
				return cached.Value, nil
			}
		}
		_ = client.Del(ctx, cacheKey).Err()
	case errors.Is(err, redis.Nil):
		// cache miss, fall through to fetch
	default:
		// treat a transport error as a miss rather than failing the read
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	cached := Cached[T]{Value: value, ExpiredAt: now.Add(ttl).Unix()}
	if data, marshalErr := json.Marshal(cached); marshalErr == nil {
		_ = client.Set(ctx, cacheKey, data, ttl).Err()
	}

	return value, nil
}

// Invalidate removes key under cachePrefix from the cache, used by writers
// that must not serve a stale value until the next natural expiry.
func Invalidate(ctx context.Context, client *redis.Client, cachePrefix, key string) error {
	cacheKey := fmt.Sprintf("%s:%s", cachePrefix, key)
	return client.Del(ctx, cacheKey).Err()
}
