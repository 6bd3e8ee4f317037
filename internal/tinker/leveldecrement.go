package tinker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leveldecWindow    = 30 * time.Second
	leveldecThreshold = 5
)

// LevelDecrementService flags tokens that post more than five responses
// inside one fixed, clock-aligned 30-second window for a tinker level
// decrement. It only reports the flag; the write pipeline does not call it.
type LevelDecrementService struct {
	redis *redis.Client
}

// NewLevelDecrementService builds a LevelDecrementService backed by client.
func NewLevelDecrementService(client *redis.Client) *LevelDecrementService {
	return &LevelDecrementService{redis: client}
}

// CheckAndIncrement records a response for authedToken at now and reports
// whether the token has exceeded the threshold for its current window.
func (s *LevelDecrementService) CheckAndIncrement(ctx context.Context, authedToken string, now time.Time) (bool, error) {
	ts := now.Unix()
	windowStart := (ts / int64(leveldecWindow.Seconds())) * int64(leveldecWindow.Seconds())
	key := fmt.Sprintf("ratelimit:leveldec:%s:%d", authedToken, windowStart)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("tinker: increment level-decrement window: %w", err)
	}
	if count == 1 {
		expiry := leveldecWindow - time.Duration(ts-windowStart)*time.Second
		if expiry <= 0 {
			expiry = time.Second
		}
		if err := s.redis.Expire(ctx, key, expiry).Err(); err != nil {
			return false, fmt.Errorf("tinker: set level-decrement window expiry: %w", err)
		}
	}

	return count > leveldecThreshold, nil
}
