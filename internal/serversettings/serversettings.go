// Package serversettings holds the process-local server-settings snapshot,
// refreshed periodically from the repository behind a reader-preferred
// lock. Unlike the teacher's connection-scoped singletons, the cache
// handle here is constructed once and passed explicitly to every caller.
package serversettings

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Key is a closed enum of the settings this cache understands; unknown keys
// read from the repository are ignored.
type Key string

const (
	KeyRequireUserRegistration Key = "require_user_registration"
	KeyEnableIdpLinking        Key = "user.enable_idp_linking"
	KeyRequireIdpLinking       Key = "user.require_idp_linking"
)

// Repository loads the full settings row set.
type Repository interface {
	ServerSettings(ctx context.Context) (map[string]string, error)
}

// Cache is a read-biased snapshot of server settings; a cache may be stale
// by up to one refresh period, which callers accept.
type Cache struct {
	mu     sync.RWMutex
	values map[string]string
	repo   Repository
	logger zerolog.Logger
}

// New builds an empty Cache backed by repo.
func New(repo Repository, logger zerolog.Logger) *Cache {
	return &Cache{values: make(map[string]string), repo: repo, logger: logger}
}

// Get returns the current value for key, or ("", false) if unset.
func (c *Cache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[string(key)]
	return v, ok
}

// Bool returns the current value for key parsed as a boolean, defaulting to
// false if unset or unparsable.
func (c *Cache) Bool(key Key) bool {
	v, ok := c.Get(key)
	return ok && v == "true"
}

// Refresh reloads the snapshot from the repository, replacing it
// atomically under a single write lock.
func (c *Cache) Refresh(ctx context.Context) error {
	values, err := c.repo.ServerSettings(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.values = values
	c.mu.Unlock()

	c.logger.Info().Int("count", len(values)).Msg("server settings cache refreshed")
	return nil
}

// RunRefreshLoop calls Refresh on every tick of interval until ctx is
// cancelled, logging (not surfacing) refresh errors.
func (c *Cache) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error().Err(err).Msg("server settings refresh failed")
			}
		}
	}
}
