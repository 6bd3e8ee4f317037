// Package captcha holds the process-local snapshot of active captcha
// provider configurations, refreshed on the same reader-preferred pattern
// as internal/serversettings.
package captcha

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProviderConfig is a single enabled captcha provider's configuration.
type ProviderConfig struct {
	Provider      string
	SiteKey       string
	SecretKey     string
	CaptureFields []string
}

// Repository loads the currently active captcha provider configs.
type Repository interface {
	ActiveCaptchaConfigs(ctx context.Context) ([]ProviderConfig, error)
}

// Cache is a read-biased snapshot of active provider configs.
type Cache struct {
	mu      sync.RWMutex
	configs []ProviderConfig
	repo    Repository
	logger  zerolog.Logger
}

// New builds an empty Cache backed by repo.
func New(repo Repository, logger zerolog.Logger) *Cache {
	return &Cache{repo: repo, logger: logger}
}

// Configs returns the current snapshot of active provider configs.
func (c *Cache) Configs() []ProviderConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ProviderConfig, len(c.configs))
	copy(out, c.configs)
	return out
}

// Refresh reloads the snapshot from the repository, replacing it
// atomically under a single write lock.
func (c *Cache) Refresh(ctx context.Context) error {
	configs, err := c.repo.ActiveCaptchaConfigs(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.configs = configs
	c.mu.Unlock()

	c.logger.Info().Int("count", len(configs)).Msg("captcha config cache refreshed")
	return nil
}

// RunRefreshLoop calls Refresh on every tick of interval until ctx is
// cancelled.
func (c *Cache) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error().Err(err).Msg("captcha config refresh failed")
			}
		}
	}
}
