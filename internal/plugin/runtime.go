package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	extism "github.com/extism/go-sdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/metrics"
)

// Config bounds a plugin's sandboxed execution.
type Config struct {
	MemoryLimitMB  int64
	TimeoutSeconds int
	AfterTimeout   time.Duration
}

// DefaultConfig returns the server's default sandbox limits.
func DefaultConfig() Config {
	return Config{MemoryLimitMB: 64, TimeoutSeconds: 5, AfterTimeout: 2 * time.Second}
}

// Descriptor names a loaded plugin and its allow-listed capabilities.
type Descriptor struct {
	ID        uuid.UUID
	Name      string
	WasmPath  string
	Whitelist []WhitelistEntry
	Enabled   bool
}

// Runtime loads and invokes WASM plugins, enumerated in registration order
// for before_* hook short-circuiting.
type Runtime struct {
	mu      sync.RWMutex
	plugins []loadedPlugin
	cfg     Config
	redis   *redis.Client
	logger  zerolog.Logger
}

type loadedPlugin struct {
	desc   Descriptor
	plugin *extism.Plugin
}

// NewRuntime builds a Runtime; redis backs each plugin's namespaced
// storage capability.
func NewRuntime(cfg Config, client *redis.Client, logger zerolog.Logger) *Runtime {
	return &Runtime{cfg: cfg, redis: client, logger: logger}
}

// Load reads and instantiates the plugin described by desc, appending it to
// the enumeration order.
func (r *Runtime) Load(desc Descriptor) error {
	wasmData, err := os.ReadFile(desc.WasmPath)
	if err != nil {
		return fmt.Errorf("plugin: reading wasm file: %w", err)
	}

	manifest := extism.Manifest{
		Wasm: []extism.Wasm{extism.WasmData{Data: wasmData}},
	}
	config := extism.PluginConfig{EnableWasi: false}
	hostFns := r.hostFunctions(desc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := extism.NewPlugin(ctx, manifest, config, hostFns)
	if err != nil {
		return fmt.Errorf("plugin: instantiating %q: %w", desc.Name, err)
	}

	r.mu.Lock()
	r.plugins = append(r.plugins, loadedPlugin{desc: desc, plugin: p})
	r.mu.Unlock()

	r.logger.Debug().Str("plugin", desc.Name).Msg("loaded plugin")
	return nil
}

// Reload replaces the plugin named desc.Name in place, preserving its
// position in enumeration order.
func (r *Runtime) Reload(desc Descriptor) error {
	r.mu.Lock()
	for i, lp := range r.plugins {
		if lp.desc.Name == desc.Name {
			lp.plugin.Close(context.Background())
			r.plugins = append(r.plugins[:i], r.plugins[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return r.Load(desc)
}

// Close shuts down every loaded plugin.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lp := range r.plugins {
		lp.plugin.Close(context.Background())
	}
	r.plugins = nil
}

// RunBefore invokes hook (BeforePostThread or BeforePostResponse) over
// every enabled plugin in enumeration order, honoring the first non-allow
// verdict.
func (r *Runtime) RunBefore(hook HookPoint, draft Draft) (Verdict, error) {
	r.mu.RLock()
	plugins := make([]loadedPlugin, len(r.plugins))
	copy(plugins, r.plugins)
	r.mu.RUnlock()

	input, err := json.Marshal(draft)
	if err != nil {
		return Verdict{}, fmt.Errorf("plugin: marshal draft: %w", err)
	}

	for _, lp := range plugins {
		if !lp.desc.Enabled {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.TimeoutSeconds)*time.Second)
		start := time.Now()
		_, output, err := lp.plugin.CallWithContext(ctx, hook.FunctionName(), input)
		metrics.RecordPluginHook(hook.FunctionName(), lp.desc.Name, time.Since(start), errors.Is(ctx.Err(), context.DeadlineExceeded))
		cancel()
		if err != nil {
			r.logger.Warn().Err(err).Str("plugin", lp.desc.Name).Str("hook", hook.FunctionName()).Msg("plugin before-hook failed")
			continue
		}

		var verdict Verdict
		if err := json.Unmarshal(output, &verdict); err != nil {
			r.logger.Warn().Err(err).Str("plugin", lp.desc.Name).Msg("plugin returned malformed verdict")
			continue
		}
		if verdict.Action != ActionAllow && verdict.Action != "" {
			return verdict, nil
		}
	}

	return Verdict{Action: ActionAllow}, nil
}

// RunAfter invokes hook (AfterPostThread or AfterPostResponse) over every
// enabled plugin, best-effort: failures and timeouts are logged, never
// surfaced to the caller.
func (r *Runtime) RunAfter(hook HookPoint, draft Draft) {
	r.mu.RLock()
	plugins := make([]loadedPlugin, len(r.plugins))
	copy(plugins, r.plugins)
	r.mu.RUnlock()

	input, err := json.Marshal(draft)
	if err != nil {
		r.logger.Error().Err(err).Msg("plugin: marshal draft for after-hook failed")
		return
	}

	for _, lp := range plugins {
		if !lp.desc.Enabled {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.AfterTimeout)
		start := time.Now()
		_, _, err := lp.plugin.CallWithContext(ctx, hook.FunctionName(), input)
		metrics.RecordPluginHook(hook.FunctionName(), lp.desc.Name, time.Since(start), errors.Is(ctx.Err(), context.DeadlineExceeded))
		cancel()
		if err != nil {
			r.logger.Warn().Err(err).Str("plugin", lp.desc.Name).Str("hook", hook.FunctionName()).Msg("plugin after-hook failed")
		}
	}
}
