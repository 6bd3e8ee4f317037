package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eddist-go/bbs/internal/archiver"
	"github.com/eddist-go/bbs/internal/config"
	"github.com/eddist-go/bbs/internal/database"
	"github.com/eddist-go/bbs/internal/httpapi"
	"github.com/eddist-go/bbs/internal/ngword"
	"github.com/eddist-go/bbs/internal/pipeline"
	"github.com/eddist-go/bbs/internal/plugin"
	"github.com/eddist-go/bbs/internal/pubsub"
	"github.com/eddist-go/bbs/internal/repository"
	"github.com/eddist-go/bbs/internal/restriction"
	"github.com/eddist-go/bbs/internal/server"
	"github.com/eddist-go/bbs/internal/streaming"
	"github.com/eddist-go/bbs/internal/tinker"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bbs.cgi HTTP server",
	Long: `Start the eddist-go server: opens the SQLite database (applying
pending internal migrations), wires the write-path pipeline and its
repository/restriction/ng-word/plugin/realtime dependencies, and listens
for bbs.cgi traffic until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Warn().Err(err).Msg("no config file found, using defaults")
		cfg = config.Default()
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	applyLogConfig(cfg.Logging)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	bbs := repository.NewSQLite(db)

	restrictions, err := restriction.NewEngine()
	if err != nil {
		return fmt.Errorf("building restriction engine: %w", err)
	}
	rules, err := bbs.RestrictionRules(context.Background())
	if err != nil {
		return fmt.Errorf("loading restriction rules: %w", err)
	}
	for _, loadErr := range restrictions.Load(rules) {
		log.Warn().Err(loadErr).Msg("skipping invalid restriction rule")
	}

	// Redis backs ng-word caching, plugin storage, and (when cfg.Realtime
	// is enabled) the cross-process pub/sub broker, so the client is
	// built unconditionally; only the broker is gated on Realtime.Enabled.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Realtime.RedisAddr,
		DB:       cfg.Realtime.RedisDB,
		Password: cfg.Realtime.RedisPassword,
	})
	defer redisClient.Close()

	ngWords := ngword.NewReadingService(bbs, redisClient)
	cookies := tinker.NewCookieSigner([]byte(cfg.Auth.Secret), cfg.Auth.TinkerTTL)
	streams := streaming.NewManager()

	var plugins *plugin.Runtime
	var watcher *plugin.Watcher
	if cfg.Plugin.Enabled {
		plugins = plugin.NewRuntime(plugin.Config{
			MemoryLimitMB:  cfg.Plugin.MemoryLimitMB,
			TimeoutSeconds: cfg.Plugin.TimeoutSeconds,
			AfterTimeout:   cfg.Plugin.AfterTimeout,
		}, redisClient, log.Logger)

		descs, loadErr := loadPlugins(plugins, cfg.Plugin.Dir)
		if loadErr != nil {
			log.Warn().Err(loadErr).Msg("failed to load plugins directory")
		}

		if cfg.Plugin.Watch {
			w, watchErr := plugin.NewWatcher(plugins, log.Logger)
			if watchErr != nil {
				log.Warn().Err(watchErr).Msg("failed to start plugin watcher, continuing without hot-reload")
			} else {
				for _, d := range descs {
					if watchErr := w.Watch(d); watchErr != nil {
						log.Warn().Err(watchErr).Str("plugin", d.Name).Msg("failed to watch plugin file")
					}
				}
				go w.Run()
				watcher = w
			}
		}
	}

	var broker *pubsub.Publisher
	if cfg.Realtime.Enabled {
		broker = pubsub.NewPublisher(redisClient, log.Logger)
	}

	p := pipeline.New(bbs, bbs, restrictions, ngWords, cookies, plugins, streams, broker, log.Logger)

	handlers := httpapi.New(p, bbs, bbs, streams, httpapi.Env{
		ASNHeaderName: cfg.Server.ASNHeaderName,
		CookieSecure:  cfg.Server.CookieSecure,
	}, log.Logger)

	srv := server.New(cfg, db, handlers, streams)

	var arc *archiver.Archiver
	if cfg.Archiver.Enabled {
		arc = archiver.New(bbs, log.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received")
		cancel()
		if watcher != nil {
			_ = watcher.Close()
		}
		if arc != nil {
			arc.Stop()
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if arc != nil {
		if err := arc.Schedule(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to schedule board archive cron jobs")
		} else {
			arc.Start()
		}
	}

	log.Info().Str("addr", cfg.Server.Address()).Msg("starting server")
	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-ctx.Done()
	return nil
}

// loadPlugins scans dir for .wasm modules and loads each into runtime,
// named after its filename without extension. Loading is best-effort: a
// malformed module is logged and skipped rather than aborting startup.
func loadPlugins(runtime *plugin.Runtime, dir string) ([]plugin.Descriptor, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugin directory: %w", err)
	}

	var loaded []plugin.Descriptor
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wasm" {
			continue
		}
		desc := plugin.Descriptor{
			ID:       uuid.New(),
			Name:     entry.Name()[:len(entry.Name())-len(filepath.Ext(entry.Name()))],
			WasmPath: filepath.Join(dir, entry.Name()),
			Enabled:  true,
		}
		if err := runtime.Load(desc); err != nil {
			log.Error().Err(err).Str("plugin", desc.Name).Msg("failed to load plugin")
			continue
		}
		log.Info().Str("plugin", desc.Name).Msg("loaded plugin")
		loaded = append(loaded, desc)
	}
	return loaded, nil
}

func applyLogConfig(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out *os.File = os.Stderr
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			out = f
		} else {
			log.Warn().Err(err).Str("path", cfg.Output).Msg("failed to open log output, using stderr")
		}
	}

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out})
	}

	ctx := logger.With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}
