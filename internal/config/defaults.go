package config

import "time"

// Default configuration values.
const (
	// Server defaults.
	DefaultHost         = "localhost"
	DefaultPort         = 8090
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultMaxBodySize  = 1 * 1024 * 1024 // 1MB, legacy bbs.cgi posts are small

	// Database defaults.
	DefaultDBPath       = "eddist.db"
	DefaultCacheSize    = -64000 // 64MB
	DefaultBusyTimeout  = 5 * time.Second
	DefaultMaxOpenConns = 1 // SQLite works best with single writer
	DefaultMaxIdleConns = 1

	// Board defaults.
	DefaultBoardName          = "liberal board"
	DefaultWriteRateMax       = 1
	DefaultWriteRateWindow    = 10 * time.Second
	DefaultAuthCodeRateMax    = 5
	DefaultAuthCodeRateWindow = time.Minute

	// Auth defaults.
	DefaultTinkerTTL = 30 * 24 * time.Hour // 30 days
	DefaultIssuer    = "eddist-go"

	// Plugin defaults.
	DefaultPluginDir            = "plugins"
	DefaultPluginMemoryLimitMB  = 64
	DefaultPluginTimeoutSeconds = 5
	DefaultPluginAfterTimeout   = 2 * time.Second

	// Realtime defaults.
	DefaultRedisAddr       = "localhost:6379"
	DefaultMaxConnections  = 1000
	DefaultCleanupInterval = 5 * time.Minute

	// Logging defaults.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxBodySize:  DefaultMaxBodySize,
			CookieSecure: false,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			},
		},
		Database: DatabaseConfig{
			Path:            DefaultDBPath,
			WALMode:         true,
			CacheSize:       DefaultCacheSize,
			BusyTimeout:     DefaultBusyTimeout,
			ForeignKeys:     true,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxLifetime: 0, // No limit
		},
		Board: BoardConfig{
			DefaultName: DefaultBoardName,
			WriteRateLimit: RateLimitRule{
				Max:    DefaultWriteRateMax,
				Window: DefaultWriteRateWindow,
			},
			AuthCodeRateLimit: RateLimitRule{
				Max:    DefaultAuthCodeRateMax,
				Window: DefaultAuthCodeRateWindow,
			},
		},
		Auth: AuthConfig{
			TinkerTTL: DefaultTinkerTTL,
			Issuer:    DefaultIssuer,
		},
		Plugin: PluginConfig{
			Enabled:        false,
			Dir:            DefaultPluginDir,
			MemoryLimitMB:  DefaultPluginMemoryLimitMB,
			TimeoutSeconds: DefaultPluginTimeoutSeconds,
			AfterTimeout:   DefaultPluginAfterTimeout,
			Watch:          false,
		},
		Realtime: RealtimeConfig{
			Enabled:        true,
			RedisAddr:      DefaultRedisAddr,
			RedisDB:        0,
			MaxConnections: DefaultMaxConnections,
		},
		Archiver: ArchiverConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			Caller:    false,
			Timestamp: true,
		},
	}
}
