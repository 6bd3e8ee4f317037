// Package config provides configuration management for the eddist-go bbs
// server.
package config

import (
	"time"
)

// Config is the root configuration structure for the server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Board    BoardConfig    `mapstructure:"board"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Plugin   PluginConfig   `mapstructure:"plugin"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Archiver ArchiverConfig `mapstructure:"archiver"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind the server to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	// Enable CORS
	CORS CORSConfig `mapstructure:"cors"`

	// Request timeout
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Maximum request body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`

	// Header carrying the requester's ASN, set by an upstream proxy
	ASNHeaderName string `mapstructure:"asn_header_name"`

	// Mark session cookies Secure (set behind TLS-terminating proxies)
	CookieSecure bool `mapstructure:"cookie_secure"`

	// TLS configuration (optional)
	TLS *TLSConfig `mapstructure:"tls"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enable CORS
	Enabled bool `mapstructure:"enabled"`

	// Allowed origins (use ["*"] for all)
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// Exposed headers
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// Allow credentials
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// Max age for preflight cache
	MaxAge time.Duration `mapstructure:"max_age"`
}

// TLSConfig holds TLS settings.
type TLSConfig struct {
	// Enable TLS
	Enabled bool `mapstructure:"enabled"`

	// Path to certificate file
	CertFile string `mapstructure:"cert_file"`

	// Path to key file
	KeyFile string `mapstructure:"key_file"`

	// Enable auto TLS via Let's Encrypt
	AutoTLS bool `mapstructure:"auto_tls"`

	// Domain for auto TLS
	Domain string `mapstructure:"domain"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Busy timeout in milliseconds
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Enable foreign keys
	ForeignKeys bool `mapstructure:"foreign_keys"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// Connection max lifetime
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// Turso configuration (optional, for distributed deployments)
	Turso *TursoConfig `mapstructure:"turso"`
}

// TursoConfig holds Turso (libSQL) settings.
type TursoConfig struct {
	// Enable Turso
	Enabled bool `mapstructure:"enabled"`

	// Turso database URL
	URL string `mapstructure:"url"`

	// Auth token
	AuthToken string `mapstructure:"auth_token"`
}

// BoardConfig holds write-path policy that applies across every board,
// layered beneath each board's own BoardInfo row.
type BoardConfig struct {
	// Default board_name; loaded from config but not read by the write path
	// or the renderers
	DefaultName string `mapstructure:"default_name"`

	// Per-IP rate limit on POST /test/bbs.cgi
	WriteRateLimit RateLimitRule `mapstructure:"write_rate_limit"`

	// Per-IP rate limit on POST /auth-code
	AuthCodeRateLimit RateLimitRule `mapstructure:"auth_code_rate_limit"`
}

// AuthConfig holds the write-session signing settings for the tinker
// cookie. Activation codes are random and do not use the secret.
type AuthConfig struct {
	// Secret key for signing tinker cookies (required, min 32 chars)
	Secret string `mapstructure:"secret"`

	// Tinker cookie lifetime
	TinkerTTL time.Duration `mapstructure:"tinker_ttl"`

	// Issuer name; loaded from config but unused, since the tinker cookie
	// is signed with a fixed issuer claim
	Issuer string `mapstructure:"issuer"`
}

// RateLimitRule defines a fixed-window rate limit rule: at most Max
// requests per key in each Window.
type RateLimitRule struct {
	// Maximum requests
	Max int `mapstructure:"max"`

	// Time window
	Window time.Duration `mapstructure:"window"`
}

// PluginConfig holds the WASM plugin sandbox settings.
type PluginConfig struct {
	// Enable loading plugins
	Enabled bool `mapstructure:"enabled"`

	// Directory scanned (and, in dev mode, watched) for compiled .wasm
	// plugin modules
	Dir string `mapstructure:"dir"`

	// Per-invocation memory limit
	MemoryLimitMB int64 `mapstructure:"memory_limit_mb"`

	// Per-invocation timeout
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// Grace period after TimeoutSeconds before the host force-kills a plugin
	AfterTimeout time.Duration `mapstructure:"after_timeout"`

	// Reload plugins from Dir when their .wasm file changes on disk
	Watch bool `mapstructure:"watch"`
}

// RealtimeConfig holds the pub/sub broker and thread-stream settings.
type RealtimeConfig struct {
	// Enable the pub/sub broker backing the thread-stream endpoint
	Enabled bool `mapstructure:"enabled"`

	// Redis address (host:port)
	RedisAddr string `mapstructure:"redis_addr"`

	// Redis database index
	RedisDB int `mapstructure:"redis_db"`

	// Redis password, if any
	RedisPassword string `mapstructure:"redis_password"`

	// Maximum concurrent thread-stream subscriptions; validated at load
	// but not enforced by the streaming manager
	MaxConnections int `mapstructure:"max_connections"`
}

// ArchiverConfig holds the per-board thread-compaction cron settings.
type ArchiverConfig struct {
	// Enable the archiver's cron scheduler
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`

	// Include caller info
	Caller bool `mapstructure:"caller"`

	// Include timestamp
	Timestamp bool `mapstructure:"timestamp"`

	// Output file (empty for stderr)
	Output string `mapstructure:"output"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return s.Host + ":" + itoa(s.Port)
}

// itoa converts int to string without importing strconv.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	negative := i < 0
	if negative {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if negative {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
