package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrMissingRequired = errors.New("missing required configuration")
)

type LoadOptions struct {
	ConfigFile string
	EnvPrefix  string
	Defaults   *Config
}

func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := opts.Defaults
	if defaults == nil {
		defaults = Default()
	}
	setViperDefaults(v, defaults)

	if opts.EnvPrefix == "" {
		opts.EnvPrefix = "EDDIST"
	}
	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("eddist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/eddist-go")
		v.AddConfigPath("/etc/eddist-go")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	expandEnvInConfig(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	return Load(LoadOptions{ConfigFile: path})
}

func LoadWithDefaults() (*Config, error) {
	return Load(LoadOptions{})
}

func setViperDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.max_body_size", cfg.Server.MaxBodySize)
	v.SetDefault("server.asn_header_name", cfg.Server.ASNHeaderName)
	v.SetDefault("server.cookie_secure", cfg.Server.CookieSecure)

	v.SetDefault("server.cors.enabled", cfg.Server.CORS.Enabled)
	v.SetDefault("server.cors.allowed_origins", cfg.Server.CORS.AllowedOrigins)
	v.SetDefault("server.cors.allowed_methods", cfg.Server.CORS.AllowedMethods)
	v.SetDefault("server.cors.allowed_headers", cfg.Server.CORS.AllowedHeaders)
	v.SetDefault("server.cors.exposed_headers", cfg.Server.CORS.ExposedHeaders)
	v.SetDefault("server.cors.allow_credentials", cfg.Server.CORS.AllowCredentials)
	v.SetDefault("server.cors.max_age", cfg.Server.CORS.MaxAge)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.wal_mode", cfg.Database.WALMode)
	v.SetDefault("database.cache_size", cfg.Database.CacheSize)
	v.SetDefault("database.busy_timeout", cfg.Database.BusyTimeout)
	v.SetDefault("database.foreign_keys", cfg.Database.ForeignKeys)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)

	v.SetDefault("board.default_name", cfg.Board.DefaultName)
	v.SetDefault("board.write_rate_limit.max", cfg.Board.WriteRateLimit.Max)
	v.SetDefault("board.write_rate_limit.window", cfg.Board.WriteRateLimit.Window)
	v.SetDefault("board.auth_code_rate_limit.max", cfg.Board.AuthCodeRateLimit.Max)
	v.SetDefault("board.auth_code_rate_limit.window", cfg.Board.AuthCodeRateLimit.Window)

	v.SetDefault("auth.secret", cfg.Auth.Secret)
	v.SetDefault("auth.tinker_ttl", cfg.Auth.TinkerTTL)
	v.SetDefault("auth.issuer", cfg.Auth.Issuer)

	v.SetDefault("plugin.enabled", cfg.Plugin.Enabled)
	v.SetDefault("plugin.dir", cfg.Plugin.Dir)
	v.SetDefault("plugin.memory_limit_mb", cfg.Plugin.MemoryLimitMB)
	v.SetDefault("plugin.timeout_seconds", cfg.Plugin.TimeoutSeconds)
	v.SetDefault("plugin.after_timeout", cfg.Plugin.AfterTimeout)
	v.SetDefault("plugin.watch", cfg.Plugin.Watch)

	v.SetDefault("realtime.enabled", cfg.Realtime.Enabled)
	v.SetDefault("realtime.redis_addr", cfg.Realtime.RedisAddr)
	v.SetDefault("realtime.redis_db", cfg.Realtime.RedisDB)
	v.SetDefault("realtime.redis_password", cfg.Realtime.RedisPassword)
	v.SetDefault("realtime.max_connections", cfg.Realtime.MaxConnections)

	v.SetDefault("archiver.enabled", cfg.Archiver.Enabled)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.caller", cfg.Logging.Caller)
	v.SetDefault("logging.timestamp", cfg.Logging.Timestamp)
	v.SetDefault("logging.output", cfg.Logging.Output)
}

func expandEnvInConfig(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envVar := val[2 : len(val)-1]
			if envVal := os.Getenv(envVar); envVal != "" {
				v.Set(key, envVal)
			}
		}
	}
}

func ConfigFilePath(customPath string) (string, error) {
	if customPath != "" {
		absPath, err := filepath.Abs(customPath)
		if err != nil {
			return "", fmt.Errorf("resolving config path: %w", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", absPath)
		}
		return absPath, nil
	}

	searchPaths := []string{
		"eddist.yaml",
		"eddist.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "eddist-go", "eddist.yaml"),
		"/etc/eddist-go/eddist.yaml",
	}

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", ErrConfigNotFound
}
