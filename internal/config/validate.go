package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateBoard(&cfg.Board)...)
	errs = append(errs, validatePlugin(&cfg.Plugin)...)
	errs = append(errs, validateRealtime(&cfg.Realtime)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.read_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.WriteTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.write_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.MaxBodySize < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.max_body_size",
			Message: "must be non-negative",
		})
	}

	if cfg.CORS.Enabled && cfg.CORS.AllowCredentials {
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, ValidationError{
					Field:   "server.cors",
					Message: "security: allow_credentials=true with allowed_origins=[\"*\"] is insecure",
				})
				break
			}
		}
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		if !cfg.TLS.AutoTLS {
			if cfg.TLS.CertFile == "" {
				errs = append(errs, ValidationError{
					Field:   "server.tls.cert_file",
					Message: "required when TLS is enabled without auto_tls",
				})
			}
			if cfg.TLS.KeyFile == "" {
				errs = append(errs, ValidationError{
					Field:   "server.tls.key_file",
					Message: "required when TLS is enabled without auto_tls",
				})
			}
		} else if cfg.TLS.Domain == "" {
			errs = append(errs, ValidationError{
				Field:   "server.tls.domain",
				Message: "required when auto_tls is enabled",
			})
		}
	}

	return errs
}

func validateDatabase(cfg *DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "database.path",
			Message: "required",
		})
	}

	if cfg.Turso != nil && cfg.Turso.Enabled {
		if cfg.Turso.URL == "" {
			errs = append(errs, ValidationError{
				Field:   "database.turso.url",
				Message: "required when Turso is enabled",
			})
		}
		if cfg.Turso.AuthToken == "" {
			errs = append(errs, ValidationError{
				Field:   "database.turso.auth_token",
				Message: "required when Turso is enabled",
			})
		}
	}

	return errs
}

func validateBoard(cfg *BoardConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.WriteRateLimit.Max < 1 {
		errs = append(errs, ValidationError{
			Field:   "board.write_rate_limit.max",
			Message: "must be at least 1",
		})
	}
	if cfg.WriteRateLimit.Window <= 0 {
		errs = append(errs, ValidationError{
			Field:   "board.write_rate_limit.window",
			Message: "must be positive",
		})
	}
	if cfg.AuthCodeRateLimit.Max < 1 {
		errs = append(errs, ValidationError{
			Field:   "board.auth_code_rate_limit.max",
			Message: "must be at least 1",
		})
	}
	if cfg.AuthCodeRateLimit.Window <= 0 {
		errs = append(errs, ValidationError{
			Field:   "board.auth_code_rate_limit.window",
			Message: "must be positive",
		})
	}

	return errs
}

func validatePlugin(cfg *PluginConfig) ValidationErrors {
	var errs ValidationErrors

	if !cfg.Enabled {
		return errs
	}

	if cfg.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "plugin.dir",
			Message: "required when plugins are enabled",
		})
	}

	if cfg.MemoryLimitMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "plugin.memory_limit_mb",
			Message: "must be at least 1",
		})
	}

	if cfg.TimeoutSeconds < 1 {
		errs = append(errs, ValidationError{
			Field:   "plugin.timeout_seconds",
			Message: "must be at least 1 second",
		})
	}

	return errs
}

func validateRealtime(cfg *RealtimeConfig) ValidationErrors {
	var errs ValidationErrors

	if !cfg.Enabled {
		return errs
	}

	if cfg.RedisAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "realtime.redis_addr",
			Message: "required when realtime is enabled",
		})
	}

	if cfg.MaxConnections < 1 {
		errs = append(errs, ValidationError{
			Field:   "realtime.max_connections",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}

// ValidateSecret checks that a signing secret is production-ready.
func ValidateSecret(secret string) error {
	if secret == "" {
		return &ValidationError{
			Field:   "auth.secret",
			Message: "required for production use",
		}
	}
	if len(secret) < 32 {
		return &ValidationError{
			Field:   "auth.secret",
			Message: "must be at least 32 characters",
		}
	}
	return nil
}
