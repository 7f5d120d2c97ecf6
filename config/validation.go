package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// minProductionSecretLength guards against placeholder JWT secrets in production
const minProductionSecretLength = 32

// ValidateConfig collects every problem with cfg and reports them together
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		add("SERVER_PORT", "must be a valid port number")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for postgres")
		}
		if cfg.DBUser == "" {
			add("DB_USER", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required for postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for sqlite")
		}
	default:
		add("DB_DRIVER", "must be postgres or sqlite")
	}

	if cfg.JWTSecret == "" {
		add("JWT_SECRET", "is required")
	} else if cfg.Environment == Production && len(cfg.JWTSecret) < minProductionSecretLength {
		add("JWT_SECRET", fmt.Sprintf("must be at least %d characters in production", minProductionSecretLength))
	}

	if cfg.LLMAPIKey == "" && cfg.Environment != Test {
		add("LLM_API_KEY", "LLM_API_KEY, DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
	}
	if cfg.LLMTimeout < 0 {
		add("LLM_TIMEOUT", "must not be negative")
	}

	if cfg.RateLimitRequests <= 0 {
		add("RATE_LIMIT_REQUESTS", "must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		add("RATE_LIMIT_WINDOW", "must be positive")
	}
	switch cfg.RateLimitStore {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" && cfg.RedisHost == "" {
			add("REDIS_URL", "REDIS_URL or REDIS_HOST is required for the redis rate limit store")
		}
	default:
		add("RATE_LIMIT_STORE", "must be memory or redis")
	}

	if cfg.CoveragePolicy != "warn" && cfg.CoveragePolicy != "fail" {
		add("SHOPPING_COVERAGE_POLICY", "must be warn or fail")
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d problems:\n%s", len(errs), strings.Join(msgs, "\n"))
}
