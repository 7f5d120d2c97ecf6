package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string

	// Completion API configuration
	LLMAPIKey  string
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	// Rate limiting of generation endpoints
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitStore    string

	// CoveragePolicy is "warn" or "fail"
	CoveragePolicy string
}

const (
	defaultServerPort        = "8080"
	defaultRateLimitRequests = 60
	defaultRateLimitWindow   = time.Hour
)

// LoadConfig reads an optional .env file, then environment variables with
// Docker secrets as fallback, and validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := fromEnvironment()
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	slog.Info("Configuration loaded", "environment", cfg.Environment, "db_driver", cfg.DBDriver,
		"rate_limit_store", cfg.RateLimitStore, "coverage_policy", cfg.CoveragePolicy)
	return cfg, nil
}

func fromEnvironment() (*Config, error) {
	cfg := &Config{
		Environment: GetEnvironment(),

		ServerPort: valueOr("SERVER_PORT", defaultServerPort),
		ServerHost: value("SERVER_HOST"),

		DBDriver:   strings.ToLower(valueOr("DB_DRIVER", "postgres")),
		DBHost:     valueOr("DB_HOST", "localhost"),
		DBPort:     valueOr("DB_PORT", "5432"),
		DBUser:     value("DB_USER"),
		DBPassword: value("DB_PASSWORD"),
		DBName:     valueOr("DB_NAME", "mealplanner"),
		DBSSLMode:  valueOr("DB_SSL_MODE", "disable"),
		SQLitePath: valueOr("SQLITE_PATH", "mealplanner.db"),

		RedisURL:      value("REDIS_URL"),
		RedisHost:     valueOr("REDIS_HOST", "localhost"),
		RedisPort:     valueOr("REDIS_PORT", "6379"),
		RedisPassword: value("REDIS_PASSWORD"),

		JWTSecret: value("JWT_SECRET"),

		LLMAPIKey: value("LLM_API_KEY"),
		LLMAPIURL: value("LLM_API_URL"),
		LLMModel:  value("LLM_MODEL"),

		RateLimitRequests: defaultRateLimitRequests,
		RateLimitWindow:   defaultRateLimitWindow,
		RateLimitStore:    strings.ToLower(valueOr("RATE_LIMIT_STORE", "memory")),
		CoveragePolicy:    strings.ToLower(valueOr("SHOPPING_COVERAGE_POLICY", "warn")),
	}

	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = value("DEEPSEEK_API_KEY")
	}
	if cfg.LLMAPIKey == "" {
		if path := os.Getenv("DEEPSEEK_API_KEY_FILE"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read API key file: %w", err)
			}
			cfg.LLMAPIKey = strings.TrimSpace(string(data))
		}
	}

	if origins := value("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = intValue("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = intValue("RATE_LIMIT_REQUESTS", defaultRateLimitRequests); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationValue("RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = durationValue("LLM_TIMEOUT", 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

// value returns the environment variable, falling back to the Docker secret of the same name in lower case
func value(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return readSecret(strings.ToLower(key))
}

func valueOr(key, fallback string) string {
	if v := value(key); v != "" {
		return v
	}
	return fallback
}

func intValue(key string, fallback int) (int, error) {
	raw := value(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationValue(key string, fallback time.Duration) (time.Duration, error) {
	raw := value(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// PostgresDSN builds the lib/pq style connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}
