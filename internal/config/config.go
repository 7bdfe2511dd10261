package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultAdminPassword is only acceptable outside production
const defaultAdminPassword = "admin123"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Bootstrap   BootstrapConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port              string
	Env               string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	AllowedOrigins    []string
	LogLevel          string
	TrustProxyHeaders bool
}

// DatabaseConfig holds SQL connection settings
type DatabaseConfig struct {
	Driver       string // pgx or sqlite
	URL          string
	MaxOpenConns int
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	ExpirationMins int
	Issuer         string
}

// RateLimitConfig holds per-client fixed window settings
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	IdleTTL  time.Duration
	Cleanup  time.Duration
}

// IdempotencyConfig holds settings for remembered request outcomes
type IdempotencyConfig struct {
	TTL        time.Duration
	Cleanup    time.Duration
	MaxEntries int
}

// BootstrapConfig names the admin account created on first start
type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:              getEnv("SERVER_PORT", "8000"),
			Env:               getEnv("SERVER_ENV", "development"),
			ReadTimeout:       getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins:    getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			TrustProxyHeaders: getBoolEnv("TRUST_PROXY_HEADERS", false),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			URL:          getEnv("DATABASE_URL", "file:car_service.db"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
		},
		JWT: JWTConfig{
			PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 30),
			Issuer:         getEnv("JWT_ISSUER", "car-service-crm"),
		},
		RateLimit: RateLimitConfig{
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 30),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", 2*time.Second),
			IdleTTL:  getDurationEnv("RATE_LIMIT_IDLE_TTL", time.Minute),
			Cleanup:  getDurationEnv("RATE_LIMIT_CLEANUP", time.Minute),
		},
		Idempotency: IdempotencyConfig{
			TTL:        getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
			Cleanup:    getDurationEnv("IDEMPOTENCY_CLEANUP", time.Hour),
			MaxEntries: getIntEnv("IDEMPOTENCY_MAX_ENTRIES", 100000),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", defaultAdminPassword),
			AdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Driver != "pgx" && c.Database.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be 'pgx' or 'sqlite', got '%s'", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	// JWT validation
	if c.JWT.PrivateKeyPath == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required"))
	}
	if c.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required"))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.IdleTTL < c.RateLimit.Window {
		errs = append(errs, errors.New("RATE_LIMIT_IDLE_TTL must not be shorter than RATE_LIMIT_WINDOW"))
	}

	// Idempotency validation
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.Idempotency.MaxEntries <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_MAX_ENTRIES must be positive"))
	}

	// Bootstrap validation
	if c.Bootstrap.AdminUsername == "" {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME is required"))
	}
	if c.IsProduction() && (c.Bootstrap.AdminPassword == "" || c.Bootstrap.AdminPassword == defaultAdminPassword) {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD must be set to a non-default value in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
