package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting of the service, read from the environment
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"jurix"`
	Version     string `envconfig:"SERVICE_VERSION" default:"dev"`

	ServerPort      string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"20s"`
	SlowRequest     time.Duration `envconfig:"SERVER_SLOW_REQUEST_THRESHOLD" default:"1s"`

	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	// RedisURL is optional; without it rate limiting and the audit retry queue are off
	RedisURL      string `envconfig:"REDIS_URL"`
	AuditRetryKey string `envconfig:"AUDIT_RETRY_KEY" default:"jurix:audit:retry"`

	RateLimitEnabled       bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitLoginAttempts int           `envconfig:"RATE_LIMIT_LOGIN_ATTEMPTS" default:"10"`
	RateLimitLoginWindow   time.Duration `envconfig:"RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	RateLimitWriteRequests int           `envconfig:"RATE_LIMIT_WRITE_REQUESTS" default:"30"`
	RateLimitReadRequests  int           `envconfig:"RATE_LIMIT_READ_REQUESTS" default:"100"`
	RateLimitWindow        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitBlockDuration time.Duration `envconfig:"RATE_LIMIT_BLOCK_DURATION" default:"5m"`

	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"jurix"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	CORSAllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	CORSAllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrWeakJWTSecret      = errors.New("JWT_SECRET must be at least 32 characters")
	ErrInvalidLogFormat   = errors.New("LOG_FORMAT must be json or text")
	ErrWildcardWithCreds  = errors.New("CORS_ALLOWED_ORIGINS cannot be * when credentials are allowed in production")
)

// MinJWTSecretLength is the shortest accepted HMAC secret
const MinJWTSecretLength = 32

// Load reads .env when present, then the process environment, and validates the result
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and cross-field rules
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return ErrWeakJWTSecret
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}

	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return ErrInvalidLogFormat
	}

	if c.RateLimitEnabled {
		if c.RateLimitLoginAttempts < 1 || c.RateLimitWriteRequests < 1 || c.RateLimitReadRequests < 1 {
			return errors.New("rate limits must be at least 1")
		}
		if c.RateLimitWindow <= 0 || c.RateLimitLoginWindow <= 0 || c.RateLimitBlockDuration <= 0 {
			return errors.New("rate limit windows must be positive")
		}
	}

	if c.IsProduction() && c.CORSAllowCredentials {
		for _, o := range c.CORSAllowedOrigins {
			if strings.TrimSpace(o) == "*" {
				return ErrWildcardWithCreds
			}
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RateLimitingEnabled reports whether the Redis backed limiter should run
func (c *Config) RateLimitingEnabled() bool {
	return c.RateLimitEnabled && c.RedisURL != ""
}
