package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://jurix@localhost/jurix?sslmode=disable")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, time.Second, cfg.SlowRequest)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "jurix", cfg.JWTIssuer)
	assert.Equal(t, 10, cfg.RateLimitLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitLoginWindow)
	assert.Equal(t, "jurix:audit:retry", cfg.AuditRetryKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.RateLimitingEnabled(), "no redis configured")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://jurix@db/jurix")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.jurix.io,https://admin.jurix.io")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"https://app.jurix.io", "https://admin.jurix.io"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RateLimitingEnabled())
}

func TestLoad_MalformedDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://jurix@db/jurix")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ACCESS_TOKEN_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:            "production",
			DatabaseURL:            "postgres://jurix@db/jurix",
			JWTSecret:              testSecret,
			AccessTokenTTL:         time.Hour,
			LogFormat:              "json",
			RateLimitEnabled:       true,
			RateLimitLoginAttempts: 10,
			RateLimitWriteRequests: 30,
			RateLimitReadRequests:  100,
			RateLimitWindow:        time.Minute,
			RateLimitLoginWindow:   15 * time.Minute,
			RateLimitBlockDuration: 5 * time.Minute,
			CORSAllowCredentials:   true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: ErrMissingDatabaseURL},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: ErrMissingJWTSecret},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = strings.Repeat("x", 31) }, wantErr: ErrWeakJWTSecret},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: ErrInvalidLogFormat},
		{name: "wildcard cors with credentials", mutate: func(c *Config) { c.CORSAllowedOrigins = []string{"*"} }, wantErr: ErrWildcardWithCreds},
		{name: "wildcard cors without credentials", mutate: func(c *Config) {
			c.CORSAllowedOrigins = []string{"*"}
			c.CORSAllowCredentials = false
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("zero rate limit", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimitWriteRequests = 0
		assert.Error(t, cfg.Validate())
	})
}
