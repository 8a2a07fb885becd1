package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurix/jurix/infrastructure/service/logger"
)

// countingLimiter keeps counters in memory
type countingLimiter struct {
	counts   map[string]int
	blocked  map[string]bool
	windows  map[string]time.Duration
	failWith error
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{
		counts:  make(map[string]int),
		blocked: make(map[string]bool),
		windows: make(map[string]time.Duration),
	}
}

func (l *countingLimiter) CheckLimit(ctx context.Context, key string, limit int) (bool, error) {
	return l.counts[key] <= limit, nil
}

func (l *countingLimiter) Increment(ctx context.Context, key string, window time.Duration) error {
	if l.failWith != nil {
		return l.failWith
	}
	l.counts[key]++
	l.windows[key] = window
	return nil
}

func (l *countingLimiter) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	l.blocked[key] = true
	return nil
}

func (l *countingLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	if l.failWith != nil {
		return false, l.failWith
	}
	return l.blocked[key], nil
}

func (l *countingLimiter) GetAttempts(ctx context.Context, key string) (int, error) {
	return l.counts[key], nil
}

var testRules = RateLimitConfig{
	Login: RateLimitRule{Limit: 2, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute},
	Write: RateLimitRule{Limit: 3, Window: time.Minute, BlockDuration: time.Minute},
	Read:  RateLimitRule{Limit: 5, Window: time.Minute, BlockDuration: time.Minute},
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "198.51.100.4:51234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	limiter := newCountingLimiter()
	m := NewRateLimitMiddleware(limiter, testRules, logger.Nop())
	h := m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/v1/auth/login").Code)
	}

	w := serve(h, http.MethodPost, "/api/v1/auth/login")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":false,"message":"Too many requests. Please try again later.","data":null,"code":"TOO_MANY_REQUESTS"}`, w.Body.String())
	assert.True(t, limiter.blocked["login:ip:198.51.100.4"])

	// blocked clients are turned away before counting
	serve(h, http.MethodPost, "/api/v1/auth/login")
	assert.Equal(t, 3, limiter.counts["login:ip:198.51.100.4"])
}

func TestRateLimitMiddleware_ClassifiesRequests(t *testing.T) {
	limiter := newCountingLimiter()
	m := NewRateLimitMiddleware(limiter, testRules, logger.Nop())
	h := m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve(h, http.MethodGet, "/api/v1/contracts")
	serve(h, http.MethodPut, "/api/v1/contracts/c-1")
	serve(h, http.MethodDelete, "/api/v1/contracts/c-1")
	serve(h, http.MethodPost, "/api/v1/auth/login")

	assert.Equal(t, 1, limiter.counts["read:ip:198.51.100.4"])
	assert.Equal(t, 2, limiter.counts["write:ip:198.51.100.4"])
	assert.Equal(t, 1, limiter.counts["login:ip:198.51.100.4"])
	assert.Equal(t, 15*time.Minute, limiter.windows["login:ip:198.51.100.4"])
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := newCountingLimiter()
	limiter.failWith = errors.New("redis: connection refused")
	m := NewRateLimitMiddleware(limiter, testRules, logger.Nop())
	h := m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "/api/v1/contracts").Code)
	}
}

func TestRateLimitMiddleware_NilService(t *testing.T) {
	m := NewRateLimitMiddleware(nil, testRules, logger.Nop())
	h := m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"}, remote: "10.0.0.2:80", expected: "203.0.113.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "203.0.113.9"}, remote: "10.0.0.2:80", expected: "203.0.113.9"},
		{name: "remote addr", remote: "192.0.2.10:4444", expected: "192.0.2.10"},
		{name: "remote addr without port", remote: "192.0.2.11", expected: "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIP(req))
		})
	}
}
