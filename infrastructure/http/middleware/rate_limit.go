package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/infrastructure/service/ratelimit"
)

// RateLimitRule is the budget applied to one class of requests
type RateLimitRule struct {
	Limit         int
	Window        time.Duration
	BlockDuration time.Duration
}

// RateLimitConfig holds the rules per request class
type RateLimitConfig struct {
	Login RateLimitRule
	Write RateLimitRule
	Read  RateLimitRule
}

type RateLimitMiddleware struct {
	rateLimitService ratelimit.RateLimitService
	config           RateLimitConfig
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService ratelimit.RateLimitService, config RateLimitConfig, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		config:           config,
		logger:           log,
	}
}

func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := ClientIP(r)
		class, rule := m.classify(r)
		key := fmt.Sprintf("%s:ip:%s", class, clientIP)

		// Redis errors never block traffic
		isBlocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{"key": key})
		}
		if isBlocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", map[string]interface{}{
				"ip":   clientIP,
				"path": r.URL.Path,
				"key":  key,
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rule.BlockDuration.Seconds())))
			response.TooManyRequests(w, "Too many requests. Please try again later.")
			return
		}

		if err := m.rateLimitService.Increment(ctx, key, rule.Window); err != nil {
			m.logger.Error(ctx, "Failed to increment rate limit", err, map[string]interface{}{"key": key})
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := m.rateLimitService.CheckLimit(ctx, key, rule.Limit)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{"key": key})
			allowed = true
		}

		if !allowed {
			if err := m.rateLimitService.Block(ctx, key, rule.BlockDuration, "Rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block client", err, map[string]interface{}{"key": key})
			}

			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"key":       key,
				"userAgent": r.UserAgent(),
			})

			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rule.BlockDuration.Seconds())))
			response.TooManyRequests(w, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) classify(r *http.Request) (string, RateLimitRule) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/auth/login"):
		return "login", m.config.Login
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return "read", m.config.Read
	default:
		return "write", m.config.Write
	}
}

// ClientIP extracts the client IP from proxy headers or the remote address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
