package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jurix/jurix/infrastructure/service/logger"
)

const keyPrefix = "jurix:ratelimit:"

// RateLimitService mendefinisikan interface untuk rate limiting
type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit int) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) error
	Block(ctx context.Context, key string, duration time.Duration, reason string) error
	IsBlocked(ctx context.Context, key string) (bool, error)
	GetAttempts(ctx context.Context, key string) (int, error)
}

// Client is the subset of *redis.Client used for counters and blocks
type Client interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// rateLimitService implementasi RateLimitService dengan Redis
type rateLimitService struct {
	client Client
	logger logger.Logger
}

// NewRateLimitService membuat instance baru dari RateLimitService.
// A nil client disables rate limiting.
func NewRateLimitService(client Client, log logger.Logger) RateLimitService {
	if log == nil {
		log = logger.Nop()
	}
	if client == nil {
		log.Info(context.Background(), "Rate limiting disabled", nil)
		return &noopRateLimitService{}
	}
	return &rateLimitService{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "rate_limit"}),
	}
}

// CheckLimit mengecek apakah limit belum tercapai
func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int) (bool, error) {
	current, err := s.GetAttempts(ctx, key)
	if err != nil {
		return false, err
	}

	underLimit := current <= limit
	s.logger.Debug(ctx, "Rate limit check", map[string]interface{}{
		"key":         key,
		"current":     current,
		"limit":       limit,
		"under_limit": underLimit,
	})

	return underLimit, nil
}

// Increment menambah counter; the window starts with the first hit
func (s *rateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	count, err := s.client.Incr(ctx, keyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, keyPrefix+key, window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}

// Block memblokir key untuk durasi tertentu
func (s *rateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	blockKey := keyPrefix + "blocked:" + key

	err := s.client.HSet(ctx, blockKey,
		"reason", reason,
		"blocked_at", time.Now().Unix(),
		"duration", duration.Seconds(),
		"correlation_id", logger.CorrelationID(ctx),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to block key: %w", err)
	}

	if err := s.client.Expire(ctx, blockKey, duration).Err(); err != nil {
		return fmt.Errorf("failed to set block expiry: %w", err)
	}

	s.logger.Warn(ctx, "Key blocked due to rate limit exceeded", map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
		"reason":   reason,
	})

	return nil
}

// IsBlocked mengecek apakah key sedang diblokir
func (s *rateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, keyPrefix+"blocked:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}

// GetAttempts mendapatkan jumlah attempts untuk key
func (s *rateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, keyPrefix+key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return count, nil
}

// noopRateLimitService implementasi no-op untuk ketika rate limiting disabled
type noopRateLimitService struct{}

func (n *noopRateLimitService) CheckLimit(ctx context.Context, key string, limit int) (bool, error) {
	return true, nil
}

func (n *noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return nil
}

func (n *noopRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return nil
}

func (n *noopRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *noopRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	return 0, nil
}
