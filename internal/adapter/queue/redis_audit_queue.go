package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

// DefaultAuditRetryKey is the Redis list holding deferred audit entries
const DefaultAuditRetryKey = "jurix:audit:retry"

// ListClient is the part of the Redis API the queue needs; *redis.Client satisfies it
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// RedisAuditQueue is a FIFO of audit entries on a Redis list
type RedisAuditQueue struct {
	client ListClient
	key    string
}

// NewRedisAuditQueue creates a retry queue on key, or DefaultAuditRetryKey when key is empty
func NewRedisAuditQueue(client ListClient, key string) ports.AuditRetryQueue {
	if key == "" {
		key = DefaultAuditRetryKey
	}
	return &RedisAuditQueue{client: client, key: key}
}

// Enqueue pushes entry to the head of the list
func (q *RedisAuditQueue) Enqueue(ctx context.Context, entry *domain.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue audit entry: %w", err)
	}
	return nil
}

// Dequeue pops the oldest entry from the tail of the list
func (q *RedisAuditQueue) Dequeue(ctx context.Context) (*domain.AuditEntry, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue audit entry: %w", err)
	}

	var entry domain.AuditEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
	}
	return &entry, nil
}

// Len returns the number of waiting entries
func (q *RedisAuditQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit queue length: %w", err)
	}
	return n, nil
}
