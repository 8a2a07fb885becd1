package ports

import (
	"context"

	"github.com/jurix/jurix/internal/domain"
)

// AuditSink receives structured audit records
type AuditSink interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

// AuditRepository is the queryable store behind the audit sink
type AuditRepository interface {
	AuditSink

	// List retrieves audit entries matching the filter, newest first, with the total count
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, int, error)

	// ListByEntity retrieves every entry recorded against one entity, newest first
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]*domain.AuditEntry, error)
}

// AuditRetryQueue holds audit records that could not be written with their mutation
type AuditRetryQueue interface {
	Enqueue(ctx context.Context, entry *domain.AuditEntry) error

	// Dequeue pops the oldest entry; it returns nil, nil when the queue is empty
	Dequeue(ctx context.Context) (*domain.AuditEntry, error)

	Len(ctx context.Context) (int64, error)
}

// ContractMetrics receives counters about state machine activity
type ContractMetrics interface {
	VersionCreated(action domain.AuditAction)
	StatusChanged(from, to domain.ContractStatus)
	AuditRecordFailed()
}
