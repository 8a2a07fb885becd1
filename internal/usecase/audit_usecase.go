package usecase

import (
	"context"
	"fmt"

	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

// AuditUseCase handles reading the audit trail and replaying deferred entries
type AuditUseCase struct {
	auditRepo  ports.AuditRepository
	retryQueue ports.AuditRetryQueue
	logger     logger.Logger
}

// NewAuditUseCase creates a new audit use case. retryQueue may be nil.
func NewAuditUseCase(auditRepo ports.AuditRepository, retryQueue ports.AuditRetryQueue, log logger.Logger) *AuditUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditUseCase{
		auditRepo:  auditRepo,
		retryQueue: retryQueue,
		logger:     log.WithFields(map[string]interface{}{"component": "audit_usecase"}),
	}
}

// ListEntries retrieves one page of audit entries
func (uc *AuditUseCase) ListEntries(ctx context.Context, filter domain.AuditFilter, actor domain.Actor) (*domain.AuditPage, error) {
	if !canReadAudit(actor) {
		return nil, domain.ErrRoleNotAllowed
	}
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	entries, total, err := uc.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	return &domain.AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: domain.TotalPages(total, filter.Limit),
	}, nil
}

// ListByEntity retrieves the full audit history of one entity
func (uc *AuditUseCase) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, actor domain.Actor) ([]*domain.AuditEntry, error) {
	if !canReadAudit(actor) {
		return nil, domain.ErrRoleNotAllowed
	}
	if !entityType.IsValid() {
		return nil, domain.NewValidationError("entityType", "invalid entity type")
	}
	if entityID == "" {
		return nil, domain.NewValidationError("entityId", "entity ID is required")
	}

	entries, err := uc.auditRepo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, nil
}

// ReplayDeferred drains up to max entries from the retry queue into the audit store.
// It stops at the first write failure and puts that entry back.
func (uc *AuditUseCase) ReplayDeferred(ctx context.Context, max int) (int, error) {
	if uc.retryQueue == nil {
		return 0, nil
	}

	replayed := 0
	for max <= 0 || replayed < max {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}

		entry, err := uc.retryQueue.Dequeue(ctx)
		if err != nil {
			return replayed, fmt.Errorf("failed to dequeue audit entry: %w", err)
		}
		if entry == nil {
			break
		}

		err = uc.auditRepo.Record(ctx, entry)
		if domain.IsConflict(err) {
			// already written by an earlier attempt
			uc.logger.Debug(ctx, "Skipping audit entry already recorded", map[string]interface{}{
				"audit_id": entry.ID,
			})
			continue
		}
		if err != nil {
			if qerr := uc.retryQueue.Enqueue(ctx, entry); qerr != nil {
				uc.logger.Error(ctx, "Failed to requeue audit entry", qerr, map[string]interface{}{
					"audit_id": entry.ID,
				})
			}
			return replayed, fmt.Errorf("failed to replay audit entry %s: %w", entry.ID, err)
		}
		replayed++
	}

	uc.logger.Info(ctx, "Replayed deferred audit entries", map[string]interface{}{
		"count": replayed,
	})
	return replayed, nil
}

// canReadAudit restricts the audit trail to ADMIN and LEGAL
func canReadAudit(actor domain.Actor) bool {
	return domain.HasPermission(actor.Role, domain.PermAuditRead)
}
