package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

// CreateContractRequest represents the request to create a contract
type CreateContractRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateContractRequest represents a partial content update.
// ExpectedVersion, when set, must match the stored version.
type UpdateContractRequest struct {
	Title           *string `json:"title,omitempty"`
	Content         *string `json:"content,omitempty"`
	ExpectedVersion *int    `json:"expected_version,omitempty"`
}

// TransitionOptions carries the optional inputs of a status change
type TransitionOptions struct {
	Reason          *string `json:"reason,omitempty"`
	ExpectedVersion *int    `json:"expected_version,omitempty"`
}

// ContractUseCase is the contract state machine. It is the only writer of
// contract status, contract version numbers and version snapshots.
type ContractUseCase struct {
	contractRepo ports.ContractRepository
	auditSink    ports.AuditSink
	retryQueue   ports.AuditRetryQueue
	metrics      ports.ContractMetrics
	logger       logger.Logger

	now   func() time.Time
	newID func() string
}

// NewContractUseCase creates a new contract use case. retryQueue and metrics may be nil.
func NewContractUseCase(
	contractRepo ports.ContractRepository,
	auditSink ports.AuditSink,
	retryQueue ports.AuditRetryQueue,
	metrics ports.ContractMetrics,
	log logger.Logger,
) *ContractUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ContractUseCase{
		contractRepo: contractRepo,
		auditSink:    auditSink,
		retryQueue:   retryQueue,
		metrics:      metrics,
		logger:       log.WithFields(map[string]interface{}{"component": "contract_usecase"}),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// CreateContract creates a DRAFT contract with its first version
func (uc *ContractUseCase) CreateContract(ctx context.Context, req CreateContractRequest, actor domain.Actor) (*domain.Contract, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !domain.HasPermission(actor.Role, domain.PermContractCreate) {
		return nil, domain.ErrRoleNotAllowed
	}

	now := uc.now()
	contract, err := domain.NewContract(uc.newID(), req.Title, req.Content, actor.ID, now)
	if err != nil {
		return nil, err
	}

	var failed []*domain.AuditEntry
	err = uc.contractRepo.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.contractRepo.Create(ctx, contract); err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}

		reason := domain.ReasonInitialCreation
		if err := uc.contractRepo.CreateVersion(ctx, contract.Snapshot(uc.newID(), actor.ID, &reason, now)); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		uc.record(ctx, &failed, domain.NewAuditEntry(uc.newID(), actor,
			domain.AuditActionContractCreated, domain.EntityTypeContract, contract.ID,
			map[string]interface{}{"title": contract.Title},
			now,
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, failed)
	if uc.metrics != nil {
		uc.metrics.VersionCreated(domain.AuditActionContractCreated)
	}

	return contract, nil
}

// GetContract retrieves a contract the actor is allowed to see
func (uc *ContractUseCase) GetContract(ctx context.Context, id string, actor domain.Actor) (*domain.Contract, error) {
	contract, err := uc.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor.Role, contract.Status) {
		return nil, domain.ErrContractHidden
	}
	return contract, nil
}

// ListContracts retrieves one page of the contracts visible to the actor
func (uc *ContractUseCase) ListContracts(ctx context.Context, filter domain.ContractFilter, actor domain.Actor) (*domain.ContractPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	page := &domain.ContractPage{
		Contracts: []*domain.Contract{},
		Page:      filter.Page,
		Limit:     filter.Limit,
	}

	filter.ExcludeStatuses = hiddenStatuses(actor.Role)
	if filter.Status != nil {
		for _, s := range filter.ExcludeStatuses {
			if s == *filter.Status {
				return page, nil
			}
		}
	}

	contracts, err := uc.contractRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	total, err := uc.contractRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count contracts: %w", err)
	}

	if contracts != nil {
		page.Contracts = contracts
	}
	page.Total = total
	page.TotalPages = domain.TotalPages(total, filter.Limit)
	return page, nil
}

// UpdateContent edits title and/or content of a DRAFT or REJECTED contract
func (uc *ContractUseCase) UpdateContent(ctx context.Context, id string, req UpdateContractRequest, actor domain.Actor) (*domain.Contract, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if req.Title != nil {
		if err := domain.ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		if err := domain.ValidateContent(*req.Content); err != nil {
			return nil, err
		}
	}

	var (
		contract *domain.Contract
		failed   []*domain.AuditEntry
	)
	err := uc.contractRepo.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		contract, err = uc.contractRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanView(actor.Role, contract.Status) {
			return domain.ErrContractHidden
		}
		if !domain.CanEdit(contract.Status) {
			return domain.ErrContractNotEditable
		}
		if !domain.HasPermission(actor.Role, domain.PermContractUpdate) {
			return domain.ErrRoleNotAllowed
		}
		if err := checkExpectedVersion(contract, req.ExpectedVersion); err != nil {
			return err
		}

		now := uc.now()
		changed := contract.ApplyContent(req.Title, req.Content, now)

		if err := uc.contractRepo.Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}

		reason := domain.ReasonContentUpdate
		if err := uc.contractRepo.CreateVersion(ctx, contract.Snapshot(uc.newID(), actor.ID, &reason, now)); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		uc.record(ctx, &failed, domain.NewAuditEntry(uc.newID(), actor,
			domain.AuditActionContractUpdated, domain.EntityTypeContract, contract.ID,
			map[string]interface{}{
				"version":       contract.CurrentVersion,
				"changedFields": changed,
			},
			now,
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, failed)
	if uc.metrics != nil {
		uc.metrics.VersionCreated(domain.AuditActionContractUpdated)
	}

	return contract, nil
}

// Transition moves a contract to target following the transition table
func (uc *ContractUseCase) Transition(ctx context.Context, id string, target domain.ContractStatus, actor domain.Actor, opts TransitionOptions) (*domain.Contract, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !target.IsValid() {
		return nil, domain.NewValidationError("status", "invalid target status")
	}
	if err := domain.ValidateReason(opts.Reason, target == domain.ContractStatusRejected); err != nil {
		return nil, err
	}
	if !domain.HasPermission(actor.Role, domain.TransitionPermission(target)) {
		return nil, domain.ErrRoleNotAllowed
	}

	action := domain.TransitionAuditAction(target)
	reason := transitionReason(target, opts.Reason)

	var (
		contract *domain.Contract
		previous domain.ContractStatus
		failed   []*domain.AuditEntry
	)
	err := uc.contractRepo.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		contract, err = uc.contractRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanView(actor.Role, contract.Status) {
			return domain.ErrContractHidden
		}
		if err := checkExpectedVersion(contract, opts.ExpectedVersion); err != nil {
			return err
		}

		now := uc.now()
		previous = contract.Status
		if err := contract.TransitionTo(target, now); err != nil {
			return err
		}

		if err := uc.contractRepo.Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}

		if err := uc.contractRepo.CreateVersion(ctx, contract.Snapshot(uc.newID(), actor.ID, &reason, now)); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		uc.record(ctx, &failed, domain.NewAuditEntry(uc.newID(), actor,
			action, domain.EntityTypeContract, contract.ID,
			map[string]interface{}{
				"previousStatus": previous,
				"newStatus":      target,
				"reason":         reason,
				"version":        contract.CurrentVersion,
			},
			now,
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, failed)
	if uc.metrics != nil {
		uc.metrics.StatusChanged(previous, target)
		uc.metrics.VersionCreated(action)
	}

	return contract, nil
}

// Submit sends a DRAFT contract to review
func (uc *ContractUseCase) Submit(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error) {
	return uc.Transition(ctx, id, domain.ContractStatusInReview, actor, TransitionOptions{ExpectedVersion: expectedVersion})
}

// Approve approves a contract under review
func (uc *ContractUseCase) Approve(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error) {
	return uc.Transition(ctx, id, domain.ContractStatusApproved, actor, TransitionOptions{ExpectedVersion: expectedVersion})
}

// Reject rejects a contract under review; reason is mandatory
func (uc *ContractUseCase) Reject(ctx context.Context, id, reason string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error) {
	return uc.Transition(ctx, id, domain.ContractStatusRejected, actor, TransitionOptions{Reason: &reason, ExpectedVersion: expectedVersion})
}

// ReturnToDraft reopens a rejected contract for editing
func (uc *ContractUseCase) ReturnToDraft(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error) {
	return uc.Transition(ctx, id, domain.ContractStatusDraft, actor, TransitionOptions{ExpectedVersion: expectedVersion})
}

// DeleteContract removes a non-approved contract. Admin only.
func (uc *ContractUseCase) DeleteContract(ctx context.Context, id string, actor domain.Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if !domain.HasPermission(actor.Role, domain.PermContractDelete) {
		return domain.ErrRoleNotAllowed
	}

	var failed []*domain.AuditEntry
	err := uc.contractRepo.RunInTransaction(ctx, func(ctx context.Context) error {
		contract, err := uc.contractRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanDelete(actor.Role, contract.Status) {
			return domain.ErrApprovedNotDeletable
		}

		// recorded first: the row is gone afterwards
		uc.record(ctx, &failed, domain.NewAuditEntry(uc.newID(), actor,
			domain.AuditActionContractDeleted, domain.EntityTypeContract, contract.ID,
			map[string]interface{}{
				"title":   contract.Title,
				"status":  contract.Status,
				"version": contract.CurrentVersion,
			},
			uc.now(),
		))

		if err := uc.contractRepo.Delete(ctx, contract.ID); err != nil {
			return fmt.Errorf("failed to delete contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.afterCommit(ctx, failed)
	return nil
}

// ListVersions returns the version history of a visible contract, newest first
func (uc *ContractUseCase) ListVersions(ctx context.Context, id string, actor domain.Actor) ([]*domain.ContractVersion, error) {
	contract, err := uc.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor.Role, contract.Status) {
		return nil, domain.ErrContractHidden
	}

	versions, err := uc.contractRepo.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	if versions == nil {
		versions = []*domain.ContractVersion{}
	}
	return versions, nil
}

// record writes entry to the audit sink. A failure never aborts the
// surrounding transaction; the entry is kept for the retry queue instead.
func (uc *ContractUseCase) record(ctx context.Context, failed *[]*domain.AuditEntry, entry *domain.AuditEntry) {
	if err := uc.auditSink.Record(ctx, entry); err != nil {
		uc.logger.Warn(ctx, "Failed to record audit entry", map[string]interface{}{
			"action":    entry.Action,
			"entity_id": entry.EntityID,
			"error":     err.Error(),
		})
		if uc.metrics != nil {
			uc.metrics.AuditRecordFailed()
		}
		*failed = append(*failed, entry)
	}
}

// afterCommit hands entries that missed the audit sink to the retry queue
func (uc *ContractUseCase) afterCommit(ctx context.Context, failed []*domain.AuditEntry) {
	for _, entry := range failed {
		if uc.retryQueue == nil {
			uc.logger.Error(ctx, "Audit entry dropped, no retry queue configured", nil, map[string]interface{}{
				"audit_id": entry.ID,
				"action":   entry.Action,
			})
			continue
		}
		if err := uc.retryQueue.Enqueue(ctx, entry); err != nil {
			uc.logger.Error(ctx, "Failed to enqueue audit entry for retry", err, map[string]interface{}{
				"audit_id": entry.ID,
				"action":   entry.Action,
			})
		}
	}
}

func requireActive(actor domain.Actor) error {
	if !actor.IsActive() {
		return domain.ErrInactiveActor
	}
	return nil
}

func checkExpectedVersion(contract *domain.Contract, expected *int) error {
	if expected == nil || *expected == contract.CurrentVersion {
		return nil
	}
	return domain.NewConflictError(
		fmt.Sprintf("contract was modified: expected version %d, current version %d", *expected, contract.CurrentVersion),
		nil,
	)
}

func transitionReason(target domain.ContractStatus, supplied *string) string {
	if supplied != nil && strings.TrimSpace(*supplied) != "" {
		return *supplied
	}
	switch target {
	case domain.ContractStatusInReview:
		return domain.ReasonSubmitted
	case domain.ContractStatusApproved:
		return domain.ReasonApproved
	default:
		return domain.ReasonReturnedToDraft
	}
}

func hiddenStatuses(role domain.Role) []domain.ContractStatus {
	var hidden []domain.ContractStatus
	for _, s := range []domain.ContractStatus{
		domain.ContractStatusDraft,
		domain.ContractStatusInReview,
		domain.ContractStatusApproved,
		domain.ContractStatusRejected,
	} {
		if !domain.CanView(role, s) {
			hidden = append(hidden, s)
		}
	}
	return hidden
}
