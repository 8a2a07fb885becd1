package domain

import (
	"time"
	"unicode/utf8"
)

// AuditAction represents a user-visible action recorded in the audit trail
type AuditAction string

const (
	AuditActionLogin             AuditAction = "LOGIN"
	AuditActionLogout            AuditAction = "LOGOUT"
	AuditActionContractCreated   AuditAction = "CONTRACT_CREATED"
	AuditActionContractUpdated   AuditAction = "CONTRACT_UPDATED"
	AuditActionContractDeleted   AuditAction = "CONTRACT_DELETED"
	AuditActionContractSubmitted AuditAction = "CONTRACT_SUBMITTED"
	AuditActionContractApproved  AuditAction = "CONTRACT_APPROVED"
	AuditActionContractRejected  AuditAction = "CONTRACT_REJECTED"
	AuditActionUserCreated       AuditAction = "USER_CREATED"
	AuditActionUserUpdated       AuditAction = "USER_UPDATED"
	AuditActionUserDeactivated   AuditAction = "USER_DEACTIVATED"
)

// IsValid reports whether a is a known action
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionLogin, AuditActionLogout,
		AuditActionContractCreated, AuditActionContractUpdated, AuditActionContractDeleted,
		AuditActionContractSubmitted, AuditActionContractApproved, AuditActionContractRejected,
		AuditActionUserCreated, AuditActionUserUpdated, AuditActionUserDeactivated:
		return true
	}
	return false
}

// EntityType represents the kind of entity an audit entry refers to
type EntityType string

const (
	EntityTypeContract EntityType = "CONTRACT"
	EntityTypeUser     EntityType = "USER"
	EntityTypeAuth     EntityType = "AUTH"
)

// IsValid reports whether t is a known entity type
func (t EntityType) IsValid() bool {
	return t == EntityTypeContract || t == EntityTypeUser || t == EntityTypeAuth
}

// Column widths of the audit_logs table
const (
	ipAddressMaxLength = 50
	userAgentMaxLength = 500
)

// AuditEntry is one append-only record of an action
type AuditEntry struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Action     AuditAction            `json:"action"`
	EntityType EntityType             `json:"entity_type"`
	EntityID   *string                `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditEntry builds an entry for an action taken by actor
func NewAuditEntry(id string, actor Actor, action AuditAction, entityType EntityType, entityID string, metadata map[string]interface{}, now time.Time) *AuditEntry {
	entry := &AuditEntry{
		ID:         id,
		UserID:     actor.ID,
		Action:     action,
		EntityType: entityType,
		Metadata:   metadata,
		IPAddress:  truncate(actor.IPAddress, ipAddressMaxLength),
		UserAgent:  truncate(actor.UserAgent, userAgentMaxLength),
		CreatedAt:  now,
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	return entry
}

// TransitionAuditAction maps a target status to the action recorded for it
func TransitionAuditAction(target ContractStatus) AuditAction {
	switch target {
	case ContractStatusInReview:
		return AuditActionContractSubmitted
	case ContractStatusApproved:
		return AuditActionContractApproved
	case ContractStatusRejected:
		return AuditActionContractRejected
	default:
		return AuditActionContractUpdated
	}
}

// AuditFilter represents filters for listing audit entries
type AuditFilter struct {
	UserID     *string      `json:"user_id,omitempty"`
	Action     *AuditAction `json:"action,omitempty"`
	EntityType *EntityType  `json:"entity_type,omitempty"`
	EntityID   *string      `json:"entity_id,omitempty"`
	StartDate  *time.Time   `json:"start_date,omitempty"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
}

// Normalize fills defaults and validates the filter
func (f *AuditFilter) Normalize() error {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 {
		return NewValidationError("page", "page must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return NewValidationError("limit", "limit must be between 1 and 100")
	}
	if f.Action != nil && !f.Action.IsValid() {
		return NewValidationError("action", "invalid audit action")
	}
	if f.EntityType != nil && !f.EntityType.IsValid() {
		return NewValidationError("entityType", "invalid entity type")
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return NewValidationError("endDate", "end date must not be before start date")
	}
	return nil
}

// Offset returns the row offset for the requested page
func (f AuditFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// AuditPage is one page of an audit listing
type AuditPage struct {
	Entries    []*AuditEntry `json:"entries"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
