package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ContractStatus represents the lifecycle status of a contract
type ContractStatus string

const (
	ContractStatusDraft    ContractStatus = "DRAFT"
	ContractStatusInReview ContractStatus = "IN_REVIEW"
	ContractStatusApproved ContractStatus = "APPROVED"
	ContractStatusRejected ContractStatus = "REJECTED"
)

// IsValid reports whether s is one of the known statuses
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusInReview, ContractStatusApproved, ContractStatusRejected:
		return true
	}
	return false
}

// Field limits enforced on contract input
const (
	TitleMinLength   = 3
	TitleMaxLength   = 500
	ContentMinLength = 10
	ReasonMinLength  = 10
	ReasonMaxLength  = 1000
	SearchMaxLength  = 100
)

// Change reasons recorded on version snapshots
const (
	ReasonInitialCreation = "initial creation"
	ReasonContentUpdate   = "content update"
	ReasonSubmitted       = "submitted for review"
	ReasonApproved        = "contract approved"
	ReasonReturnedToDraft = "returned to draft"
)

// Contract represents a legal contract under lifecycle management
type Contract struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Status         ContractStatus `json:"status"`
	CreatedByID    string         `json:"created_by_id"`
	CurrentVersion int            `json:"current_version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ContractVersion is an immutable snapshot of a contract taken on every change
type ContractVersion struct {
	ID           string         `json:"id"`
	ContractID   string         `json:"contract_id"`
	Version      int            `json:"version"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Status       ContractStatus `json:"status"`
	ChangedByID  string         `json:"changed_by_id"`
	ChangeReason *string        `json:"change_reason"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewContract creates a draft contract at version 1
func NewContract(id, title, content, createdByID string, now time.Time) (*Contract, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	return &Contract{
		ID:             id,
		Title:          title,
		Content:        content,
		Status:         ContractStatusDraft,
		CreatedByID:    createdByID,
		CurrentVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyContent overwrites the supplied fields and advances the version.
// It returns the names of the fields that were supplied.
func (c *Contract) ApplyContent(title, content *string, now time.Time) []string {
	changed := make([]string, 0, 2)
	if title != nil {
		c.Title = *title
		changed = append(changed, "title")
	}
	if content != nil {
		c.Content = *content
		changed = append(changed, "content")
	}
	c.advance(now)
	return changed
}

// TransitionTo moves the contract to target and advances the version
func (c *Contract) TransitionTo(target ContractStatus, now time.Time) error {
	if !IsValidTransition(c.Status, target) {
		return &InvalidTransitionError{From: c.Status, To: target}
	}
	c.Status = target
	c.advance(now)
	return nil
}

// Snapshot returns the version row describing the contract as it is now
func (c *Contract) Snapshot(id, changedByID string, reason *string, now time.Time) *ContractVersion {
	return &ContractVersion{
		ID:           id,
		ContractID:   c.ID,
		Version:      c.CurrentVersion,
		Title:        c.Title,
		Content:      c.Content,
		Status:       c.Status,
		ChangedByID:  changedByID,
		ChangeReason: reason,
		CreatedAt:    now,
	}
}

func (c *Contract) advance(now time.Time) {
	c.CurrentVersion++
	c.UpdatedAt = now
}

// ValidateTitle checks the title length bounds
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength {
		return NewValidationError("title", "title must be at least 3 characters")
	}
	if n > TitleMaxLength {
		return NewValidationError("title", "title must be at most 500 characters")
	}
	return nil
}

// ValidateContent checks the content length bound
func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) < ContentMinLength {
		return NewValidationError("content", "content must be at least 10 characters")
	}
	return nil
}

// ValidateReason checks a transition reason. A nil reason passes unless required.
func ValidateReason(reason *string, required bool) error {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		if required {
			return NewValidationError("reason", "reason is required")
		}
		return nil
	}
	n := utf8.RuneCountInString(*reason)
	if required && n < ReasonMinLength {
		return NewValidationError("reason", "reason must be at least 10 characters")
	}
	if n > ReasonMaxLength {
		return NewValidationError("reason", "reason must be at most 1000 characters")
	}
	return nil
}

// ContractSortField is a column contracts may be ordered by
type ContractSortField string

const (
	SortByTitle     ContractSortField = "title"
	SortByCreatedAt ContractSortField = "createdAt"
	SortByUpdatedAt ContractSortField = "updatedAt"
	SortByStatus    ContractSortField = "status"
)

// SortOrder is the direction of a listing
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination defaults shared by contract and audit listings
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ContractFilter represents filters for listing contracts
type ContractFilter struct {
	Status          *ContractStatus   `json:"status,omitempty"`
	CreatedByID     *string           `json:"created_by_id,omitempty"`
	Search          string            `json:"search,omitempty"`
	SortBy          ContractSortField `json:"sort_by"`
	SortOrder       SortOrder         `json:"sort_order"`
	Page            int               `json:"page"`
	Limit           int               `json:"limit"`
	ExcludeStatuses []ContractStatus  `json:"-"`
}

// Normalize fills defaults and validates the filter
func (f *ContractFilter) Normalize() error {
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
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	switch f.SortBy {
	case SortByTitle, SortByCreatedAt, SortByUpdatedAt, SortByStatus:
	default:
		return NewValidationError("sortBy", "invalid sort field")
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return NewValidationError("sortOrder", "invalid sort order")
	}
	if f.Status != nil && !f.Status.IsValid() {
		return NewValidationError("status", "invalid status")
	}
	if utf8.RuneCountInString(f.Search) > SearchMaxLength {
		return NewValidationError("search", "search must be at most 100 characters")
	}
	return nil
}

// Offset returns the row offset for the requested page
func (f ContractFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ContractPage is one page of a contract listing
type ContractPage struct {
	Contracts  []*Contract `json:"contracts"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// TotalPages computes the page count for total rows at limit per page
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
