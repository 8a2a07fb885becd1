package domain

import (
	"errors"
	"fmt"
)

// ValidationError is returned when input fails structural constraints
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned when a referenced entity does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForbiddenError is returned when the actor may not perform the operation
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

func NewForbiddenError(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

// UnauthorizedError is returned when credentials are missing or wrong
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}

// InvalidTransitionError is returned when a status change is not in the transition table
type InvalidTransitionError struct {
	From ContractStatus
	To   ContractStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// ConflictError is returned on unique-constraint violations and stale writes
type ConflictError struct {
	Message string
	Cause   error
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return e.Cause
}

func NewConflictError(message string, cause error) *ConflictError {
	return &ConflictError{Message: message, Cause: cause}
}

// Common forbidden reasons
var (
	ErrInactiveActor        = NewForbiddenError("inactive users cannot modify contracts")
	ErrRoleNotAllowed       = NewForbiddenError("role is not allowed to perform this operation")
	ErrContractHidden       = NewForbiddenError("contract is not visible to this role")
	ErrContractNotEditable  = NewForbiddenError("contract can only be edited in DRAFT or REJECTED status")
	ErrApprovedNotDeletable = NewForbiddenError("approved contracts cannot be deleted")
)

var (
	ErrInvalidCredentials = &UnauthorizedError{Reason: "invalid email or password"}
	ErrAccountInactive    = &UnauthorizedError{Reason: "account is inactive"}
)

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
