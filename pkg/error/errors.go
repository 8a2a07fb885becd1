package error

import (
	"errors"
	"net/http"

	"github.com/jurix/jurix/internal/domain"
)

type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternal          = "INTERNAL_ERROR"
)

func NewBadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

func NewTooManyRequests(message string) *AppError {
	return &AppError{Code: CodeTooManyRequests, Message: message, Status: http.StatusTooManyRequests}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError}
}

// MapError translates a domain error into its HTTP form. Unknown errors
// become a generic 500 so internals never reach the client.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		appErr := &AppError{Code: CodeValidation, Message: validationErr.Error(), Status: http.StatusBadRequest}
		if validationErr.Field != "" {
			appErr.Details = map[string]string{"field": validationErr.Field}
		}
		return appErr
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		return NewNotFound(notFoundErr.Error())
	}

	var unauthorizedErr *domain.UnauthorizedError
	if errors.As(err, &unauthorizedErr) {
		return NewUnauthorized(unauthorizedErr.Error())
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return NewForbidden(forbiddenErr.Error())
	}

	var transitionErr *domain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return &AppError{
			Code:    CodeInvalidTransition,
			Message: transitionErr.Error(),
			Status:  http.StatusConflict,
			Details: map[string]interface{}{
				"current_status":      transitionErr.From,
				"requested_status":    transitionErr.To,
				"allowed_transitions": domain.AllowedTransitions(transitionErr.From),
			},
		}
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return NewConflict(conflictErr.Error())
	}

	return NewInternalServer("An unexpected error occurred")
}
