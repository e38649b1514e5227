// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConfigurationError creates an error for a user setting whose value does
// not match the expected type for its key.
func NewConfigurationError(key, expectedType string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConfiguration,
		Message:    fmt.Sprintf("invalid value for setting %q", key),
		Details:    fmt.Sprintf("expected %s", expectedType),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewDuplicateRequestError creates an error for a request id that is already
// registered in a session's ledger.
func NewDuplicateRequestError(requestID string) *DomainError {
	return &DomainError{
		Code:       ErrCodeDuplicateRequest,
		Message:    "request id already registered",
		Details:    requestID,
		HTTPStatus: http.StatusConflict,
	}
}

// NewPersistenceError wraps a failure from the persistence collaborator.
func NewPersistenceError(operation string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodePersistence,
		Message:    fmt.Sprintf("persistence failed: %s", operation),
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a new forbidden error.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewRateLimitedError creates an error for a session that exceeded its
// hourly request allowance.
func NewRateLimitedError(userID string) *DomainError {
	return &DomainError{
		Code:       ErrCodeRateLimited,
		Message:    "request rate limit exceeded",
		Details:    userID,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeNotFound
}

// IsDuplicateRequest checks if the error is a duplicate request error.
func IsDuplicateRequest(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeDuplicateRequest
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeConfiguration
}
