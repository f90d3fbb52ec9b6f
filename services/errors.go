package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error with the detail attached. The
// receiver is never mutated, so details added to a shared error variable
// stay local to one request.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrUserNotFound        = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrCategoryNotFound    = NewDomainError(ErrorTypeNotFound, "category not found", nil)
	ErrTicketNotFound      = NewDomainError(ErrorTypeNotFound, "ticket not found", nil)
	ErrApplicationNotFound = NewDomainError(ErrorTypeNotFound, "application not found", nil)
	ErrSubmissionNotFound  = NewDomainError(ErrorTypeNotFound, "submission not found", nil)
	ErrVehicleNotFound     = NewDomainError(ErrorTypeNotFound, "vehicle not found", nil)
	ErrDepartmentNotFound  = NewDomainError(ErrorTypeNotFound, "department not found", nil)

	// Validation Errors
	ErrInvalidInput     = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidSnowflake = NewDomainError(ErrorTypeValidation, "invalid Discord id format", nil)
	ErrTicketClosed     = NewDomainError(ErrorTypeValidation, "ticket is closed", nil)
	ErrTicketNotClosed  = NewDomainError(ErrorTypeValidation, "ticket is not closed", nil)
	ErrAlreadyClaimed   = NewDomainError(ErrorTypeValidation, "ticket already claimed", nil)
	ErrFormInactive     = NewDomainError(ErrorTypeValidation, "application form is not accepting submissions", nil)
	ErrAlreadyReviewed  = NewDomainError(ErrorTypeValidation, "submission has already been reviewed", nil)
	ErrMissingResponse  = NewDomainError(ErrorTypeValidation, "a required question has no response", nil)
	ErrGarageFull       = NewDomainError(ErrorTypeValidation, "vehicle limit reached", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid session token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "session token expired", nil)

	// Permission Errors
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrHubBanned = NewDomainError(ErrorTypeForbidden, "hub banned", nil)

	// Conflict Errors
	ErrPendingSubmission = NewDomainError(ErrorTypeConflict, "a pending submission already exists", nil)
	ErrDuplicateUser     = NewDomainError(ErrorTypeConflict, "user already exists", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)
	ErrCacheFailed       = NewDomainError(ErrorTypeInternal, "cache operation failed", nil)

	// External Errors
	ErrDiscordUnavailable = NewDomainError(ErrorTypeExternal, "Discord API unavailable", nil)
	ErrDiscordDenied      = NewDomainError(ErrorTypeExternal, "Discord rejected the request", nil)
)

// Error type checkers

func isErrorType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isErrorType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isErrorType(err, ErrorTypeValidation)
}

// IsUnauthorizedError checks if the error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return isErrorType(err, ErrorTypeUnauthorized)
}

// IsForbiddenError checks if the error is a forbidden error
func IsForbiddenError(err error) bool {
	return isErrorType(err, ErrorTypeForbidden)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return isErrorType(err, ErrorTypeConflict)
}

// IsInternalError checks if the error is an internal error
func IsInternalError(err error) bool {
	return isErrorType(err, ErrorTypeInternal)
}

// IsExternalError checks if the error is an external error
func IsExternalError(err error) bool {
	return isErrorType(err, ErrorTypeExternal)
}

// GetErrorType returns the error type of a domain error, or empty string
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with a domain error
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return WrapError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external error
func WrapExternal(message string, err error) error {
	return WrapError(ErrorTypeExternal, message, err)
}
