package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context. The HTTP layer maps them to status codes.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeTransientStore      = "TRANSIENT_STORE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, shared.ErrNotFound) match any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or out-of-range input. Never retried.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError reports a missing resource. Ownership mismatches are reported the same way.
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewInvalidStateError reports an operation that the current state does not allow.
// The message should name the violated rule.
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewTransientStoreError wraps a persistence failure that may succeed on retry.
func NewTransientStoreError(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeTransientStore,
		Message: "store operation failed: " + op,
		cause:   cause,
	}
}

// NewConcurrencyConflictError reports an optimistic lock miss.
func NewConcurrencyConflictError(resource string) *DomainError {
	return NewDomainError(CodeConcurrencyConflict, resource+" was modified by another process")
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// ErrorCode extracts the domain error code from err, or "" if err is not a DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return ErrorCode(err) == CodeValidation }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return ErrorCode(err) == CodeNotFound }

// IsInvalidState reports whether err is an invalid-state error
func IsInvalidState(err error) bool { return ErrorCode(err) == CodeInvalidState }

// IsTransient reports whether err is worth retrying: a transient store failure or a lost optimistic lock.
func IsTransient(err error) bool {
	code := ErrorCode(err)
	return code == CodeTransientStore || code == CodeConcurrencyConflict
}
