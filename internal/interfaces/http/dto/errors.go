package dto

import (
	"net/http"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
)

// Domain error codes, surfaced unchanged in the response envelope
const (
	ErrCodeValidation          = shared.CodeValidation
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeInvalidState        = shared.CodeInvalidState
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeTransientStore      = shared.CodeTransientStore
	ErrCodeUnauthorized        = shared.CodeUnauthorized
)

// Transport error codes raised before a request reaches a service
const (
	// ErrCodeBadRequest is used for malformed path or query parameters
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the body cannot be decoded
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeIdempotencyInProgress is used when a request with the same key is still running
	ErrCodeIdempotencyInProgress = "IDEMPOTENCY_IN_PROGRESS"
	// ErrCodeIdempotencyMismatch is used when a key is reused with a different payload
	ErrCodeIdempotencyMismatch = "IDEMPOTENCY_KEY_REUSED"
	// ErrCodeRouteNotFound is used for unknown routes
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
	// ErrCodeInternal is used for unexpected failures
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeTransientStore:      http.StatusServiceUnavailable,
	ErrCodeUnauthorized:        http.StatusUnauthorized,

	ErrCodeBadRequest:            http.StatusBadRequest,
	ErrCodeInvalidJSON:           http.StatusBadRequest,
	ErrCodeTokenExpired:          http.StatusUnauthorized,
	ErrCodeRequestTooLarge:       http.StatusRequestEntityTooLarge,
	ErrCodeIdempotencyInProgress: http.StatusConflict,
	ErrCodeIdempotencyMismatch:   http.StatusUnprocessableEntity,
	ErrCodeRouteNotFound:         http.StatusNotFound,
	ErrCodeInternal:              http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
