package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeTransientStore, http.StatusServiceUnavailable},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeIdempotencyInProgress, http.StatusConflict},
		{ErrCodeIdempotencyMismatch, http.StatusUnprocessableEntity},
		{ErrCodeRouteNotFound, http.StatusNotFound},
		{ErrCodeInternal, http.StatusInternalServerError},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestDomainCodesMatchShared(t *testing.T) {
	err := shared.NewInvalidStateError("cannot pay a void invoice")
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(shared.ErrorCode(err)))
}

func TestNewErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "invoice not found", "req-1")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "NOT_FOUND", "message": "invoice not found", "request_id": "req-1"}
	}`, string(data))
}

func TestNewValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "items[0].quantity", Message: "Must be greater than 0", Tag: "decimal_gt0"},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "VALIDATION_ERROR",
			"message": "Request validation failed",
			"details": [{"field": "items[0].quantity", "message": "Must be greater than 0", "tag": "decimal_gt0"}]
		}
	}`, string(data))
}

func TestNewPageResponse(t *testing.T) {
	t.Run("moves counters into meta", func(t *testing.T) {
		page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)
		data, err := json.Marshal(NewPageResponse(&page))
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": true,
			"data": ["a", "b"],
			"meta": {"total": 5, "page": 1, "page_size": 2, "total_pages": 3}
		}`, string(data))
	})

	t.Run("empty page renders an empty array", func(t *testing.T) {
		page := shared.NewPaginated[string](nil, 0, 1, 20)
		data, err := json.Marshal(NewPageResponse(&page))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"data":[]`)
	})
}
