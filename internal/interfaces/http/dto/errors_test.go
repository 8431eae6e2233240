package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidRate, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeOverReturn, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"OVER_RETURN", ErrCodeOverReturn},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{ErrCodeValidation, ErrCodeValidation},
		{"", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNewDomainErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		err       *shared.DomainError
		status    int
		code      string
		retryable bool
	}{
		{
			name:   "validation",
			err:    shared.NewValidationError(shared.CodeInvalidQuantity, "quantity must be positive"),
			status: http.StatusBadRequest,
			code:   "ERR_INVALID_QUANTITY",
		},
		{
			name:   "conflict",
			err:    shared.ErrOverReturn,
			status: http.StatusConflict,
			code:   ErrCodeOverReturn,
		},
		{
			name:      "concurrency",
			err:       shared.NewConcurrencyError("party", "p-1"),
			status:    http.StatusConflict,
			code:      ErrCodeConcurrencyConflict,
			retryable: true,
		},
		{
			name:   "not found",
			err:    shared.NewNotFoundError("product", "x"),
			status: http.StatusNotFound,
			code:   ErrCodeNotFound,
		},
		{
			name:   "state",
			err:    shared.NewStateError(shared.CodeInvalidState, "cannot complete a cancelled sale"),
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := NewDomainErrorResponse(tt.err, "req-1")
			assert.Equal(t, tt.status, status)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.err.Message, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Equal(t, tt.retryable, resp.Error.Retryable)
		})
	}
}

func TestNewDomainErrorResponse_CarriesDetails(t *testing.T) {
	err := shared.ErrInsufficientStock.WithDetail("product_id", "abc").WithDetail("requested", 12)

	_, resp := NewDomainErrorResponse(err, "")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "abc", resp.Error.Details["product_id"])
	assert.Equal(t, 12, resp.Error.Details["requested"])
}

func TestNewValidationErrorResponse(t *testing.T) {
	fields := []ValidationDetail{
		{Field: "usd_to_iqd_rate", Message: "Must be greater than zero"},
		{Field: "effective_date", Message: "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", fields)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Fields, 2)
	assert.Equal(t, "usd_to_iqd_rate", resp.Error.Fields[0].Field)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)

	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 5, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "sale not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.NotContains(t, errObj, "retryable")
}
