package dto

import (
	"net/http"
	"strings"

	"github.com/dinarbooks/backend/internal/domain/shared"
)

// Error codes returned in the envelope. Domain errors keep their own code
// with an ERR_ prefix (ERR_OVER_RETURN, ERR_NO_RATE_AVAILABLE); the status
// comes from the error kind.

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeInvalidRate is returned for a non-positive or malformed rate
	ErrCodeInvalidRate = "ERR_INVALID_RATE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeIdempotencyPending  = "ERR_IDEMPOTENCY_IN_PROGRESS"
	// ErrCodeIdempotencyKeyReused is returned when a key is repeated with a different body
	ErrCodeIdempotencyKeyReused = "ERR_IDEMPOTENCY_KEY_REUSED"
)

// Business rule error codes
const (
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeOverReturn        = "ERR_OVER_RETURN"
	ErrCodeNoRateAvailable   = "ERR_NO_RATE_AVAILABLE"
	ErrCodeCreditLimit       = "ERR_CREDIT_LIMIT_EXCEEDED"
)

// Rate limiting and size error codes
const (
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps transport-level error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidRate:  http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeIdempotencyPending:  http.StatusConflict,
	ErrCodeInsufficientStock:   http.StatusConflict,
	ErrCodeOverReturn:          http.StatusConflict,
	ErrCodeNoRateAvailable:     http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeCreditLimit:          http.StatusUnprocessableEntity,
	ErrCodeIdempotencyKeyReused: http.StatusUnprocessableEntity,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// KindHTTPStatus maps domain error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindConflict:    http.StatusConflict,
	shared.KindConcurrency: http.StatusConflict,
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindState:       http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode prefixes a bare domain code with ERR_
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// NewDomainErrorResponse translates a domain error into its status and envelope
func NewDomainErrorResponse(err *shared.DomainError, requestID string) (int, Response) {
	status, ok := KindHTTPStatus[err.Kind]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	resp := NewErrorResponseWithRequestID(err.Code, err.Message, requestID)
	resp.Error.Retryable = err.Retryable()
	if len(err.Details) > 0 {
		resp.Error.Details = err.Details
	}
	return status, resp
}
