package shared

import "fmt"

// ErrorKind classifies a domain error for callers that need to decide whether
// to retry, surface, or translate it.
type ErrorKind string

const (
	// KindValidation is bad input shape or range. Never retried.
	KindValidation ErrorKind = "validation"
	// KindConflict reflects true state (over-return, insufficient stock, missing rate).
	KindConflict ErrorKind = "conflict"
	// KindConcurrency is a lost update detected on an aggregate. Safe to retry once.
	KindConcurrency ErrorKind = "concurrency"
	// KindNotFound is a missing resource.
	KindNotFound ErrorKind = "not_found"
	// KindState is an operation that the current lifecycle state does not allow.
	KindState ErrorKind = "state"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the whole operation may be retried after re-reading state
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConcurrency
}

// WithDetail returns a copy of the error carrying an extra detail
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error. The kind is derived from the
// well-known codes and defaults to a state error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    kindForCode(code),
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an input validation error
func NewValidationError(code, format string, args ...any) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates an error describing a conflict with current state
func NewConflictError(code, format string, args ...any) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewStateError creates an error for a transition the lifecycle does not allow
func NewStateError(code, format string, args ...any) *DomainError {
	return &DomainError{Kind: KindState, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string, id any) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
		Details: map[string]any{"resource": resource, "id": fmt.Sprint(id)},
	}
}

// NewConcurrencyError creates a lost-update error for an aggregate
func NewConcurrencyError(aggregate string, id any) *DomainError {
	return &DomainError{
		Kind:    KindConcurrency,
		Code:    CodeConcurrencyConflict,
		Message: fmt.Sprintf("%s %v was modified by another transaction, retry the operation", aggregate, id),
		Details: map[string]any{"aggregate": aggregate, "id": fmt.Sprint(id)},
	}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidState        = "INVALID_STATE"

	CodeInvalidRate       = "INVALID_RATE"
	CodeNoRateAvailable   = "NO_RATE_AVAILABLE"
	CodeDivisionByZero    = "DIVISION_BY_ZERO"
	CodeCurrencyMismatch  = "CURRENCY_MISMATCH"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidPrice      = "INVALID_PRICE"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeEmptyDocument     = "EMPTY_DOCUMENT"
	CodeEmptyReturn       = "EMPTY_RETURN"
	CodeReasonRequired    = "REASON_REQUIRED"
	CodeOverReturn        = "OVER_RETURN"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeMissingField      = "MISSING_FIELD"
	CodeCreditLimit       = "CREDIT_LIMIT_EXCEEDED"
	CodePartyInUse        = "PARTY_IN_USE"
	CodeProductInUse      = "PRODUCT_IN_USE"
	CodeSKUExists         = "SKU_EXISTS"
	CodeBackdatedEntry    = "BACKDATED_ENTRY"
	CodeBackupMismatch    = "BACKUP_MISMATCH"
)

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: CodeNotFound, Message: "Resource not found"}
	ErrAlreadyExists       = &DomainError{Kind: KindConflict, Code: CodeAlreadyExists, Message: "Resource already exists"}
	ErrInvalidInput        = &DomainError{Kind: KindValidation, Code: CodeInvalidInput, Message: "Invalid input provided"}
	ErrConcurrencyConflict = &DomainError{Kind: KindConcurrency, Code: CodeConcurrencyConflict, Message: "Resource was modified by another process"}
	ErrInvalidState        = &DomainError{Kind: KindState, Code: CodeInvalidState, Message: "Operation not allowed in current state"}
	ErrInsufficientStock   = &DomainError{Kind: KindConflict, Code: CodeInsufficientStock, Message: "Insufficient stock available"}
	ErrNoRateAvailable     = &DomainError{Kind: KindConflict, Code: CodeNoRateAvailable, Message: "No exchange rate is effective at the requested instant"}
	ErrOverReturn          = &DomainError{Kind: KindConflict, Code: CodeOverReturn, Message: "Return quantity exceeds the original quantity"}
)

func kindForCode(code string) ErrorKind {
	switch code {
	case CodeNotFound:
		return KindNotFound
	case CodeConcurrencyConflict:
		return KindConcurrency
	case CodeInvalidInput, CodeInvalidRate, CodeDivisionByZero, CodeCurrencyMismatch,
		CodeInvalidQuantity, CodeInvalidPrice, CodeInvalidAmount, CodeEmptyDocument,
		CodeEmptyReturn, CodeReasonRequired, CodeMissingField, CodeBackdatedEntry:
		return KindValidation
	case CodeAlreadyExists, CodeNoRateAvailable, CodeOverReturn, CodeInsufficientStock, CodeSKUExists:
		return KindConflict
	default:
		return KindState
	}
}
