package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is match a detailed error against the sentinel values below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeRowIdentityMismatch = "ROW_IDENTITY_MISMATCH"
	CodeOverAllocation      = "OVER_ALLOCATION"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrRowIdentityMismatch = NewDomainError(CodeRowIdentityMismatch, "Row no longer holds the expected record")
	ErrOverAllocation      = NewDomainError(CodeOverAllocation, "Quantity exceeds the requested quantity")
	ErrUpstreamUnavailable = NewDomainError(CodeUpstreamUnavailable, "Backing store is unavailable")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource is being modified by another request")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request was already processed")
)

// NewValidationError creates a validation error with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a not found error naming the missing resource
func NewNotFoundError(resource, key string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, key),
		Details: map[string]any{"resource": resource, "key": key},
	}
}

// NewRowIdentityMismatchError reports that the row at a position holds another record
func NewRowIdentityMismatchError(table string, row int, expected, actual string) *DomainError {
	return &DomainError{
		Code: CodeRowIdentityMismatch,
		Message: fmt.Sprintf("row %d of %s holds %q, expected %q",
			row, table, actual, expected),
		Details: map[string]any{
			"table":    table,
			"row":      row,
			"expected": expected,
			"actual":   actual,
		},
	}
}

// NewOverAllocationError reports the solicited, already fulfilled and attempted figures
func NewOverAllocationError(requested, alreadyFulfilled, attempted decimal.Decimal) *DomainError {
	return &DomainError{
		Code: CodeOverAllocation,
		Message: fmt.Sprintf("requested %s, already fulfilled %s, attempted %s: total would exceed requested quantity",
			requested.String(), alreadyFulfilled.String(), attempted.String()),
		Details: map[string]any{
			"requested":         requested.String(),
			"already_fulfilled": alreadyFulfilled.String(),
			"attempted":         attempted.String(),
			"remaining":         requested.Sub(alreadyFulfilled).String(),
		},
	}
}

// NewUpstreamUnavailableError wraps a backing store failure
func NewUpstreamUnavailableError(operation string, cause error) *DomainError {
	msg := fmt.Sprintf("backing store unavailable during %s", operation)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &DomainError{
		Code:    CodeUpstreamUnavailable,
		Message: msg,
		Details: map[string]any{"operation": operation},
	}
}

// NewInvalidStateError reports an operation the record's current status does not allow
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewInsufficientStockError reports a lot that cannot cover the attempted quantity
func NewInsufficientStockError(lotID string, available, attempted decimal.Decimal) *DomainError {
	return &DomainError{
		Code: CodeInsufficientStock,
		Message: fmt.Sprintf("lot %q has %s available, attempted %s",
			lotID, available.String(), attempted.String()),
		Details: map[string]any{
			"lot_id":    lotID,
			"available": available.String(),
			"attempted": attempted.String(),
		},
	}
}

// NewConcurrencyConflictError reports a key held by another writer
func NewConcurrencyConflictError(key string) *DomainError {
	return &DomainError{
		Code:    CodeConcurrencyConflict,
		Message: fmt.Sprintf("%s is being modified by another request", key),
		Details: map[string]any{"key": key},
	}
}

// NewDuplicateRequestError reports a client request key that was already applied
func NewDuplicateRequestError(key string) *DomainError {
	return &DomainError{
		Code:    CodeDuplicateRequest,
		Message: fmt.Sprintf("request %q was already processed", key),
		Details: map[string]any{"idempotency_key": key},
	}
}
