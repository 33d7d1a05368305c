package dto

import (
	"net/http"

	"github.com/lotledger/backend/internal/domain/shared"
)

// API error codes. Domain codes are mapped onto these by NormalizeErrorCode.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"

	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeForbidden       = "ERR_FORBIDDEN"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeRowIdentityMismatch = "ERR_ROW_IDENTITY_MISMATCH"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"

	// rejected by a ledger rule, the request itself was well formed
	ErrCodeOverAllocation    = "ERR_OVER_ALLOCATION"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
)

// ErrorCodeHTTPStatus is the status answered for each API code
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeRowIdentityMismatch: http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,
	ErrCodeOverAllocation:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
}

// DomainErrorCodeMapping maps shared.DomainError codes to API codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeValidation:          ErrCodeValidation,
	shared.CodeNotFound:            ErrCodeNotFound,
	shared.CodeRowIdentityMismatch: ErrCodeRowIdentityMismatch,
	shared.CodeOverAllocation:      ErrCodeOverAllocation,
	shared.CodeUpstreamUnavailable: ErrCodeUpstreamUnavailable,
	shared.CodeInvalidState:        ErrCodeInvalidState,
	shared.CodeConcurrencyConflict: ErrCodeConcurrencyConflict,
	shared.CodeInsufficientStock:   ErrCodeInsufficientStock,
	shared.CodeDuplicateRequest:    ErrCodeDuplicateRequest,
}

// GetHTTPStatus returns the status for an API code, 500 when unmapped
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps a domain code to its API code. API codes and
// unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
