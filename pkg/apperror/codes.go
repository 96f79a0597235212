package apperror

import "net/http"

// Code is a machine-readable error code returned to API clients.
type Code string

const (
	CodeInternal     Code = "INTERNAL"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION_ERROR"

	// Tenant scoping
	CodeForbidden            Code = "FORBIDDEN"
	CodeCrossTenantReference Code = "CROSS_TENANT_REFERENCE"
	CodeImmutableTenant      Code = "IMMUTABLE_TENANT"

	// Inventory ledger
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeInvalidMovementType Code = "INVALID_MOVEMENT_TYPE"
	CodeHasRemainingStock   Code = "HAS_REMAINING_STOCK"

	// Orders
	CodeOrderLocked Code = "ORDER_LOCKED"

	// Storage
	CodeTransactionConflict Code = "TRANSACTION_CONFLICT"
)

// HTTPStatus maps a code to the response status used by the HTTP layer.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation,
		CodeInsufficientStock,
		CodeInvalidMovementType,
		CodeHasRemainingStock,
		CodeOrderLocked,
		CodeImmutableTenant:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeCrossTenantReference:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTransactionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely repeat the request.
func (c Code) Retryable() bool {
	return c == CodeTransactionConflict
}
