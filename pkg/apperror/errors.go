// Package apperror provides the structured error type shared by the service
// and HTTP layers.
package apperror

import (
	"errors"
	"fmt"
	"sort"
)

// Error is the domain error type with a code, a client-safe message and
// optional per-field details.
type Error struct {
	Code    Code
	Message string
	Fields  FieldErrors
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrNotFound             = &Error{Code: CodeNotFound}
	ErrValidation           = &Error{Code: CodeValidation}
	ErrForbidden            = &Error{Code: CodeForbidden}
	ErrCrossTenantReference = &Error{Code: CodeCrossTenantReference}
	ErrImmutableTenant      = &Error{Code: CodeImmutableTenant}
	ErrInsufficientStock    = &Error{Code: CodeInsufficientStock}
	ErrInvalidMovementType  = &Error{Code: CodeInvalidMovementType}
	ErrHasRemainingStock    = &Error{Code: CodeHasRemainingStock}
	ErrOrderLocked          = &Error{Code: CodeOrderLocked}
	ErrTransactionConflict  = &Error{Code: CodeTransactionConflict}
)

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound builds a NOT_FOUND error for the named resource.
func NotFound(resource string) *Error {
	return Newf(CodeNotFound, "%s not found", resource)
}

// Forbidden builds a FORBIDDEN error.
func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *Error {
	return Wrap(CodeInternal, "An unexpected error occurred.", cause)
}

// WithField attaches a field message and returns e.
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = FieldErrors{}
	}
	e.Fields.Add(field, message)
	return e
}

// As extracts an *Error from err. Errors of any other type are reported as
// INTERNAL so storage details never reach clients.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

// FieldErrors collects validation messages keyed by request field name.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Has reports whether field already has a message.
func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Merge copies every message from other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Names returns the sorted field names.
func (f FieldErrors) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns a VALIDATION_ERROR carrying the fields, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Code: CodeValidation, Message: "Invalid input.", Fields: f}
}
