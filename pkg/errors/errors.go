// Package errors carries the typed application errors that handlers turn
// into the JSON error envelope.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	// CodeDependency marks a supplier, messaging provider or datastore that
	// failed or answered with an error.
	CodeDependency Code = "DEPENDENCY_ERROR"

	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeNotConfigured     Code = "PLATFORM_NOT_CONFIGURED"
)

// Metadata describes how a code is rendered to API clients.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage replaces the error's own message unless ExposeMessage is set.
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {http.StatusBadRequest, false, "validation failed", true, true},
	CodeUnauthorized:      {http.StatusUnauthorized, false, "authentication required", true, false},
	CodeForbidden:         {http.StatusForbidden, false, "access denied", true, false},
	CodeNotFound:          {http.StatusNotFound, false, "resource not found", true, false},
	CodeConflict:          {http.StatusConflict, false, "conflict detected", true, false},
	CodeStateConflict:     {http.StatusUnprocessableEntity, false, "state transition disallowed", true, true},
	CodeIdempotency:       {http.StatusConflict, false, "idempotency key reused", true, true},
	CodeRateLimit:         {http.StatusTooManyRequests, true, "rate limit exceeded", true, false},
	CodeInternal:          {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:        {http.StatusServiceUnavailable, true, "dependency unavailable", true, true},
	CodeInsufficientStock: {http.StatusConflict, false, "insufficient stock", true, true},
	CodeNotConfigured:     {http.StatusPreconditionFailed, false, "platform not configured", true, true},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err reachable through errors.Is/As. The cause is logged but
// never rendered to clients.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Retryable reports whether a caller may retry the failed operation as is.
// Untyped errors count as retryable internal failures.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	typed := As(err)
	if typed == nil {
		return true
	}
	return MetadataFor(typed.code).Retryable
}
