// Package apperr defines the error kinds surfaced by the API and their HTTP
// status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindOperationFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindOperationFailed:
		return "operation_failed"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error with a kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && !strings.HasSuffix(e.Message, e.Err.Error()) {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Required reports a missing input field.
func Required(field string) *Error {
	return &Error{Kind: KindValidation, Message: field + " is required"}
}

func Invalid(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("Doctor") -> "Doctor not found".
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Failed wraps a persistence failure. The underlying message is passed
// through to the client unchanged.
func Failed(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOperationFailed, Message: err.Error(), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Wrap prefixes a persistence failure with the action that failed, e.g.
// "Failed to create doctor: <cause>". Errors that already carry a
// client-facing kind are returned unchanged.
func Wrap(action string, err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindInternal, KindOperationFailed:
		return &Error{Kind: KindOperationFailed, Message: "Failed to " + action + ": " + rootMessage(err), Err: err}
	}
	return err
}

func rootMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
