// Package apperr defines the error kinds surfaced by workspace and task
// operations. Every rejection is a business rule decision, not a transient
// failure, so none of them are retried.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers (and for HTTP status mapping).
type Kind int

const (
	// KindInternal is any store or infrastructure failure.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
	// KindInvariantViolation means the change would leave a workspace with zero Admins.
	KindInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindInvariantViolation:
		return "InvariantViolation"
	default:
		return "Internal"
	}
}

// HTTPStatus maps a kind onto the response code used by the JSON API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, user-facing error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrForbidden)
// works for every Forbidden error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation error"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvariantViolation = &Error{Kind: KindInvariantViolation, Message: "workspace must have at least one Admin"}
)

// ErrVersionConflict is returned by stores when a compare-and-swap update
// finds the document at a different version than expected. It is not a
// classified error: callers reload and retry, and only report Conflict
// once retries run out.
var ErrVersionConflict = errors.New("version conflict")

// New returns a classified error with the given message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) error { return New(KindValidation, msg) }
func NotFound(msg string) error   { return New(KindNotFound, msg) }
func Forbidden(msg string) error  { return New(KindForbidden, msg) }
func Conflict(msg string) error   { return New(KindConflict, msg) }

// InvariantViolation is returned when a membership change would leave no Admin.
func InvariantViolation() error {
	return New(KindInvariantViolation, ErrInvariantViolation.Message)
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message for err. Internal errors are
// replaced with a generic message so store details never reach clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error occurred."
}
