// Package apperr holds the error kinds that reach API clients.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindDuplicateIdentity  Kind = "DuplicateIdentity"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
	KindValidation         Kind = "ValidationError"
	KindInternal           Kind = "Internal"
)

// Error carries a client-facing kind and message; Err stays server-side.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden)
// holds regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrDuplicateIdentity  = &Error{Kind: KindDuplicateIdentity, Message: "username or email already registered"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid username or password"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "not authenticated"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "insufficient role"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal error"}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func Internal(err error) *Error { return Wrap(KindInternal, "internal error", err) }

// KindOf reports Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Status(kind Kind) int {
	switch kind {
	case KindDuplicateIdentity, KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus classifies framework errors that only carry a status code.
func FromStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindUnauthenticated
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusNotFound, code == http.StatusMethodNotAllowed:
		return KindNotFound
	case code >= 400 && code < 500:
		return KindValidation
	default:
		return KindInternal
	}
}
