// Package apperr defines the typed errors every domain service surfaces to
// the HTTP boundary, which maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1 // malformed or missing input
	KindInvalidIdentifier
	KindNotFound
	KindConflict
	KindPolicy
	KindInvalidTransition
	KindAuthorization
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func InvalidIdentifier(format string, args ...any) *Error {
	return newError(KindInvalidIdentifier, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func Policy(format string, args ...any) *Error {
	return newError(KindPolicy, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newError(KindInvalidTransition, format, args...)
}

func Authorization(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

// KindOf returns the kind of an application error, or 0 for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
