package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the message of a concrete error is
// what gets surfaced to clients.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConflictState       = errors.New("conflicting state")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrForbidden           = errors.New("forbidden")
)

type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func newf(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func Conflict(format string, args ...any) error   { return newf(ErrConflictState, format, args...) }
func Forbidden(format string, args ...any) error  { return newf(ErrForbidden, format, args...) }

func InsufficientFunds(format string, args ...any) error {
	return newf(ErrInsufficientFunds, format, args...)
}

// Upstream reports a collaborator failure (bureau, model, chain).
func Upstream(service string, cause error) error {
	return &Error{kind: ErrUpstreamUnavailable, msg: fmt.Sprintf("%s unavailable: %v", service, cause)}
}

// IsClient reports whether err is one of the client facing kinds.
func IsClient(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation)
}
