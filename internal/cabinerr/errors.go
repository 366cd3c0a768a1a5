// Package cabinerr defines the coded error taxonomy shared by every cabin
// component: ManifestError, DependencyError, ConfigError, ProcessError,
// ParseError and LogicError.
package cabinerr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the §7 error categories an Error belongs to.
type Kind string

const (
	Manifest   Kind = "MANIFEST"
	Dependency Kind = "DEPENDENCY"
	Config     Kind = "CONFIG"
	Process    Kind = "PROCESS"
	Parse      Kind = "PARSE"
	Logic      Kind = "LOGIC"
)

// Error is a coded error carrying an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches two *Error values by Kind, so callers can write
// errors.Is(err, cabinerr.New(cabinerr.Manifest, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// KindOf reports the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
