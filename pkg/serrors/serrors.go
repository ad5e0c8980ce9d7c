// Package serrors defines the semantic error kinds shared by the transit engine
// and the HTTP layer.
package serrors

import (
	"errors"
	"fmt"
)

// Kind marks a semantic error category. Kinds are sentinels and match with errors.Is.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrValidation marks a missing or malformed request parameter.
	ErrValidation = NewKind("VALIDATION")
	// ErrProvider marks a failure of the ephemeris provider.
	ErrProvider = NewKind("PROVIDER")
	// ErrPartial marks a failed chart section while sibling sections succeeded.
	ErrPartial = NewKind("PARTIAL")
	// ErrUnavailable marks an optional backend that is not configured.
	ErrUnavailable = NewKind("UNAVAILABLE")
)

// Error carries a kind, an optional cause and an optional message.
//
// Error() renders "<msg>: <cause>", "<msg>", "<cause>" or the kind name,
// whichever parts are present.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With builds an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap builds an error of kind k wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is matches either the kind sentinel or anything in the wrapped chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	return e.err != nil && errors.Is(e.err, target)
}

// Kind returns the semantic kind, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message without the cause.
func (e *Error) Message() string { return e.msg }

// KindOf returns the first semantic kind found in err's chain, or nil.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.kind
	}
	return nil
}
