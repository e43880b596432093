// Package apperr describes the error taxonomy of the scheduling engine.
//
// Every error carries one of the sentinel kinds below so transports can map it
// with errors.Is, plus a message, optional key/value arguments and a cause.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation malformed rule, patch or request.
	ErrValidation = errors.New("validation failed")
	// ErrPolicyInactive cancellation recorded while the policy is disabled.
	ErrPolicyInactive = errors.New("cancellation policy is not active")
	// ErrNotFound unknown client, alert or exception.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentModification lost update on the owner's policy.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// Error is an engine error of a given kind.
type Error struct {
	kind    error
	message string
	args    map[string]interface{}
	wrapped error
}

func newError(kind error, message string) *Error {
	return &Error{
		kind:    kind,
		message: message,
		args:    make(map[string]interface{}),
	}
}

func Validation(message string) *Error     { return newError(ErrValidation, message) }
func PolicyInactive(message string) *Error { return newError(ErrPolicyInactive, message) }
func NotFound(message string) *Error       { return newError(ErrNotFound, message) }
func ConcurrentModification(message string) *Error {
	return newError(ErrConcurrentModification, message)
}

// Arg adds an argument to the error.
func (e *Error) Arg(key string, value interface{}) *Error {
	e.args[key] = value
	return e
}

// Wrap attaches the underlying cause.
func (e *Error) Wrap(err error) *Error {
	if err != nil {
		e.wrapped = err
	}
	return e
}

// Message returns the message without kind and arguments.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.Error())
	b.WriteString(": ")
	b.WriteString(e.message)

	if len(e.args) > 0 {
		keys := make([]string, 0, len(e.args))
		for k := range e.args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.args[k])
		}
		b.WriteString("]")
	}

	if e.wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

// Is matches the sentinel kind.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.wrapped
}
