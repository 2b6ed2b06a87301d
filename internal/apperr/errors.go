// Package apperr defines the error taxonomy shared by the roadmap, evaluation,
// reroute, and storage layers.
//
// Every failure surfaced by a public operation carries one of five kinds:
//
//   - KindNotFound: unknown user, action, or reroute option
//   - KindValidation: malformed input (wrong answer count, blank answers, empty roadmap)
//   - KindInvalidState: operation not permitted in the current lifecycle state
//   - KindExternalService: a generation or scoring collaborator failed
//   - KindIO: the context store could not be read or written
//
// Callers classify errors with KindOf or the Is* helpers, which see through
// fmt.Errorf("%w") wrapping.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that convert failures into results.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindInvalidState    Kind = "invalid_state"
	KindExternalService Kind = "external_service"
	KindIO              Kind = "io"
	KindInternal        Kind = "internal"
)

// Error is a classified failure. Op names the operation that failed
// (e.g. "submit action"), Message is safe to show to a user, and Err is the
// optional underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// WithOp returns a copy of e tagged with op. Used when a lower layer error
// bubbles up through a public operation.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, nil, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

// InvalidState reports an operation attempted from the wrong lifecycle state.
func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, nil, format, args...)
}

// External wraps a collaborator failure.
func External(cause error, format string, args ...any) *Error {
	return newf(KindExternalService, cause, format, args...)
}

// IO wraps a persistence failure.
func IO(cause error, format string, args ...any) *Error {
	return newf(KindIO, cause, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
// for unclassified errors. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsExternal(err error) bool     { return KindOf(err) == KindExternalService }
func IsIO(err error) bool           { return KindOf(err) == KindIO }

// IsRetryable reports whether repeating the same operation may succeed
// without any change in input or state.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindExternalService, KindIO:
		return true
	}
	return false
}
