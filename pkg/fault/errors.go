package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failure crossing the block boundary.
type Kind string

const (
	KindShapeMismatch     Kind = "shape_mismatch"     // value discriminant differs from the expected shape
	KindTypeTagMismatch   Kind = "type_tag_mismatch"  // native object present but of another semantic type
	KindNotFound          Kind = "not_found"          // variable, simulation or body handle absent at point of use
	KindInvalidParameter  Kind = "invalid_parameter"  // parameter rejected by SetParam
	KindExternalFailure   Kind = "external_failure"   // wrapped library or OS call failed
	KindContractViolation Kind = "contract_violation" // lifecycle misuse, never recovered
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrShapeMismatch     = &Error{Kind: KindShapeMismatch}
	ErrTypeTagMismatch   = &Error{Kind: KindTypeTagMismatch}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidParameter  = &Error{Kind: KindInvalidParameter}
	ErrExternalFailure   = &Error{Kind: KindExternalFailure}
	ErrContractViolation = &Error{Kind: KindContractViolation}
)

// Error is the structured failure returned by warmup and activation.
type Error struct {
	Cause  error
	Kind   Kind
	Block  string
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	if e.Block != "" {
		b.WriteString(e.Block)
		b.WriteString(": ")
	}

	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else {
		b.WriteString(string(e.Kind))
	}

	if e.Cause != nil && e.Cause.Error() != e.Detail {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a fault of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: cause, Detail: fmt.Sprintf(format, args...)}
}

// ShapeMismatch reports a value whose discriminant does not match.
func ShapeMismatch(expected, got string) *Error {
	return &Error{Kind: KindShapeMismatch, Detail: fmt.Sprintf("expected %s, got %s", expected, got)}
}

// TypeTagMismatch reports a native object of an unexpected semantic type.
func TypeTagMismatch(format string, args ...any) *Error {
	return New(KindTypeTagMismatch, format, args...)
}

// NotFound reports a missing variable, object or handle.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// InvalidParameter reports a rejected parameter value.
func InvalidParameter(format string, args ...any) *Error {
	return New(KindInvalidParameter, format, args...)
}

// External wraps a failure reported by an external library or the OS.
func External(cause error, format string, args ...any) *Error {
	return Wrap(KindExternalFailure, cause, format, args...)
}

// Violation panics with a ContractViolation. Lifecycle misuse is a bug in
// the caller and is not reported as a recoverable error.
func Violation(format string, args ...any) {
	panic(New(KindContractViolation, format, args...))
}

// WithBlock returns err annotated with the block name. Errors that are not
// faults become ExternalFailure; an error wrapping a fault keeps its message
// and the fault's kind. Already annotated faults are kept as is.
func WithBlock(err error, block string) error {
	if err == nil {
		return nil
	}

	var f *Error
	if !errors.As(err, &f) {
		return &Error{Kind: KindExternalFailure, Block: block, Detail: err.Error(), Cause: err}
	}
	if f.Block != "" {
		return err
	}
	if f != err {
		return &Error{Kind: f.Kind, Block: block, Detail: err.Error(), Cause: err}
	}
	annotated := *f
	annotated.Block = block
	return &annotated
}

// KindOf returns the kind of err, or an empty kind if err is not a fault.
func KindOf(err error) Kind {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
