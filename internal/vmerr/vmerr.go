// Package vmerr defines the structured error used across the engine.
//
// Every fallible engine operation reports exactly one Kind plus an optional
// integer Value (an offending index, offset or version) for diagnostics.
package vmerr

import (
	"errors"
	"strconv"
	"strings"
)

// Kind categorizes the error.
type Kind string

const (
	KindNullArgs            Kind = "null_args"
	KindInvalidArgument     Kind = "invalid_argument"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindInvalidFormatState  Kind = "invalid_format_state"
	KindInvalidMagic        Kind = "invalid_magic"
	KindInvalidClassVersion Kind = "invalid_class_version"
	KindMalformedHeader     Kind = "malformed_header"
	KindInvalidNumLibraries Kind = "invalid_num_libraries"
	KindUnknownFormat       Kind = "unknown_format"
	KindMalformed           Kind = "malformed"
	KindNoMemory            Kind = "no_memory"
	KindUnknownScaffold     Kind = "unknown_scaffold"
	KindInvalidEngineState  Kind = "invalid_engine_state"
	KindInvalidThreadState  Kind = "invalid_thread_state"
	KindNotFound            Kind = "not_found"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrNullArgs            = &Error{Kind: KindNullArgs}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrOutOfBounds         = &Error{Kind: KindOutOfBounds}
	ErrInvalidFormatState  = &Error{Kind: KindInvalidFormatState}
	ErrInvalidMagic        = &Error{Kind: KindInvalidMagic}
	ErrInvalidClassVersion = &Error{Kind: KindInvalidClassVersion}
	ErrMalformedHeader     = &Error{Kind: KindMalformedHeader}
	ErrInvalidNumLibraries = &Error{Kind: KindInvalidNumLibraries}
	ErrUnknownFormat       = &Error{Kind: KindUnknownFormat}
	ErrMalformed           = &Error{Kind: KindMalformed}
	ErrNoMemory            = &Error{Kind: KindNoMemory}
	ErrUnknownScaffold     = &Error{Kind: KindUnknownScaffold}
	ErrInvalidEngineState  = &Error{Kind: KindInvalidEngineState}
	ErrInvalidThreadState  = &Error{Kind: KindInvalidThreadState}
	ErrNotFound            = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the engine.
type Error struct {
	Cause  error
	Kind   Kind
	Detail string
	Value  int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Value != 0 {
		b.WriteString(" (")
		b.WriteString(strconv.FormatInt(e.Value, 10))
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Value sets the associated diagnostic integer.
func (b *Builder) Value(v int64) *Builder {
	b.err.Value = v
	return b
}

// Detail sets a human readable detail.
func (b *Builder) Detail(detail string) *Builder {
	b.err.Detail = detail
	return b
}

// Cause sets the wrapped error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Of is shorthand for New(kind).Value(value).Build().
func Of(kind Kind, value int64) *Error {
	return &Error{Kind: kind, Value: value}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ValueOf returns the Value of the outermost *Error in err's chain.
func ValueOf(err error) (int64, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Value, true
	}
	return 0, false
}
