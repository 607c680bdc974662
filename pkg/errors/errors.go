package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindParse  Kind = "parse"  // malformed capture or structure input
	KindConfig Kind = "config" // inconsistent probe configuration
)

// Sentinels for errors.Is checks against a category.
var (
	ErrParse  = &Error{Kind: KindParse}
	ErrConfig = &Error{Kind: KindConfig}
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Kind   Kind
	Source string
	Detail string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")

	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Line > 0 {
		b.WriteString(" at line ")
		b.WriteString(strconv.Itoa(e.Line))
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

// Is reports whether target is an *Error of the same kind
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

// Source names the input (file or stream) the error was found in
func (b *Builder) Source(name string) *Builder {
	b.err.Source = name
	return b
}

// Line sets the 1-based input line
func (b *Builder) Line(n int) *Builder {
	b.err.Line = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	err := b.err
	return &err
}

// Parsef creates a parse error with a formatted detail
func Parsef(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Detail: fmt.Sprintf(format, args...)}
}

// Configf creates a config error with a formatted detail
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Detail: fmt.Sprintf(format, args...)}
}

// IsParse reports whether any error in err's chain is a parse error.
func IsParse(err error) bool {
	return stderrors.Is(err, ErrParse)
}

// IsConfig reports whether any error in err's chain is a config error.
func IsConfig(err error) bool {
	return stderrors.Is(err, ErrConfig)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
