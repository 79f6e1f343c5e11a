// Package errz defines the structured errors returned when a method body
// cannot be decoded or transformed.
package errz

import (
	"errors"
	"fmt"

	"github.com/ilkit/ilexpr/op"
)

// ErrorKind represents the category of an error. Kinds are themselves
// errors so callers can test with errors.Is(err, errz.ErrUnsupportedOpcode).
type ErrorKind int

const (
	// ErrMalformedBytecode indicates a stream that is inconsistent with the
	// opcode table, or a symbol that was needed but could not be resolved.
	ErrMalformedBytecode ErrorKind = iota + 1
	// ErrUnsupportedOpcode indicates a recognized opcode that is not modelled.
	ErrUnsupportedOpcode
	// ErrUnsupportedPattern indicates control flow or a call shape beyond
	// structured conditionals.
	ErrUnsupportedPattern
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedBytecode:
		return "malformed bytecode"
	case ErrUnsupportedOpcode:
		return "unsupported opcode"
	case ErrUnsupportedPattern:
		return "unsupported pattern"
	default:
		return "error"
	}
}

// Error implements the error interface.
func (k ErrorKind) Error() string {
	return k.String()
}

// NoOffset marks an error that concerns the whole method body rather than a
// single instruction.
const NoOffset = -1

// StructuredError is an error tied to the instruction that caused it.
type StructuredError struct {
	Kind    ErrorKind
	Message string
	Offset  int
	Opcode  op.Code
	Cause   error

	hasOpcode bool
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	switch {
	case e.Offset == NoOffset:
	case e.hasOpcode:
		msg += fmt.Sprintf(" (IL_%04x: %s)", e.Offset, e.Opcode)
	default:
		msg += fmt.Sprintf(" (IL_%04x)", e.Offset)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the kind of this error.
func (e *StructuredError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// WithCause wraps the error with a cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}

// WithOpcode records the opcode of the failing instruction.
func (e *StructuredError) WithOpcode(code op.Code) *StructuredError {
	e.Opcode = code
	e.hasOpcode = true
	return e
}

// Errorf creates a new StructuredError at the given offset.
func Errorf(kind ErrorKind, offset int, format string, args ...any) *StructuredError {
	return &StructuredError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}

// Malformed creates an ErrMalformedBytecode error.
func Malformed(offset int, format string, args ...any) *StructuredError {
	return Errorf(ErrMalformedBytecode, offset, format, args...)
}

// Unsupported creates an ErrUnsupportedOpcode error for the opcode at offset.
func Unsupported(offset int, code op.Code) *StructuredError {
	return Errorf(ErrUnsupportedOpcode, offset, "%s is not supported", code).WithOpcode(code)
}

// Pattern creates an ErrUnsupportedPattern error.
func Pattern(offset int, format string, args ...any) *StructuredError {
	return Errorf(ErrUnsupportedPattern, offset, format, args...)
}

// OffsetOf returns the instruction offset carried by err, or NoOffset.
func OffsetOf(err error) int {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Offset
	}
	return NoOffset
}

// KindOf returns the kind carried by err, or zero when err is not structured.
func KindOf(err error) ErrorKind {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
