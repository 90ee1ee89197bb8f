package boxerr

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type Code uint64

const (
	CodeValidation  Code = iota // 0: Task payload fails schema shape/type checks before submission.
	CodeDefinition              // 1: Schema registration conflict or illegal migration transition.
	CodeConcurrency             // 2: Operation attempted while not connected/ready, or open blocked by another connection.
	CodeEngine                  // 3: The storage engine itself reported a failure.
	CodeAbort                   // 4: An interrupt or engine-initiated abort terminated an in-flight transaction.
	CodeUnsupported             // 5: Operation is not supported by the underlying engine.
)

func (c Code) String() string {
	switch c {
	case CodeValidation:
		return "ValidationError"
	case CodeDefinition:
		return "DefinitionError"
	case CodeConcurrency:
		return "ConcurrencyError"
	case CodeEngine:
		return "EngineError"
	case CodeAbort:
		return "AbortError"
	case CodeUnsupported:
		return "UnsupportedError"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type Code)
// and an error message. All errors produced by this library are of this type.
type Error struct {
	Code Code   // The error code
	Msg  string // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code Code, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Constructors (one per code)
// --------------------------------------------------------------------------

func Validationf(format string, args ...any) *Error {
	return NewError(CodeValidation, fmt.Sprintf(format, args...))
}

func Definitionf(format string, args ...any) *Error {
	return NewError(CodeDefinition, fmt.Sprintf(format, args...))
}

func Concurrencyf(format string, args ...any) *Error {
	return NewError(CodeConcurrency, fmt.Sprintf(format, args...))
}

func Enginef(format string, args ...any) *Error {
	return NewError(CodeEngine, fmt.Sprintf(format, args...))
}

func Abortf(format string, args ...any) *Error {
	return NewError(CodeAbort, fmt.Sprintf(format, args...))
}

func Unsupportedf(format string, args ...any) *Error {
	return NewError(CodeUnsupported, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Inspection Helpers
// --------------------------------------------------------------------------

// GetCode extracts the error code from an error. The boolean return value
// indicates whether the error is an *Error produced by this library.
func GetCode(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// Is reports whether the error carries the given code.
func Is(err error, code Code) bool {
	c, ok := GetCode(err)
	return ok && c == code
}
