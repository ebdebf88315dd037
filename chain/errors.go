package chain

import (
	"errors"
	"fmt"

	"github.com/aschepis/backscratcher/chains/callable"
)

// Error represents a chain-level error.
type Error struct {
	Type    ErrorType
	Step    string        // Key of the step the error is attributed to, if any
	Key     string        // Context key involved (duplicate or unresolved reference)
	Mode    callable.Mode // Execution mode for unsupported-mode errors
	Message string
	Cause   error // Original error from the callable, if any
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeDuplicateKey        ErrorType = "duplicate_key"
	ErrorTypeUnresolvedReference ErrorType = "unresolved_reference"
	ErrorTypeUnsupportedMode     ErrorType = "unsupported_mode"
	ErrorTypeStepExecution       ErrorType = "step_execution"
	ErrorTypeTimeout             ErrorType = "timeout"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsDuplicateKeyError checks if an error is a duplicate step key error.
func IsDuplicateKeyError(err error) bool {
	return hasType(err, ErrorTypeDuplicateKey)
}

// IsUnresolvedReferenceError checks if an error is an unresolved reference error.
func IsUnresolvedReferenceError(err error) bool {
	return hasType(err, ErrorTypeUnresolvedReference)
}

// IsUnsupportedModeError checks if an error is an unsupported execution mode error.
func IsUnsupportedModeError(err error) bool {
	return hasType(err, ErrorTypeUnsupportedMode)
}

// IsStepExecutionError checks if an error wraps a failure raised by a step's callable.
func IsStepExecutionError(err error) bool {
	return hasType(err, ErrorTypeStepExecution)
}

// IsTimeoutError checks if an error is a step or run deadline overrun.
func IsTimeoutError(err error) bool {
	return hasType(err, ErrorTypeTimeout)
}

func hasType(err error, t ErrorType) bool {
	var chainErr *Error
	if errors.As(err, &chainErr) {
		return chainErr.Type == t
	}
	return false
}

// NewDuplicateKeyError creates an error for a step key collision at build time.
func NewDuplicateKeyError(key string) *Error {
	return &Error{
		Type:    ErrorTypeDuplicateKey,
		Key:     key,
		Message: fmt.Sprintf("duplicate step key: %q", key),
	}
}

// NewUnresolvedReferenceError creates an error for a reference naming a
// context key that has not been produced when the referencing step resolves.
func NewUnresolvedReferenceError(stepKey, refKey string) *Error {
	return &Error{
		Type:    ErrorTypeUnresolvedReference,
		Step:    stepKey,
		Key:     refKey,
		Message: fmt.Sprintf("step %q references unresolved context key %q", stepKey, refKey),
	}
}

// NewUnsupportedModeError creates an error for an execution mode the target
// callable does not implement.
func NewUnsupportedModeError(stepKey, callableName string, mode callable.Mode) *Error {
	return &Error{
		Type:    ErrorTypeUnsupportedMode,
		Step:    stepKey,
		Mode:    mode,
		Message: fmt.Sprintf("step %q: callable %q does not support %s invocation", stepKey, callableName, mode),
	}
}

// NewStepExecutionError wraps a failure raised by the invoked callable,
// carrying the failing step's key.
func NewStepExecutionError(stepKey string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeStepExecution,
		Step:    stepKey,
		Message: fmt.Sprintf("step %q failed", stepKey),
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for a step that exceeded its configured
// deadline.
func NewTimeoutError(stepKey string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeTimeout,
		Step:    stepKey,
		Message: fmt.Sprintf("step %q exceeded its deadline", stepKey),
		Cause:   cause,
	}
}
