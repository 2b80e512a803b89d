package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned when writing to a shell session whose process has exited
	ErrSessionClosed = errors.New("shell session is closed")

	// ErrInvalidInput is returned when tool arguments fail validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownTool is returned when a tool name is not one of the registered tools
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownPrompt is returned when a prompt name is not registered
	ErrUnknownPrompt = errors.New("unknown prompt")

	// ErrUnknownResource is returned when a resource URI is not served
	ErrUnknownResource = errors.New("unknown resource")
)

// ValidationError describes a rejected tool argument. It never reaches the shell session.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExecutionError reports a failed write to the shell session. Op names the tool that
// triggered the write and Input carries the command text or control letter.
type ExecutionError struct {
	Op    string
	Input string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Input, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
