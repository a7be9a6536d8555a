package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead ErrorCode = "CONFIG-001"

	// Backend errors (BACKEND-001 to BACKEND-099)
	ErrCodeBackendFallbackMissing ErrorCode = "BACKEND-001"
	ErrCodeBackendFallbackExec    ErrorCode = "BACKEND-002"

	// Execution errors (EXEC-001 to EXEC-099)
	ErrCodeExecSpawn ErrorCode = "EXEC-001"

	// Logging errors (LOG-001 to LOG-099)
	ErrCodeLogSink ErrorCode = "LOG-001"
)

// PblError represents an enhanced error with code and suggestions
type PblError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *PblError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  - %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PblError) Unwrap() error {
	return e.Cause
}

// New creates a new PblError
func New(code ErrorCode, message string) *PblError {
	return &PblError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PblError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PblError {
	return &PblError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PblError) WithSuggestion(suggestion string) *PblError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// Common error constructors for frequently used errors

// NewFallbackMissingError reports that no backend directory exists for the
// configured loader and the legacy fallback executable is absent too
func NewFallbackMissingError(path string) *PblError {
	return New(ErrCodeBackendFallbackMissing, fmt.Sprintf("legacy fallback not found: %s", path)).
		WithSuggestion("Check that the bootloader package for the configured LOADER_TYPE is installed").
		WithSuggestion("Verify the contents of /usr/lib/bootloader")
}

// NewSpawnError reports that a backend script could not be started. The
// rendered form is a single line so it can stand in for the command's
// captured output.
func NewSpawnError(command string, cause error) *PblError {
	return Wrap(ErrCodeExecSpawn, fmt.Sprintf("failed to run %s", command), cause)
}

// NewConfigReadError reports a configuration source that exists but cannot
// be read (absence is not an error)
func NewConfigReadError(path string, cause error) *PblError {
	return Wrap(ErrCodeConfigRead, fmt.Sprintf("failed to read %s", path), cause)
}
