package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// LaunchFailed creates an AppError for an executable that could not be started.
func LaunchFailed(program string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLaunchFailed, Message: fmt.Sprintf("failed to start %s", program),
		Details: map[string]any{"program": program}, Cause: cause,
	}
}

// NonZeroExit creates an AppError for a process that exited with a failing status.
// The captured stderr, if any, is kept in Details.
func NonZeroExit(exitCode int, stderr string, cause error) *AppError {
	details := map[string]any{"exit_code": exitCode}
	if stderr != "" {
		details["stderr"] = stderr
	}
	return &AppError{
		Code: ErrCodeNonZeroExit, Message: fmt.Sprintf("command exited with code %d", exitCode),
		Details: details, Cause: cause,
	}
}

// StderrOutput creates an AppError for a clean exit that still produced stderr output.
func StderrOutput(stderr string) *AppError {
	return &AppError{
		Code: ErrCodeStderrOutput, Message: "command failed: " + stderr,
		Details: map[string]any{"stderr": stderr},
	}
}

// UnexpectedExit creates an AppError for a supervised process that exited on its own.
// A process killed by a signal reports code -1.
func UnexpectedExit(exitCode int, signal string) *AppError {
	sig := signal
	if sig == "" {
		sig = "null"
	}
	return &AppError{
		Code:    ErrCodeUnexpectedExit,
		Message: fmt.Sprintf("unexpected exit, code: %d, signal: %s", exitCode, sig),
		Details: map[string]any{"exit_code": exitCode, "signal": signal},
	}
}

// OutputLimit creates an AppError for captured output that exceeded maxBytes.
func OutputLimit(stream string, maxBytes int) *AppError {
	return &AppError{
		Code: ErrCodeOutputLimit, Message: fmt.Sprintf("%s exceeded %d bytes", stream, maxBytes),
		Details: map[string]any{"stream": stream, "max_bytes": maxBytes},
	}
}

// Timeout creates an AppError for a process killed after its timeout.
func Timeout(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Canceled creates an AppError for an operation abandoned by its caller.
func Canceled(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("%s canceled", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// SignalFailed creates an AppError for a signal that could not be delivered.
func SignalFailed(signal string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSignalFailed, Message: fmt.Sprintf("failed to send %s", signal),
		Details: map[string]any{"signal": signal}, Cause: cause,
	}
}

// InvalidInput creates an AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// InvalidState creates an AppError for a lifecycle call made in the wrong state.
func InvalidState(operation, state string, allowed ...string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot %s in state %s (allowed: %s)", operation, state, strings.Join(allowed, ", ")),
		Details: map[string]any{"operation": operation, "state": state},
	}
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}
