package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Launch and exit errors
const (
	// ErrCodeLaunchFailed indicates the executable could not be started.
	ErrCodeLaunchFailed ErrorCode = "LAUNCH_FAILED"
	// ErrCodeNonZeroExit indicates the process completed with a failing exit status.
	ErrCodeNonZeroExit ErrorCode = "NON_ZERO_EXIT"
	// ErrCodeStderrOutput indicates the process exited cleanly but wrote to stderr.
	ErrCodeStderrOutput ErrorCode = "STDERR_OUTPUT"
	// ErrCodeUnexpectedExit indicates a supervised process terminated on its own.
	ErrCodeUnexpectedExit ErrorCode = "UNEXPECTED_EXIT"
	// ErrCodeOutputLimit indicates captured output exceeded the configured ceiling.
	ErrCodeOutputLimit ErrorCode = "OUTPUT_LIMIT"
)

// Termination errors
const (
	// ErrCodeTimeout indicates the process was killed after its timeout elapsed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller's context was canceled.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeSignalFailed indicates a signal could not be delivered.
	ErrCodeSignalFailed ErrorCode = "SIGNAL_FAILED"
)

// Usage errors
const (
	// ErrCodeInvalidInput indicates the command or options are invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidState indicates a lifecycle call in the wrong state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
