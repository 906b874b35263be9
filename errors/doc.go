// Package errors provides the unified error type for process execution.
//
// Every failure carries a machine-readable code, a message and, where one
// exists, the native cause (for example *exec.ExitError), so callers can
// still use errors.Is and errors.As on the underlying error.
package errors
