package process

import "time"

// Result holds the output and status of a completed command.
type Result struct {
	// Stdout is the captured standard output, raw bytes.
	Stdout []byte
	// Stderr is the captured standard error, raw bytes.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or never started.
	ExitCode int
	// Signal names the signal that terminated the process, if any.
	Signal string
	// Duration is how long the process ran.
	Duration time.Duration
}
