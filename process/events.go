package process

import "time"

// Event type identifiers.
const (
	TypeDaemonError uint32 = iota + 1
)

// ErrorEvent reports a daemon failure: a launch error or an exit that
// nobody asked for.
type ErrorEvent struct {
	DaemonID string
	Name     string
	Err      error
	Time     time.Time
}

// Type implements event.Event.
func (e ErrorEvent) Type() uint32 { return TypeDaemonError }
