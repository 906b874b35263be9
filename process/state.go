package process

// State is a daemon lifecycle state.
type State int

const (
	// StateCreated means the daemon has not been started.
	StateCreated State = iota
	// StateRunning means the child is running and watched.
	StateRunning
	// StateErrored means an error was latched; Stop returns it.
	StateErrored
	// StateStopping means Stop has signalled the child and is waiting.
	StateStopping
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateErrored:
		return "errored"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
