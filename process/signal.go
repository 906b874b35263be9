package process

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	apperrors "github.com/kbukum/prockit/errors"
)

// ParseSignal converts a signal name such as "SIGTERM", "term" or "INT" into
// a syscall.Signal. An empty name yields SIGTERM.
func ParseSignal(name string) (syscall.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return syscall.SIGTERM, nil
	}
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	sig := unix.SignalNum(n)
	if sig == 0 {
		return 0, apperrors.InvalidInput("kill_signal", fmt.Sprintf("unknown signal %q", name))
	}
	return sig, nil
}

// signalName returns the conventional name of sig, e.g. "SIGTERM".
func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}

// signalGroup sends sig to the process group led by p. A group that has
// already exited reports os.ErrProcessDone.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// exitStatus extracts the exit code and terminating signal name from a
// finished process. A signalled process reports code -1.
func exitStatus(state *os.ProcessState) (int, string) {
	if state == nil {
		return -1, ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -1, signalName(ws.Signal())
	}
	return state.ExitCode(), ""
}
