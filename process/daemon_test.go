package process_test

import (
	"context"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/prockit/component"
	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/process"
	"github.com/kbukum/prockit/util"
)

func waitEvent(t *testing.T, ch <-chan process.ErrorEvent) process.ErrorEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error event")
		return process.ErrorEvent{}
	}
}

func waitDone(t *testing.T, d *process.Daemon) {
	t.Helper()
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for daemon exit")
	}
}

func subscribe(d *process.Daemon) (<-chan process.ErrorEvent, func()) {
	ch := make(chan process.ErrorEvent, 4)
	unsubscribe := d.OnError(func(ev process.ErrorEvent) { ch <- ev })
	return ch, unsubscribe
}

func stopCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDaemonMissingExecutableStopFails(t *testing.T) {
	d := process.NewDaemon([]string{"program_that_does_not_exist"}, nil)

	startErr := d.Start(context.Background())
	requireCode(t, startErr, errors.ErrCodeLaunchFailed)

	err := d.Stop(stopCtx(t))
	requireCode(t, err, errors.ErrCodeLaunchFailed)
	if d.State() != process.StateStopped {
		t.Fatalf("expected stopped, got %s", d.State())
	}
}

func TestDaemonMissingExecutableEmitsError(t *testing.T) {
	d := process.NewDaemon([]string{"program_that_does_not_exist"}, &process.DaemonOptions{EmitErrors: true})
	events, unsubscribe := subscribe(d)
	defer unsubscribe()

	_ = d.Start(context.Background())
	ev := waitEvent(t, events)
	if ev.Err == nil {
		t.Fatal("expected error in event")
	}
	if ev.DaemonID != d.ID() || ev.Name != "program_that_does_not_exist" {
		t.Fatalf("unexpected event identity: %+v", ev)
	}

	if err := d.Stop(stopCtx(t)); err == nil {
		t.Fatal("expected latched error from Stop")
	}
}

func TestDaemonStartStop(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, &process.DaemonOptions{EmitErrors: true})
	var emitted atomic.Int32
	unsubscribe := d.OnError(func(process.ErrorEvent) { emitted.Add(1) })
	defer unsubscribe()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	pid := d.PID()
	if pid == 0 {
		t.Fatal("expected a pid after Start")
	}
	if d.State() != process.StateRunning {
		t.Fatalf("expected running, got %s", d.State())
	}

	time.Sleep(100 * time.Millisecond)

	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitDone(t, d)
	if err := syscall.Kill(pid, 0); err != syscall.ESRCH {
		t.Fatalf("expected process %d to be gone, kill(0) = %v", pid, err)
	}
	if d.State() != process.StateStopped {
		t.Fatalf("expected stopped, got %s", d.State())
	}
	if d.Err() != nil {
		t.Fatalf("expected no latched error, got %v", d.Err())
	}

	time.Sleep(200 * time.Millisecond)
	if n := emitted.Load(); n != 0 {
		t.Fatalf("expected no error events after clean stop, got %d", n)
	}
}

func TestDaemonUnexpectedExit(t *testing.T) {
	d := process.NewDaemon([]string{"sh", "-c", "exit 3"}, &process.DaemonOptions{
		Options:    process.Options{ShellEscape: util.Ptr(false)},
		EmitErrors: true,
	})
	events, unsubscribe := subscribe(d)
	defer unsubscribe()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ev := waitEvent(t, events)
	appErr := requireCode(t, ev.Err, errors.ErrCodeUnexpectedExit)
	if appErr.Message != "unexpected exit, code: 3, signal: null" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
	if d.State() != process.StateErrored {
		t.Fatalf("expected errored, got %s", d.State())
	}

	if err := d.Stop(stopCtx(t)); err != appErr {
		t.Fatalf("expected Stop to return the latched error, got %v", err)
	}
}

func TestDaemonKilledBySignal(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := syscall.Kill(d.PID(), syscall.SIGKILL); err != nil {
		t.Fatalf("kill failed: %v", err)
	}
	waitDone(t, d)

	appErr := requireCode(t, d.Err(), errors.ErrCodeUnexpectedExit)
	if appErr.Message != "unexpected exit, code: -1, signal: SIGKILL" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
	requireCode(t, d.Stop(stopCtx(t)), errors.ErrCodeUnexpectedExit)
}

func TestDaemonPerTokenEscaping(t *testing.T) {
	// Each token is quoted on its own and passed as argv, so the quotes
	// reach sh and "exit 3" is looked up as a command name.
	d := process.NewDaemon([]string{"sh", "-c", "exit 3"}, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, d)

	appErr := requireCode(t, d.Err(), errors.ErrCodeUnexpectedExit)
	if appErr.Details["exit_code"] != 127 {
		t.Fatalf("expected command-not-found exit, got %v", appErr.Details["exit_code"])
	}
}

func TestDaemonWithShell(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, &process.DaemonOptions{
		Options: process.Options{Shell: "/bin/sh"},
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDaemonKillSignal(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, &process.DaemonOptions{KillSignal: "SIGUSR1"})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDaemonStopCanceled(t *testing.T) {
	d := process.NewDaemon([]string{"sh", "-c", "trap '' TERM; sleep 3600"}, &process.DaemonOptions{
		Options: process.Options{ShellEscape: util.Ptr(false)},
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	pid := d.PID()
	defer func() { _ = syscall.Kill(-pid, syscall.SIGKILL) }()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	requireCode(t, d.Stop(ctx), errors.ErrCodeCanceled)
	if d.State() != process.StateStopping {
		t.Fatalf("expected stopping, got %s", d.State())
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		t.Fatalf("kill failed: %v", err)
	}
	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if d.Err() != nil {
		t.Fatalf("exit during Stop must not latch an error, got %v", d.Err())
	}
}

func TestDaemonInvalidTransitions(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, nil)

	requireCode(t, d.Stop(stopCtx(t)), errors.ErrCodeInvalidState)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	requireCode(t, d.Start(context.Background()), errors.ErrCodeInvalidState)

	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	requireCode(t, d.Stop(stopCtx(t)), errors.ErrCodeInvalidState)
	requireCode(t, d.Start(context.Background()), errors.ErrCodeInvalidState)
}

func TestDaemonInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		opts    *process.DaemonOptions
	}{
		{"empty command", nil, nil},
		{"unknown signal", []string{"sleep", "1"}, &process.DaemonOptions{KillSignal: "SIGNOPE"}},
		{"malformed env", []string{"sleep", "1"}, &process.DaemonOptions{Options: process.Options{Env: []string{"BAD"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := process.NewDaemon(tc.command, tc.opts)
			requireCode(t, d.Start(context.Background()), errors.ErrCodeInvalidInput)
			if d.State() != process.StateCreated {
				t.Fatalf("invalid input must not change state, got %s", d.State())
			}
		})
	}
}

func TestDaemonHealthAndDescribe(t *testing.T) {
	d := process.NewDaemon([]string{"/bin/sleep", "3600"}, nil)
	if d.Name() != "sleep" {
		t.Fatalf("expected default name 'sleep', got %q", d.Name())
	}
	if h := d.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy before start, got %s", h.Status)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := d.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Fatalf("expected healthy while running, got %s (%s)", h.Status, h.Message)
	}
	desc := d.Describe()
	if desc.Type != "process" || !strings.Contains(desc.Details, "sleep 3600") {
		t.Fatalf("unexpected description: %+v", desc)
	}
	if err := d.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDaemonCustomName(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "1"}, &process.DaemonOptions{Name: "db"})
	if d.Name() != "db" {
		t.Fatalf("expected name 'db', got %q", d.Name())
	}
	if d.ID() == "" || d.ID() == process.NewDaemon([]string{"sleep", "1"}, nil).ID() {
		t.Fatal("expected unique daemon ids")
	}
}
