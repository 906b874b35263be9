package process

import (
	"context"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/util"
)

func TestEscape(t *testing.T) {
	tests := map[string]string{
		"ls":          "ls",
		"/t*":         "'/t*'",
		"a b":         "'a b'",
		"":            "''",
		"it's":        `'it'"'"'s'`,
		"$HOME":       "'$HOME'",
		"--flag=val":  "--flag=val",
		"semi;colon":  "'semi;colon'",
		"back`ticks`": "'back`ticks`'",
	}
	for in, want := range tests {
		if got := Escape(in); got != want {
			t.Errorf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCommandLine(t *testing.T) {
	command := []string{"ls", "/t*", "a b"}
	if got := commandLine(command, true); got != "ls '/t*' 'a b'" {
		t.Errorf("escaped line = %q", got)
	}
	if got := commandLine(command, false); got != "ls /t* a b" {
		t.Errorf("plain line = %q", got)
	}
}

func TestEscapeTokensCopies(t *testing.T) {
	command := []string{"echo", "a b"}
	tokens := escapeTokens(command)
	if tokens[1] != "'a b'" {
		t.Errorf("expected quoted token, got %q", tokens[1])
	}
	if command[1] != "a b" {
		t.Errorf("input mutated: %q", command[1])
	}
}

func TestParseSignal(t *testing.T) {
	tests := map[string]syscall.Signal{
		"":        syscall.SIGTERM,
		"SIGTERM": syscall.SIGTERM,
		"sigint":  syscall.SIGINT,
		"KILL":    syscall.SIGKILL,
		" hup ":   syscall.SIGHUP,
	}
	for in, want := range tests {
		got, err := ParseSignal(in)
		if err != nil {
			t.Errorf("ParseSignal(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSignal(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseSignal("SIGNOPE"); err == nil {
		t.Error("expected error for unknown signal")
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGKILL); got != "SIGKILL" {
		t.Errorf("signalName(SIGKILL) = %q", got)
	}
}

func TestExitStatusNil(t *testing.T) {
	code, sig := exitStatus(nil)
	if code != -1 || sig != "" {
		t.Errorf("exitStatus(nil) = %d, %q", code, sig)
	}
}

func TestLimitedBuffer(t *testing.T) {
	calls := 0
	b := newLimitedBuffer(5, func() { calls++ })

	if n, err := b.Write([]byte("abc")); n != 3 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if b.Exceeded() {
		t.Fatal("exceeded too early")
	}
	if n, err := b.Write([]byte("defg")); n != 4 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if !b.Exceeded() {
		t.Fatal("expected exceeded")
	}
	_, _ = b.Write([]byte("more"))
	if got := string(b.Bytes()); got != "abcde" {
		t.Errorf("expected truncated content, got %q", got)
	}
	if calls != 1 {
		t.Errorf("expected onExceed once, got %d", calls)
	}
}

func TestLimitedBufferExactFit(t *testing.T) {
	b := newLimitedBuffer(3, nil)
	_, _ = b.Write([]byte("abc"))
	if b.Exceeded() {
		t.Fatal("buffer filled to capacity must not be exceeded")
	}
}

func TestResolveDecoder(t *testing.T) {
	for _, label := range []string{"", "utf8", "UTF-8"} {
		dec, err := resolveDecoder(label)
		if err != nil || dec != nil {
			t.Errorf("resolveDecoder(%q) = %v, %v; want nil, nil", label, dec, err)
		}
	}
	dec, err := resolveDecoder("windows-1252")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := decode(dec, []byte{0x80})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != "€" {
		t.Errorf("expected euro sign, got %q", out)
	}
}

func TestCommandOptionsDefaults(t *testing.T) {
	var nilOpts *CommandOptions
	o := nilOpts.withDefaults()
	if o.MaxBuffer != DefaultMaxBuffer {
		t.Errorf("MaxBuffer = %d", o.MaxBuffer)
	}
	if o.KillSignal != DefaultKillSignal {
		t.Errorf("KillSignal = %q", o.KillSignal)
	}
	if o.GracePeriod != DefaultGracePeriod {
		t.Errorf("GracePeriod = %v", o.GracePeriod)
	}
	if o.Shell != DefaultShell {
		t.Errorf("Shell = %q", o.Shell)
	}
	if !o.escapeEnabled() || !o.checkError() {
		t.Error("tri-state flags must default to true")
	}

	custom := (&CommandOptions{
		Options:     Options{ShellEscape: util.Ptr(false)},
		CheckError:  util.Ptr(false),
		MaxBuffer:   10,
		GracePeriod: time.Second,
	}).withDefaults()
	if custom.escapeEnabled() || custom.checkError() {
		t.Error("explicit false must be kept")
	}
	if custom.MaxBuffer != 10 || custom.GracePeriod != time.Second {
		t.Errorf("explicit values overridden: %+v", custom)
	}
}

func TestDaemonOptionsDefaults(t *testing.T) {
	var nilOpts *DaemonOptions
	o := nilOpts.withDefaults()
	if o.KillSignal != DefaultKillSignal {
		t.Errorf("KillSignal = %q", o.KillSignal)
	}
	if o.Shell != "" {
		t.Errorf("daemons must not get a default shell, got %q", o.Shell)
	}
	if o.EmitErrors {
		t.Error("EmitErrors must default to false")
	}
}

func TestMergeEnv(t *testing.T) {
	if env := mergeEnv(nil); env != nil {
		t.Errorf("expected nil env to inherit, got %d entries", len(env))
	}
	env := mergeEnv([]string{"PROCKIT_TEST=1"})
	if len(env) != len(os.Environ())+1 {
		t.Errorf("expected parent env plus one, got %d", len(env))
	}
	if env[len(env)-1] != "PROCKIT_TEST=1" {
		t.Errorf("extra entry must come last, got %q", env[len(env)-1])
	}
}

func TestSysProcAttr(t *testing.T) {
	attr := sysProcAttr(Options{})
	if !attr.Setpgid {
		t.Error("expected Setpgid")
	}
	if attr.Credential != nil {
		t.Error("expected no credential without uid/gid")
	}

	attr = sysProcAttr(Options{UID: util.Ptr(uint32(1234))})
	if attr.Credential == nil {
		t.Fatal("expected credential")
	}
	if attr.Credential.Uid != 1234 {
		t.Errorf("Uid = %d", attr.Credential.Uid)
	}
	if attr.Credential.Gid != uint32(os.Getgid()) {
		t.Errorf("Gid should default to current gid, got %d", attr.Credential.Gid)
	}
}

func TestCheckEnv(t *testing.T) {
	if err := (Options{Env: []string{"A=1", "B="}}).checkEnv(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"NOEQUALS", "=value"} {
		if err := (Options{Env: []string{bad}}).checkEnv(); err == nil {
			t.Errorf("expected error for %q", bad)
		} else if !strings.Contains(err.Error(), bad) {
			t.Errorf("error should name the entry: %v", err)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateCreated:  "created",
		StateRunning:  "running",
		StateErrored:  "errored",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		State(99):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func released(d *Daemon) (bool, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released, len(d.subs)
}

func TestDaemonReleasesSubscribersAfterExit(t *testing.T) {
	d := NewDaemon([]string{"false"}, &DaemonOptions{EmitErrors: true})
	got := make(chan ErrorEvent, 1)
	d.OnError(func(ev ErrorEvent) { got <- ev })

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case ev := <-got:
		if !errors.HasCode(ev.Err, errors.ErrCodeUnexpectedExit) {
			t.Fatalf("expected UNEXPECTED_EXIT, got %v", ev.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error event")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		ok, n := released(d)
		if ok {
			if n != 0 {
				t.Fatalf("expected no live subscriptions, got %d", n)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriptions were not released after exit")
		}
		time.Sleep(10 * time.Millisecond)
	}

	unsubscribe := d.OnError(func(ErrorEvent) { t.Error("unexpected event after release") })
	unsubscribe()
}

func TestDaemonReleasesSubscribersAfterLaunchFailure(t *testing.T) {
	d := NewDaemon([]string{"program_that_does_not_exist"}, nil)
	d.OnError(func(ErrorEvent) {})

	if err := d.Start(context.Background()); !errors.HasCode(err, errors.ErrCodeLaunchFailed) {
		t.Fatalf("expected LAUNCH_FAILED, got %v", err)
	}
	if ok, n := released(d); !ok || n != 0 {
		t.Fatalf("expected subscriptions released on return, got released=%v subs=%d", ok, n)
	}
}
