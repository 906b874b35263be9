package fixture_test

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/prockit/component"
	"github.com/kbukum/prockit/config"
	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/fixture"
	"github.com/kbukum/prockit/process"
)

func TestLoad(t *testing.T) {
	cfg, err := fixture.Load("fixtures", config.WithConfigFile(filepath.Join("testdata", "fixtures.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Daemons) != 2 {
		t.Fatalf("expected 2 daemons, got %d", len(cfg.Daemons))
	}
	first := cfg.Daemons[0]
	if first.Name != "first" || len(first.Command) != 2 || first.Command[1] != "3600" {
		t.Errorf("unexpected first daemon: %+v", first)
	}
	if first.StartupDelay != 20*time.Millisecond {
		t.Errorf("expected startup_delay 20ms, got %v", first.StartupDelay)
	}
	if cfg.Daemons[1].KillSignal != "SIGUSR1" {
		t.Errorf("expected kill_signal SIGUSR1, got %q", cfg.Daemons[1].KillSignal)
	}
	if cfg.Runner.Timeout != 2*time.Second {
		t.Errorf("expected runner timeout 2s, got %v", cfg.Runner.Timeout)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	writeConfig(t, path, "daemons:\n  - command: [sleep, \"1\"]\n    kill_signal: SIGNOPE\n")

	_, err := fixture.Load("bad", config.WithConfigFile(path))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestHelperLoadStartsAndStops(t *testing.T) {
	var pids []int

	t.Run("suite", func(t *testing.T) {
		set := fixture.T(t).Load("fixtures")
		for _, name := range []string{"first", "second"} {
			d := set.Daemon(name)
			if d == nil {
				t.Fatalf("missing daemon %s", name)
			}
			if d.State() != process.StateRunning {
				t.Fatalf("expected %s running, got %s", name, d.State())
			}
			pids = append(pids, d.PID())
		}
		for _, h := range set.Health(context.Background()) {
			if h.Status != component.StatusHealthy {
				t.Errorf("expected %s healthy, got %s: %s", h.Name, h.Status, h.Message)
			}
		}
		if descs := set.Describe(); len(descs) != 2 || descs[0].Type != "process" {
			t.Errorf("unexpected descriptions: %+v", descs)
		}
	})

	for _, pid := range pids {
		if err := syscall.Kill(pid, 0); err != syscall.ESRCH {
			t.Errorf("expected pid %d to be gone after cleanup, kill(0) = %v", pid, err)
		}
	}
}

func TestSetStopsInReverse(t *testing.T) {
	set, err := fixture.NewSet(&fixture.Config{Daemons: []fixture.DaemonSpec{
		{Name: "a", Command: []string{"sleep", "3600"}},
		{Name: "b", Command: []string{"sleep", "3600"}},
	}})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	ctx := context.Background()
	if err := set.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := set.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if s := set.Daemon(name).State(); s != process.StateStopped {
			t.Errorf("expected %s stopped, got %s", name, s)
		}
	}
	if set.Daemon("missing") != nil {
		t.Error("expected nil for unknown fixture")
	}
}

func TestNewSetDuplicateName(t *testing.T) {
	_, err := fixture.NewSet(&fixture.Config{Daemons: []fixture.DaemonSpec{
		{Name: "a", Command: []string{"sleep", "1"}},
		{Name: "a", Command: []string{"sleep", "1"}},
	}})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestFixtureExitDuringStartupDelay(t *testing.T) {
	f := fixture.NewFixture(fixture.DaemonSpec{
		Name:         "crasher",
		Command:      []string{"false"},
		StartupDelay: 5 * time.Second,
	}, process.NewRunner(process.RunnerConfig{}))

	start := time.Now()
	err := f.Start(context.Background())
	if !errors.HasCode(err, errors.ErrCodeUnexpectedExit) {
		t.Fatalf("expected UNEXPECTED_EXIT, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("expected Start to return as soon as the daemon exited")
	}
}

func TestFixtureReadyTimeout(t *testing.T) {
	f := fixture.NewFixture(fixture.DaemonSpec{
		Name:          "never-ready",
		Command:       []string{"sleep", "3600"},
		Ready:         []string{"false"},
		ReadyTimeout:  200 * time.Millisecond,
		ReadyInterval: 20 * time.Millisecond,
	}, process.NewRunner(process.RunnerConfig{}))

	err := f.Start(context.Background())
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if s := f.Daemon().State(); s != process.StateStopped {
		t.Fatalf("expected daemon stopped by the failed Start, got %s", s)
	}
	if pid := f.Daemon().PID(); syscall.Kill(pid, 0) != syscall.ESRCH {
		t.Fatalf("expected pid %d to be gone", pid)
	}
}

func TestSetStopsDaemonThatNeverBecameReady(t *testing.T) {
	set, err := fixture.NewSet(&fixture.Config{Daemons: []fixture.DaemonSpec{
		{Name: "ok", Command: []string{"sleep", "3600"}},
		{
			Name:          "db",
			Command:       []string{"sleep", "3600"},
			Ready:         []string{"false"},
			ReadyTimeout:  200 * time.Millisecond,
			ReadyInterval: 20 * time.Millisecond,
		},
	}})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	ctx := context.Background()
	if err := set.Start(ctx); !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if err := set.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	for _, name := range []string{"ok", "db"} {
		d := set.Daemon(name)
		if d.State() != process.StateStopped {
			t.Errorf("expected %s stopped, got %s", name, d.State())
		}
		if pid := d.PID(); syscall.Kill(pid, 0) != syscall.ESRCH {
			t.Errorf("expected %s pid %d to be gone after Set.Stop", name, pid)
		}
	}
}

func TestFixtureStartCanceledStopsDaemon(t *testing.T) {
	f := fixture.NewFixture(fixture.DaemonSpec{
		Name:         "slow",
		Command:      []string{"sleep", "3600"},
		StartupDelay: 5 * time.Second,
	}, process.NewRunner(process.RunnerConfig{}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := f.Start(ctx); !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
	if s := f.Daemon().State(); s != process.StateStopped {
		t.Fatalf("expected daemon stopped, got %s", s)
	}
}

func TestHelperStartDaemon(t *testing.T) {
	d := process.NewDaemon([]string{"sleep", "3600"}, nil)
	t.Run("inner", func(t *testing.T) {
		fixture.T(t).StartDaemon(d)
		if d.State() != process.StateRunning {
			t.Fatalf("expected running, got %s", d.State())
		}
	})
	if d.State() != process.StateStopped {
		t.Fatalf("expected cleanup to stop the daemon, got %s", d.State())
	}
}
