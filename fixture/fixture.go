package fixture

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/prockit/component"
	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/logger"
	"github.com/kbukum/prockit/process"
)

// compile-time assertions
var (
	_ component.Component   = (*Fixture)(nil)
	_ component.Describable = (*Fixture)(nil)
)

// Fixture is a daemon plus the startup checks from its DaemonSpec.
type Fixture struct {
	spec   DaemonSpec
	daemon *process.Daemon
	runner *process.Runner
}

// NewFixture creates a fixture for spec. Readiness probes run through runner.
func NewFixture(spec DaemonSpec, runner *process.Runner) *Fixture {
	return &Fixture{
		spec:   spec,
		daemon: process.NewDaemon(spec.Command, spec.DaemonOptions()),
		runner: runner,
	}
}

// Name implements component.Component.
func (f *Fixture) Name() string { return f.spec.Name }

// Daemon returns the supervised daemon.
func (f *Fixture) Daemon() *process.Daemon { return f.daemon }

// Start launches the daemon, waits StartupDelay and probes Ready.
// A daemon that exits before it is ready fails Start with its latched error.
// Any startup failure stops the daemon before Start returns, because the
// registry never stops a component whose Start failed.
func (f *Fixture) Start(ctx context.Context) (err error) {
	if err := f.daemon.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = f.abort(ctx, err)
		}
	}()

	if f.spec.StartupDelay > 0 {
		timer := time.NewTimer(f.spec.StartupDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-f.daemon.Done():
			return f.daemon.Err()
		case <-ctx.Done():
			return errors.Canceled("startup of "+f.spec.Name, ctx.Err())
		}
	}

	if len(f.spec.Ready) > 0 {
		return f.waitReady(ctx)
	}
	return nil
}

// abort stops a daemon that failed its startup checks. The stop outlives a
// canceled ctx but is bounded by component.DefaultStopTimeout.
func (f *Fixture) abort(ctx context.Context, cause error) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), component.DefaultStopTimeout)
	defer cancel()

	stopErr := f.daemon.Stop(stopCtx)
	if stopErr == nil || stopErr == cause { //nolint:errorlint // the latched error is returned as is
		return cause
	}
	return stderrors.Join(cause, stopErr)
}

func (f *Fixture) waitReady(ctx context.Context) error {
	timeout := f.spec.ReadyTimeout
	if timeout == 0 {
		timeout = DefaultReadyTimeout
	}
	interval := f.spec.ReadyInterval
	if interval == 0 {
		interval = DefaultReadyInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := logger.Get("fixture").WithFields(logger.Fields(logger.FieldName, f.spec.Name))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		_, err := f.runner.Run(ctx, f.spec.Ready, nil)
		if err == nil {
			log.Debug("daemon ready", logger.Fields("attempts", attempt))
			return nil
		}
		if derr := f.daemon.Err(); derr != nil {
			return derr
		}

		select {
		case <-ticker.C:
		case <-f.daemon.Done():
			if derr := f.daemon.Err(); derr != nil {
				return derr
			}
			return errors.New(errors.ErrCodeUnexpectedExit, f.spec.Name+" exited before it was ready")
		case <-ctx.Done():
			return errors.Timeout("readiness of "+f.spec.Name, ctx.Err()).WithDetail("last_error", err.Error())
		}
	}
}

// Stop implements component.Component.
func (f *Fixture) Stop(ctx context.Context) error {
	return f.daemon.Stop(ctx)
}

// Health implements component.Component.
func (f *Fixture) Health(ctx context.Context) component.Health {
	return f.daemon.Health(ctx)
}

// Describe implements component.Describable.
func (f *Fixture) Describe() component.Description {
	return f.daemon.Describe()
}
