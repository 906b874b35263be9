package process

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kelindar/event"

	"github.com/kbukum/prockit/component"
	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/logger"
	"github.com/kbukum/prockit/observability"
	"github.com/kbukum/prockit/validation"
)

// compile-time assertions
var (
	_ component.Component   = (*Daemon)(nil)
	_ component.Describable = (*Daemon)(nil)
)

// Daemon supervises one long-running child process with an explicit
// Start/Stop lifecycle.
//
// The first failure, whether a launch error or an exit nobody asked for, is
// latched and never overwritten. Once latched, Stop returns it instead of
// signalling the child. Failures are published to OnError subscribers only
// when DaemonOptions.EmitErrors is set.
//
// A Daemon cannot be restarted; create a new one.
type Daemon struct {
	id      string
	name    string
	command []string
	opts    DaemonOptions
	events  *event.Dispatcher
	log     *logger.Logger
	done    chan struct{}

	mu        sync.Mutex
	state     State
	cmd       *exec.Cmd
	err       error
	listening bool
	subs      []context.CancelFunc
	released  bool
}

// releaseDelay lets released subscribers drain queued events before the
// dispatcher stops waking them.
const releaseDelay = 100 * time.Millisecond

// NewDaemon prepares a daemon for command. Unless ShellEscape is false, each
// token is quoted individually. Without a Shell the first token is executed
// directly with the rest as its arguments; with a Shell the tokens are
// joined and passed to "<shell> -c". Nothing runs until Start.
func NewDaemon(command []string, opts *DaemonOptions) *Daemon {
	o := opts.withDefaults()

	tokens := append([]string(nil), command...)
	if o.escapeEnabled() {
		tokens = escapeTokens(tokens)
	}

	name := o.Name
	if name == "" && len(command) > 0 {
		name = filepath.Base(command[0])
	}

	id := uuid.NewString()
	return &Daemon{
		id:      id,
		name:    name,
		command: tokens,
		opts:    o,
		events:  event.NewDispatcher(),
		log: logger.Get("process").WithFields(logger.Fields(
			logger.FieldDaemonID, id,
			logger.FieldName, name,
		)),
		done: make(chan struct{}),
	}
}

// ID returns the daemon's unique identifier.
func (d *Daemon) ID() string { return d.id }

// Name implements component.Component.
func (d *Daemon) Name() string { return d.name }

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the latched error, if any.
func (d *Daemon) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// PID returns the child's process id, or 0 if it was never started.
func (d *Daemon) PID() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}

// Done is closed once the child has exited and been reaped, or when it
// failed to launch.
func (d *Daemon) Done() <-chan struct{} { return d.done }

// OnError subscribes fn to failure events and returns a function that
// unsubscribes it. Delivery is asynchronous.
//
// Subscriptions are released once the child has exited or failed to launch,
// since no failure can follow. Subscribing after that is a no-op; use Err.
func (d *Daemon) OnError(fn func(ErrorEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return func() {}
	}
	cancel := event.Subscribe(d.events, fn)
	d.subs = append(d.subs, cancel)
	return cancel
}

// Start launches the child. It may only be called once.
//
// A launch failure is latched, published when EmitErrors is set and
// returned. Once Start returns nil, any exit not caused by Stop is latched
// as UNEXPECTED_EXIT.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanDaemonStart)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrDaemonName, d.name)
	observability.SetSpanAttribute(ctx, observability.AttrDaemonID, d.id)

	if err := d.validate(); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}

	d.mu.Lock()
	if d.state != StateCreated {
		err := errors.InvalidState("start", d.state.String(), StateCreated.String())
		d.mu.Unlock()
		observability.SetSpanError(ctx, err)
		return err
	}

	c := d.newCmd()
	if err := c.Start(); err != nil {
		appErr := errors.LaunchFailed(d.command[0], err)
		d.latch(appErr)
		d.mu.Unlock()
		close(d.done)

		observability.SetSpanError(ctx, appErr)
		d.log.WithError(err).Warn("daemon failed to launch")
		d.fail(ctx, appErr)
		d.release()
		return appErr
	}

	d.cmd = c
	d.state = StateRunning
	d.listening = true
	d.mu.Unlock()

	go d.watch(c)

	pid := c.Process.Pid
	observability.SetSpanAttribute(ctx, observability.AttrPID, pid)
	if m := processMetrics(); m != nil {
		m.RecordDaemonStarted(ctx, d.name)
	}
	d.log.Debug("daemon started", logger.Fields(logger.FieldPID, pid))
	return nil
}

// Stop terminates the child with KillSignal and waits for it to exit.
//
// If a failure was latched, Stop returns it without signalling. ctx bounds
// the wait; on cancellation Stop returns CANCELED and may be called again.
func (d *Daemon) Stop(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanDaemonStop)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrDaemonName, d.name)
	observability.SetSpanAttribute(ctx, observability.AttrDaemonID, d.id)

	d.mu.Lock()
	switch d.state {
	case StateCreated, StateStopped:
		err := errors.InvalidState("stop", d.state.String(),
			StateRunning.String(), StateErrored.String(), StateStopping.String())
		d.mu.Unlock()
		observability.SetSpanError(ctx, err)
		return err
	}

	// Detach before signalling so the exit we cause is not reported.
	d.listening = false
	if d.err != nil {
		err := d.err
		d.state = StateStopped
		d.mu.Unlock()
		observability.SetSpanError(ctx, err)
		return err
	}
	d.state = StateStopping
	c := d.cmd
	d.mu.Unlock()

	sig, _ := ParseSignal(d.opts.KillSignal) // checked by Start
	if err := signalGroup(c.Process, sig); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		appErr := errors.SignalFailed(signalName(sig), err)
		observability.SetSpanError(ctx, appErr)
		return appErr
	}

	select {
	case <-d.done:
	case <-ctx.Done():
		err := errors.Canceled("stop", ctx.Err())
		observability.SetSpanError(ctx, err)
		return err
	}

	d.mu.Lock()
	d.state = StateStopped
	d.mu.Unlock()
	d.log.Debug("daemon stopped", logger.Fields(logger.FieldSignal, signalName(sig)))
	return nil
}

// Health implements component.Component.
func (d *Daemon) Health(_ context.Context) component.Health {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := component.Health{Name: d.name, Status: component.StatusUnhealthy}
	switch {
	case d.err != nil:
		h.Message = d.err.Error()
	case d.state == StateRunning:
		h.Status = component.StatusHealthy
	default:
		h.Message = "daemon is " + d.state.String()
	}
	return h
}

// Describe implements component.Describable.
func (d *Daemon) Describe() component.Description {
	return component.Description{
		Name:    d.name,
		Type:    "process",
		Details: strings.Join(d.command, " "),
	}
}

func (d *Daemon) validate() error {
	if len(d.command) == 0 || d.command[0] == "" {
		return errors.InvalidInput("command", "command must name a program")
	}
	if err := validation.Validate(d.opts); err != nil {
		return err
	}
	return d.opts.checkEnv()
}

func (d *Daemon) newCmd() *exec.Cmd {
	var c *exec.Cmd
	if d.opts.Shell != "" {
		c = exec.Command(d.opts.Shell, "-c", strings.Join(d.command, " ")) //nolint:gosec // running caller commands is the purpose of this package
	} else {
		c = exec.Command(d.command[0], d.command[1:]...) //nolint:gosec // running caller commands is the purpose of this package
	}
	configure(c, d.opts.Options)
	return c
}

// watch reaps the child and latches its exit as a failure unless Stop
// detached the listener first.
func (d *Daemon) watch(c *exec.Cmd) {
	waitErr := c.Wait()
	code, sig := exitStatus(c.ProcessState)

	var appErr *errors.AppError
	d.mu.Lock()
	if d.listening && d.err == nil {
		appErr = errors.UnexpectedExit(code, sig)
		var exitErr *exec.ExitError
		if waitErr != nil && !stderrors.As(waitErr, &exitErr) {
			appErr.WithCause(waitErr)
		}
		d.latch(appErr)
	}
	d.listening = false
	d.mu.Unlock()
	close(d.done)

	ctx := context.Background()
	if m := processMetrics(); m != nil {
		m.RecordDaemonExited(ctx, d.name)
	}
	if appErr == nil {
		d.log.Debug("daemon exited", logger.Fields(logger.FieldExitCode, code, logger.FieldSignal, sig))
	} else {
		d.log.Warn("daemon exited unexpectedly", logger.Fields(logger.FieldExitCode, code, logger.FieldSignal, sig))
		d.fail(ctx, appErr)
	}
	d.release()
}

// latch records err as the daemon's failure. First error wins.
// Callers hold d.mu.
func (d *Daemon) latch(err error) {
	if d.err != nil {
		return
	}
	d.err = err
	if d.state == StateRunning || d.state == StateCreated {
		d.state = StateErrored
	}
}

// fail records the failure metric and publishes err when EmitErrors is set.
func (d *Daemon) fail(ctx context.Context, err *errors.AppError) {
	if m := processMetrics(); m != nil {
		m.RecordDaemonFailure(ctx, d.name, string(err.Code))
	}
	if !d.opts.EmitErrors {
		return
	}
	event.Publish(d.events, ErrorEvent{
		DaemonID: d.id,
		Name:     d.name,
		Err:      err,
		Time:     time.Now(),
	})
}

// release unsubscribes every OnError handler and closes the dispatcher once
// the handlers had time to drain. Called once, after the last publish.
func (d *Daemon) release() {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.released = true
	d.mu.Unlock()

	for _, cancel := range subs {
		cancel()
	}
	time.AfterFunc(releaseDelay, func() {
		_ = d.events.Close()
	})
}
