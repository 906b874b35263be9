package process

import (
	"context"
	stderrors "errors"
	"os/exec"
	"time"

	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/logger"
	"github.com/kbukum/prockit/observability"
)

// Cmd runs command to completion through a shell and returns its stdout.
//
// Arguments are quoted for the shell unless ShellEscape is false. The call
// fails if the program cannot be launched, exits non-zero, exceeds
// MaxBuffer, times out, or (unless CheckError is false) writes anything to
// stderr. In the last case the error message is "command failed: <stderr>".
func Cmd(ctx context.Context, command []string, opts *CommandOptions) (string, error) {
	o := opts.withDefaults()

	res, err := Exec(ctx, command, &o)
	if err != nil {
		return "", err
	}

	dec, err := resolveDecoder(o.Encoding)
	if err != nil {
		return "", err
	}
	if o.checkError() && len(res.Stderr) > 0 {
		stderr, derr := decode(dec, res.Stderr)
		if derr != nil {
			return "", derr
		}
		return "", errors.StderrOutput(stderr)
	}
	return decode(dec, res.Stdout)
}

// Exec runs command to completion through a shell and returns the captured
// output. Unlike Cmd it does not inspect stderr, so a clean exit with stderr
// output succeeds. A failed run still returns the partial Result when the
// process was started.
//
// On timeout or cancellation the process group receives KillSignal, then
// SIGKILL after GracePeriod.
func Exec(ctx context.Context, command []string, opts *CommandOptions) (*Result, error) {
	o := opts.withDefaults()
	if err := o.validate(command); err != nil {
		return nil, err
	}
	sig, err := ParseSignal(o.KillSignal)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProcessRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrProgram, command[0])

	timeoutCtx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		timeoutCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	// abort fires when either stream overflows.
	runCtx, abort := context.WithCancel(timeoutCtx)
	defer abort()

	stdout := newLimitedBuffer(o.MaxBuffer, abort)
	stderr := newLimitedBuffer(o.MaxBuffer, abort)

	line := commandLine(command, o.escapeEnabled())
	c := exec.CommandContext(runCtx, o.Shell, "-c", line) //nolint:gosec // running caller commands is the purpose of this package
	configure(c, o.Options)
	c.Stdout = stdout
	c.Stderr = stderr

	// Don't let exec.CommandContext kill with SIGKILL immediately
	c.Cancel = func() error {
		return signalGroup(c.Process, sig)
	}
	c.WaitDelay = o.GracePeriod

	start := time.Now()
	runErr := c.Run()
	duration := time.Since(start)

	exitCode, signal := exitStatus(c.ProcessState)
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Signal:   signal,
		Duration: duration,
	}

	err = classify(ctx, timeoutCtx, runErr, result, o, stdout, stderr)

	status := "ok"
	if appErr, ok := errors.AsAppError(err); ok {
		status = string(appErr.Code)
	}
	observability.SetSpanAttribute(ctx, observability.AttrExitCode, exitCode)
	observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
	if m := processMetrics(); m != nil {
		m.RecordRun(ctx, command[0], status, duration)
	}

	fields := logger.DurationFields("run", duration)
	fields[logger.FieldProgram] = command[0]
	fields[logger.FieldExitCode] = exitCode
	fields[logger.FieldStatus] = status
	log := logger.Get("process")

	if err != nil {
		observability.SetSpanError(ctx, err)
		log.WithError(err).Debug("command failed", fields)
		if c.Process == nil {
			return nil, err
		}
		return result, err
	}
	if runErr != nil {
		fields["pipes"] = "closed after grace period"
	}
	log.Debug("command finished", fields)
	return result, nil
}

// classify maps the outcome of a run onto an AppError. Overflow wins over
// everything because the kill it triggers also produces an exit error.
func classify(
	parent, timeoutCtx context.Context,
	runErr error,
	result *Result,
	o CommandOptions,
	stdout, stderr *limitedBuffer,
) error {
	switch {
	case stdout.Exceeded():
		return errors.OutputLimit("stdout", o.MaxBuffer)
	case stderr.Exceeded():
		return errors.OutputLimit("stderr", o.MaxBuffer)
	case runErr == nil:
		return nil
	case parent.Err() != nil:
		return errors.Canceled("command", parent.Err()).WithDetail("exit_code", result.ExitCode)
	case stderrors.Is(timeoutCtx.Err(), context.DeadlineExceeded):
		return errors.Timeout("command", timeoutCtx.Err()).WithDetail("timeout", o.Timeout.String())
	case stderrors.Is(runErr, exec.ErrWaitDelay) && result.ExitCode == 0 && result.Signal == "":
		// The shell succeeded but a background child kept the pipes open
		// past GracePeriod. Output written so far is the result.
		return nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		return errors.NonZeroExit(result.ExitCode, string(result.Stderr), runErr)
	}
	return errors.LaunchFailed(o.Shell, runErr)
}
