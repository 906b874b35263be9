package process

import (
	"strings"
	"time"

	"github.com/kbukum/prockit/errors"
	"github.com/kbukum/prockit/util"
	"github.com/kbukum/prockit/validation"
)

const (
	// DefaultShell runs command lines when Options.Shell is empty.
	DefaultShell = "/bin/sh"
	// DefaultMaxBuffer bounds each captured stream of a command.
	DefaultMaxBuffer = 10 * 1024 * 1024
	// DefaultKillSignal terminates timed-out commands and stopped daemons.
	DefaultKillSignal = "SIGTERM"
	// DefaultGracePeriod is the delay between the kill signal and SIGKILL.
	DefaultGracePeriod = 5 * time.Second
)

// Options are shared by commands and daemons.
type Options struct {
	// ShellEscape quotes every argument before it reaches a shell.
	// Nil means true.
	ShellEscape *bool `yaml:"shell_escape,omitempty" mapstructure:"shell_escape"`
	// Shell is the shell used to interpret the command line.
	// Commands fall back to DefaultShell; daemons exec the program directly.
	Shell string `yaml:"shell,omitempty" mapstructure:"shell"`
	// Dir is the working directory. Empty uses the current directory.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir" validate:"omitempty,dir"`
	// Env is additional KEY=value pairs merged over os.Environ.
	Env []string `yaml:"env,omitempty" mapstructure:"env"`
	// UID runs the child as this user id.
	UID *uint32 `yaml:"uid,omitempty" mapstructure:"uid"`
	// GID runs the child with this group id.
	GID *uint32 `yaml:"gid,omitempty" mapstructure:"gid"`
}

func (o Options) escapeEnabled() bool {
	return util.DerefOr(o.ShellEscape, true)
}

func (o Options) checkEnv() error {
	for _, kv := range o.Env {
		if i := strings.IndexByte(kv, '='); i <= 0 {
			return errors.InvalidInput("env", "entries must be KEY=value, got "+kv)
		}
	}
	return nil
}

// CommandOptions configure a one-shot command.
type CommandOptions struct {
	Options `yaml:",inline" mapstructure:",squash"`

	// CheckError fails a cleanly exiting command that wrote to stderr.
	// Nil means true.
	CheckError *bool `yaml:"check_error,omitempty" mapstructure:"check_error"`
	// MaxBuffer bounds stdout and stderr each. Zero means DefaultMaxBuffer.
	MaxBuffer int `yaml:"max_buffer,omitempty" mapstructure:"max_buffer" validate:"gte=0"`
	// Encoding is the charset of the child's output, e.g. "latin1".
	// Empty or utf-8 leaves output untouched.
	Encoding string `yaml:"encoding,omitempty" mapstructure:"encoding"`
	// KillSignal is sent to the process group on timeout or cancellation.
	KillSignal string `yaml:"kill_signal,omitempty" mapstructure:"kill_signal" validate:"signal"`
	// Timeout kills the command after this long. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`
	// GracePeriod is how long to wait after KillSignal before SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period" validate:"gte=0"`
}

// withDefaults returns a copy of o with zero values filled in. A nil
// receiver yields the defaults.
func (o *CommandOptions) withDefaults() CommandOptions {
	var out CommandOptions
	if o != nil {
		out = *o
	}
	if out.MaxBuffer == 0 {
		out.MaxBuffer = DefaultMaxBuffer
	}
	if out.KillSignal == "" {
		out.KillSignal = DefaultKillSignal
	}
	if out.GracePeriod == 0 {
		out.GracePeriod = DefaultGracePeriod
	}
	if out.Shell == "" {
		out.Shell = DefaultShell
	}
	return out
}

func (o CommandOptions) checkError() bool {
	return util.DerefOr(o.CheckError, true)
}

func (o CommandOptions) validate(command []string) error {
	if len(command) == 0 || command[0] == "" {
		return errors.InvalidInput("command", "command must name a program")
	}
	if err := validation.Validate(o); err != nil {
		return err
	}
	if err := o.checkEnv(); err != nil {
		return err
	}
	if _, err := resolveDecoder(o.Encoding); err != nil {
		return err
	}
	return nil
}

// DaemonOptions configure a supervised long-running process.
type DaemonOptions struct {
	Options `yaml:",inline" mapstructure:",squash"`

	// EmitErrors publishes failures to OnError subscribers.
	EmitErrors bool `yaml:"emit_errors,omitempty" mapstructure:"emit_errors"`
	// KillSignal is sent to the process group by Stop.
	KillSignal string `yaml:"kill_signal,omitempty" mapstructure:"kill_signal" validate:"signal"`
	// Name identifies the daemon in logs and component registries.
	// Defaults to the program's base name.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
}

func (o *DaemonOptions) withDefaults() DaemonOptions {
	var out DaemonOptions
	if o != nil {
		out = *o
	}
	if out.KillSignal == "" {
		out.KillSignal = DefaultKillSignal
	}
	return out
}
