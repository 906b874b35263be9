package process

import (
	"context"
	"time"
)

// RunnerConfig holds defaults applied to every command a Runner executes.
// It is typically loaded with config.LoadConfig.
type RunnerConfig struct {
	// Name identifies this runner in logs.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// Shell interprets command lines. Empty means DefaultShell.
	Shell string `yaml:"shell,omitempty" mapstructure:"shell"`
	// Dir is the default working directory.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
	// Env is prepended to each command's own Env, so commands can override it.
	Env []string `yaml:"env,omitempty" mapstructure:"env"`
	// Timeout is the default execution timeout. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// GracePeriod is the default grace period between KillSignal and SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// MaxBuffer is the default output ceiling per stream.
	MaxBuffer int `yaml:"max_buffer,omitempty" mapstructure:"max_buffer"`
	// KillSignal is the default signal for timed-out commands.
	KillSignal string `yaml:"kill_signal,omitempty" mapstructure:"kill_signal"`
}

// Runner executes commands with a shared set of defaults.
type Runner struct {
	config RunnerConfig
}

// NewRunner creates a new runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{config: cfg}
}

// Run executes a command like Cmd, applying runner-level defaults.
func (r *Runner) Run(ctx context.Context, command []string, opts *CommandOptions) (string, error) {
	o := r.apply(opts)
	return Cmd(ctx, command, &o)
}

// Exec executes a command like Exec, applying runner-level defaults.
func (r *Runner) Exec(ctx context.Context, command []string, opts *CommandOptions) (*Result, error) {
	o := r.apply(opts)
	return Exec(ctx, command, &o)
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return r.config.Name
}

// apply fills fields left zero in opts from the runner config.
func (r *Runner) apply(opts *CommandOptions) CommandOptions {
	var o CommandOptions
	if opts != nil {
		o = *opts
	}
	if o.Shell == "" {
		o.Shell = r.config.Shell
	}
	if o.Dir == "" {
		o.Dir = r.config.Dir
	}
	if len(r.config.Env) > 0 {
		o.Env = append(append([]string{}, r.config.Env...), o.Env...)
	}
	if o.Timeout == 0 {
		o.Timeout = r.config.Timeout
	}
	if o.GracePeriod == 0 {
		o.GracePeriod = r.config.GracePeriod
	}
	if o.MaxBuffer == 0 {
		o.MaxBuffer = r.config.MaxBuffer
	}
	if o.KillSignal == "" {
		o.KillSignal = r.config.KillSignal
	}
	return o
}
