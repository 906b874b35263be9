package fixture

import (
	"time"

	"github.com/kbukum/prockit/config"
	"github.com/kbukum/prockit/process"
	"github.com/kbukum/prockit/validation"
)

const (
	// DefaultReadyTimeout bounds the readiness probe loop.
	DefaultReadyTimeout = 10 * time.Second
	// DefaultReadyInterval is the pause between readiness probes.
	DefaultReadyInterval = 100 * time.Millisecond
)

// Config describes the daemons a test suite needs.
//
//	runner:
//	  timeout: 2s
//	daemons:
//	  - name: redis
//	    command: [redis-server, --port, "6390"]
//	    ready: [redis-cli, -p, "6390", ping]
type Config struct {
	// Runner configures the commands used as readiness probes.
	Runner process.RunnerConfig `yaml:"runner" mapstructure:"runner"`
	// Daemons are started in order and stopped in reverse.
	Daemons []DaemonSpec `yaml:"daemons" mapstructure:"daemons" validate:"dive"`
}

// DaemonSpec is the configuration of one supervised daemon.
type DaemonSpec struct {
	Name        string   `yaml:"name" mapstructure:"name" validate:"required"`
	Command     []string `yaml:"command" mapstructure:"command" validate:"min=1"`
	Dir         string   `yaml:"dir,omitempty" mapstructure:"dir" validate:"omitempty,dir"`
	Env         []string `yaml:"env,omitempty" mapstructure:"env"`
	Shell       string   `yaml:"shell,omitempty" mapstructure:"shell"`
	ShellEscape *bool    `yaml:"shell_escape,omitempty" mapstructure:"shell_escape"`
	KillSignal  string   `yaml:"kill_signal,omitempty" mapstructure:"kill_signal" validate:"signal"`
	EmitErrors  bool     `yaml:"emit_errors,omitempty" mapstructure:"emit_errors"`

	// StartupDelay is waited after launch; a daemon that exits during it
	// fails Start.
	StartupDelay time.Duration `yaml:"startup_delay,omitempty" mapstructure:"startup_delay" validate:"gte=0"`
	// Ready is a command probed until it succeeds, e.g. [pg_isready, -p, "5433"].
	Ready []string `yaml:"ready,omitempty" mapstructure:"ready"`
	// ReadyTimeout bounds the probe loop. Zero means DefaultReadyTimeout.
	ReadyTimeout time.Duration `yaml:"ready_timeout,omitempty" mapstructure:"ready_timeout" validate:"gte=0"`
	// ReadyInterval is the pause between probes. Zero means DefaultReadyInterval.
	ReadyInterval time.Duration `yaml:"ready_interval,omitempty" mapstructure:"ready_interval" validate:"gte=0"`
}

// DaemonOptions converts s into options for process.NewDaemon.
func (s DaemonSpec) DaemonOptions() *process.DaemonOptions {
	return &process.DaemonOptions{
		Options: process.Options{
			ShellEscape: s.ShellEscape,
			Shell:       s.Shell,
			Dir:         s.Dir,
			Env:         s.Env,
		},
		EmitErrors: s.EmitErrors,
		KillSignal: s.KillSignal,
		Name:       s.Name,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Load reads the fixture configuration named name (e.g. "fixtures" finds
// testdata/fixtures.yml) and validates it.
func Load(name string, opts ...config.LoaderOption) (*Config, error) {
	var cfg Config
	if err := config.LoadConfig(name, &cfg, opts...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
