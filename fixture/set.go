package fixture

import (
	"context"
	"fmt"

	"github.com/kbukum/prockit/component"
	"github.com/kbukum/prockit/config"
	"github.com/kbukum/prockit/process"
)

// Set is an ordered group of fixtures managed by a component.Registry.
type Set struct {
	registry *component.Registry
	fixtures map[string]*Fixture
}

// NewSet creates a fixture per daemon in cfg and registers them in order.
func NewSet(cfg *Config, opts ...component.RegistryOption) (*Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runner := process.NewRunner(cfg.Runner)
	s := &Set{
		registry: component.NewRegistry(opts...),
		fixtures: make(map[string]*Fixture, len(cfg.Daemons)),
	}
	for _, spec := range cfg.Daemons {
		f := NewFixture(spec, runner)
		if err := s.registry.Register(f); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", spec.Name, err)
		}
		s.fixtures[spec.Name] = f
	}
	return s, nil
}

// LoadSet loads the configuration named name and builds a Set from it.
func LoadSet(name string, opts ...config.LoaderOption) (*Set, error) {
	cfg, err := Load(name, opts...)
	if err != nil {
		return nil, err
	}
	return NewSet(cfg)
}

// Start starts every fixture in order.
func (s *Set) Start(ctx context.Context) error {
	return s.registry.StartAll(ctx)
}

// Stop stops started fixtures in reverse order.
func (s *Set) Stop(ctx context.Context) error {
	return s.registry.StopAll(ctx)
}

// Daemon returns the daemon of the named fixture, or nil.
func (s *Set) Daemon(name string) *process.Daemon {
	if f, ok := s.fixtures[name]; ok {
		return f.Daemon()
	}
	return nil
}

// Health reports every fixture's health in start order.
func (s *Set) Health(ctx context.Context) []component.Health {
	return s.registry.HealthAll(ctx)
}

// Describe reports every fixture in start order.
func (s *Set) Describe() []component.Description {
	return s.registry.DescribeAll()
}
