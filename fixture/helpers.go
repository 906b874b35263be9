package fixture

import (
	"context"
	"testing"

	"github.com/kbukum/prockit/config"
	"github.com/kbukum/prockit/process"
)

// THelper provides testing.T integration for fixtures.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps a testing.TB to provide helper methods that register cleanup
// automatically.
//
//	func TestWithRedis(t *testing.T) {
//	    set := fixture.T(t).Load("fixtures")
//	    // daemons are stopped when the test ends
//	}
func T(t testing.TB) *THelper {
	return &THelper{
		t:   t,
		ctx: context.Background(),
	}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Start starts set and stops it when the test ends. Fixtures started
// before a failure are stopped as well.
func (h *THelper) Start(set *Set) {
	h.t.Helper()
	h.t.Cleanup(func() {
		if err := set.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop fixtures: %v", err)
		}
	})
	if err := set.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start fixtures: %v", err)
	}
}

// Load loads the named fixture configuration, starts it and registers
// cleanup.
func (h *THelper) Load(name string, opts ...config.LoaderOption) *Set {
	h.t.Helper()
	set, err := LoadSet(name, opts...)
	if err != nil {
		h.t.Fatalf("failed to load fixtures %s: %v", name, err)
	}
	h.Start(set)
	return set
}

// StartDaemon starts a single daemon and stops it when the test ends.
// A latched daemon failure fails the test at cleanup.
func (h *THelper) StartDaemon(d *process.Daemon) {
	h.t.Helper()
	if err := d.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start daemon %s: %v", d.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := d.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop daemon %s: %v", d.Name(), err)
		}
	})
}
