// Package fixture starts the external daemons a test suite depends on,
// described in configuration rather than code.
//
// A testdata/fixtures.yml such as
//
//	daemons:
//	  - name: sleeper
//	    command: [sleep, "3600"]
//	    startup_delay: 50ms
//
// is loaded with the config package (YAML, .env and environment overrides)
// and managed through a component.Registry:
//
//	func TestSomething(t *testing.T) {
//	    set := fixture.T(t).Load("fixtures")
//	    pid := set.Daemon("sleeper").PID()
//	    ...
//	}
package fixture
