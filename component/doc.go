// Package component defines the lifecycle interface shared by supervised
// resources and a Registry that starts them in order and stops them in
// reverse.
//
// process.Daemon implements Component, so a set of daemons needed by a test
// suite can be managed as one unit:
//
//	reg := component.NewRegistry()
//	_ = reg.Register(process.NewDaemon([]string{"postgres", "-D", dir}, nil))
//	_ = reg.Register(process.NewDaemon([]string{"redis-server"}, nil))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(ctx)
package component
