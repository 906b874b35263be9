// Package process runs external programs from Go code.
//
// Cmd runs a command to completion through a shell and returns its stdout:
//
//	out, err := process.Cmd(ctx, []string{"ls", "-d", "/"}, nil)
//	// out == "/\n"
//
// Arguments are shell-quoted by default, so metacharacters such as "*" reach
// the program literally. A clean exit that wrote to stderr is treated as a
// failure unless CheckError is false.
//
// Daemon supervises a long-running child such as a database server used by
// a test suite:
//
//	d := process.NewDaemon([]string{"redis-server", "--port", "6390"},
//		&process.DaemonOptions{EmitErrors: true})
//	unsubscribe := d.OnError(func(e process.ErrorEvent) { log.Print(e.Err) })
//	defer unsubscribe()
//	if err := d.Start(ctx); err != nil { ... }
//	defer d.Stop(ctx)
//
// Every child leads its own process group; timeouts, cancellation and Stop
// signal the whole group. All failures are *errors.AppError values whose
// Code identifies the failure and whose Cause keeps the native error.
package process
