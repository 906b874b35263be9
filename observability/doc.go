// Package observability provides OpenTelemetry tracing and metrics for
// process execution.
//
// The process package always records through the global otel providers, which
// are no-ops until the host installs real ones:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-tests"))
//	defer tp.Shutdown(ctx)
//
//	cfg := observability.DefaultMeterConfig("my-tests")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
// Recorded spans: process.run, process.daemon.start, process.daemon.stop.
// Recorded instruments: process.runs, process.run.duration,
// process.daemon.active, process.daemon.failures.
package observability
