package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/prockit/logger"
	"github.com/kbukum/prockit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, ci, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name, metric.WithInstrumentationVersion(version.Get()))
}

// ProcessMetrics holds the instruments recorded by the process package.
type ProcessMetrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	daemonActive    metric.Int64UpDownCounter
	daemonFailures  metric.Int64Counter
}

// NewProcessMetrics creates process instruments on the given meter.
func NewProcessMetrics(meter metric.Meter) (*ProcessMetrics, error) {
	runTotal, err := meter.Int64Counter("process.runs",
		metric.WithDescription("Total number of one-shot commands by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("process.run.duration",
		metric.WithDescription("Wall time of one-shot commands in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.run.duration histogram: %w", err)
	}

	daemonActive, err := meter.Int64UpDownCounter("process.daemon.active",
		metric.WithDescription("Number of supervised daemons currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.daemon.active gauge: %w", err)
	}

	daemonFailures, err := meter.Int64Counter("process.daemon.failures",
		metric.WithDescription("Daemon failures by error code: launch failures and exits without Stop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.daemon.failures counter: %w", err)
	}

	return &ProcessMetrics{
		runTotal:        runTotal,
		runDuration:     runDuration,
		daemonActive:    daemonActive,
		daemonFailures:  daemonFailures,
	}, nil
}

// RecordRun records a completed one-shot command.
func (m *ProcessMetrics) RecordRun(ctx context.Context, program, status string, duration time.Duration) {
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProgram, program),
		attribute.String(AttrStatus, status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrProgram, program),
	))
}

// RecordDaemonStarted increments the running daemon count.
func (m *ProcessMetrics) RecordDaemonStarted(ctx context.Context, name string) {
	m.daemonActive.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrDaemonName, name)))
}

// RecordDaemonExited decrements the running daemon count.
func (m *ProcessMetrics) RecordDaemonExited(ctx context.Context, name string) {
	m.daemonActive.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrDaemonName, name)))
}

// RecordDaemonFailure records a latched daemon failure by error code.
func (m *ProcessMetrics) RecordDaemonFailure(ctx context.Context, name, code string) {
	m.daemonFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDaemonName, name),
		attribute.String(AttrStatus, code),
	))
}
