// Package version reports the prockit version used as the OpenTelemetry
// instrumentation version.
//
//	go build -ldflags "-X github.com/kbukum/prockit/version.Version=v1.0.0"
package version
