// Package logger provides structured logging using zerolog.
//
// Logging is quiet by default: the process package logs lifecycle events at
// debug level and failures at warn/error, so a host that never configures the
// logger only sees problems.
//
// # Configuration
//
//	logger:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("process")
//	log.Info("daemon started", logger.Fields("pid", 42))
package logger
