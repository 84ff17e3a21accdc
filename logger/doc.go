// Package logger provides structured logging for voicekit components
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.NewDefault("voicekit").WithComponent("capture")
//	log.Info("recording started", logger.Fields("path", path))
package logger
