// Package logger provides structured logging for guardkit using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, guard-scoped loggers with structured fields, and
// correlation-ID propagation through context.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithGuard("payments-circuit")
//	log.Warn("breaker opened", logger.Fields(logger.FieldState, "open"))
package logger
