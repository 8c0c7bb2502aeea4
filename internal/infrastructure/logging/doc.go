// Package logging provides structured logging for wxuplink.
//
// It wraps Go's standard log/slog package so every component logs the
// same way: JSON in production, text for development, level filtering,
// and default service/version fields on every entry.
//
// Loggers are injected at construction; there is no global logger.
// Components narrow their logger with With:
//
//	workerLog := logger.With("destination", "cloud")
//	workerLog.Warn("delivery failed", "attempt", 2, "error", err)
//
// Never log secrets. API tokens must not appear in log output.
package logging
