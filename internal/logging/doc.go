// Package logging assembles structured slog loggers and formatting helpers used
// across packline services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so service code can tag log
// lines with operation, batch, box, and piece identifiers. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
