// Package logging assembles the slog loggers used by the engine and its tools.
//
// It owns the console/JSON handler choice and level parsing, and provides
// a no-op logger for library code that was given no logger.
package logging
