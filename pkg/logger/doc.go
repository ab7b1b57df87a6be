// Package logger builds configured log/slog loggers with consistent defaults
// across environments: JSON output at info level for production, text output
// at debug level for development. Helper attribute constructors keep log
// field names uniform across the codebase.
package logger
