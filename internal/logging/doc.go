// Package logging provides leveled logging for the application.
//
// The log level is read once from the DEBUG and LOG_LEVEL environment
// variables and applies process-wide. Output goes through a slog handler
// with human-readable colorized formatting.
package logging
