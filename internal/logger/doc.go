// Package logger provides leveled logging for the flockretry CLI.
//
// It separates diagnostic messages (written to an optional log file via
// log/slog when debug logging is enabled) from user-facing messages
// (written to stderr, subject to quiet mode). The core flockretry library
// does not log; only the CLI front end uses this package.
package logger
