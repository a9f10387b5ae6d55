// Command flockretry runs a command while holding an advisory file lock,
// in the tradition of flock(1) but with automatic retry while the lock is
// contended.
//
// Usage:
//
//	flockretry [flags] <lockfile> <command> [args...]
//
// The lock file is created if missing and removed again on release if it
// is still empty. While another process holds the lock, acquisition is
// retried roughly once per second up to -retries times before giving up.
//
// Flags:
//
//	-retries N    contended retries before giving up (~1 second each, default 60)
//	-shared       take a shared lock instead of an exclusive one
//	-quiet        hide warning messages
//	-debug        enable debug logging
//	-log-file     path to the debug log file
//	-version      print version information and exit
//
// Exit status: the command's own exit status if it ran; 1 on usage or
// setup errors; 2 if the lock could not be acquired within the retry
// budget.
//
// Settings may also be supplied via FLOCKRETRY_RETRIES, FLOCKRETRY_SHARED,
// FLOCKRETRY_QUIET, FLOCKRETRY_DEBUG and FLOCKRETRY_LOG_FILE; flags take
// precedence.
package main
