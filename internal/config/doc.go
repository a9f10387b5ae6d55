// Package config manages configuration for the flockretry CLI.
//
// Settings are layered: built-in defaults, then FLOCKRETRY_* environment
// variables, then command-line flags, and finally Finalize, which
// validates the result and fills in derived defaults such as the log file
// location. The core flockretry library takes its options directly at the
// Acquire call and does not use this package.
package config
