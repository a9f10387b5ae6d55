package flockretry

import (
	"fmt"
)

// OpenError reports that the lock file could not be opened or created
// (permissions, missing parent directory, invalid path). It is never the
// result of contention and Acquire does not retry it.
type OpenError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("flockretry: open lock file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the retry budget was exhausted while another
// holder kept the lock. Each retry waits about one second, so Seconds
// approximates the time spent waiting.
type TimeoutError struct {
	Path    string
	Seconds int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("flockretry: could not acquire lock on %s after %d second(s)", e.Path, e.Seconds)
}

// Timeout reports true, so the condition is detectable through timeout
// interfaces such as net.Error without depending on the concrete type.
func (e *TimeoutError) Timeout() bool {
	return true
}
