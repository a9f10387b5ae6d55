package flockretry

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

const (
	// DefaultRetries is the number of contended retries Acquire performs
	// before giving up. Each retry waits about one second, so the default
	// approximates a 60 second timeout.
	DefaultRetries = 60

	// DefaultPerm is the permission used when Acquire creates the lock file.
	DefaultPerm os.FileMode = 0644
)

// retryInterval is the pause between contended lock attempts. Package
// variable so tests can compress wall-clock time.
var retryInterval = time.Second

// Lock is an advisory file lock on a path, held via an open descriptor.
// A Lock either owns exactly one open, locked descriptor or owns none
// (after Release); there is no in-between state.
//
// A Lock is not safe for concurrent use by multiple goroutines.
type Lock struct {
	path     string
	retries  int
	shared   bool
	openMode int
	perm     os.FileMode

	res     *resource
	cleanup runtime.Cleanup
}

// resource is the owned half of a held lock: the open descriptor the
// advisory lock is bound to. It is a separate allocation from Lock so the
// end-of-life cleanup can reference it without keeping the Lock reachable.
type resource struct {
	path     string
	file     *os.File
	acquired bool
}

// Option configures an Acquire call.
type Option func(*Lock)

// WithRetries sets how many contended retries Acquire performs before
// failing with a *TimeoutError. Each retry waits about one second, so n
// approximates a timeout in seconds. Negative values are ignored.
func WithRetries(n int) Option {
	return func(l *Lock) {
		if n >= 0 {
			l.retries = n
		}
	}
}

// Shared requests a shared lock instead of the default exclusive one.
// Any number of shared holders may coexist; none may coexist with an
// exclusive holder.
func Shared() Option {
	return func(l *Lock) { l.shared = true }
}

// WithOpenMode overrides the flags passed to os.OpenFile when opening the
// lock file. The default is os.O_CREATE|os.O_RDWR.
func WithOpenMode(mode int) Option {
	return func(l *Lock) { l.openMode = mode }
}

// WithPerm overrides the permission used when the lock file is created.
func WithPerm(perm os.FileMode) Option {
	return func(l *Lock) { l.perm = perm }
}

// Acquire opens (creating if necessary) the file at path and takes an
// advisory lock on it, retrying roughly once per second while another
// process holds the lock. It returns a held Lock, a *OpenError if the
// file cannot be opened, or a *TimeoutError once the retry budget is
// exhausted.
//
// Release the returned Lock with Release, typically via defer. As a
// safety net an abandoned Lock releases itself when the runtime collects
// it, but that timing is not deterministic and must not be relied on.
func Acquire(path string, opts ...Option) (*Lock, error) {
	l := &Lock{
		path:     path,
		retries:  DefaultRetries,
		openMode: os.O_CREATE | os.O_RDWR,
		perm:     DefaultPerm,
	}
	for _, opt := range opts {
		opt(l)
	}

	res, err := acquire(l.path, l.shared, l.retries, l.openMode, l.perm)
	if err != nil {
		return nil, err
	}

	l.res = res
	l.cleanup = runtime.AddCleanup(l, releaseResource, res)
	return l, nil
}

// acquire runs the lock attempt loop. Two kinds of retry are kept
// strictly apart: contention (another holder; counted against retries,
// with a sleep) and unlink/recreate races (uncounted, immediate restart).
func acquire(path string, shared bool, retries, openMode int, perm os.FileMode) (*resource, error) {
	tries := 0
	for {
		f, err := os.OpenFile(path, openMode, perm)
		if err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}

		// flock-style locks bind to an inode, not a path. If another
		// process unlinks the path and recreates it while we are between
		// open and lock, we end up locking an orphaned inode that no new
		// opener can see. The identity snapshots on either side of the
		// lock call detect that.
		pre, ok := handleID(f)
		if !ok {
			// Unlinked between open and stat. Not contention: start over
			// immediately without charging the retry budget.
			_ = f.Close()
			continue
		}

		if err := lockFile(f, shared); err != nil {
			_ = f.Close()
			if !isWouldBlock(err) {
				return nil, fmt.Errorf("flockretry: lock %s: %w", path, err)
			}
			tries++
			if tries > retries {
				return nil, &TimeoutError{Path: path, Seconds: retries}
			}
			time.Sleep(retryInterval)
			continue
		}

		if post, ok := pathID(path); !ok || post != pre {
			// The path was unlinked (and possibly recreated) while we
			// were locking, so the lock is bound to a stale inode.
			// Uncounted restart, same as the pre-lock race.
			unlockFile(f)
			_ = f.Close()
			continue
		}

		return &resource{path: path, file: f, acquired: true}, nil
	}
}

// Release unlocks and closes the lock. If this Lock performed the
// acquisition and the lock file is still empty, the file is removed
// first. Release is idempotent; calling it on an already released Lock
// does nothing. It never fails: teardown errors are swallowed, since
// Release commonly runs during cleanup where they are not actionable.
func (l *Lock) Release() {
	if l.res == nil {
		return
	}
	releaseResource(l.res)
	l.res = nil
	l.cleanup.Stop()
}

// releaseResource runs the release protocol. It is also the registered
// end-of-life cleanup for abandoned locks.
func releaseResource(res *resource) {
	if res.file == nil {
		return
	}

	// Remove an empty lock file before unlocking, not after: once the
	// lock drops, a waiter could acquire the inode we are about to
	// unlink and then find its lock file gone. Removing while still
	// locked is safe because readers synchronize via the lock itself.
	// A non-empty file was written to on purpose and is kept.
	if res.acquired {
		if st, err := os.Stat(res.path); err == nil && st.Size() == 0 {
			_ = os.Remove(res.path)
		}
	}

	// The descriptor may already be in a bad state by the time teardown
	// runs; unlock and close errors are deliberately swallowed.
	unlockFile(res.file)
	_ = res.file.Close()
	res.file = nil
	res.acquired = false
}

// Handle returns the open file the advisory lock is held on, for callers
// that need the raw descriptor. It returns nil when the lock is not
// currently held. The file remains owned by the Lock; do not close it.
func (l *Lock) Handle() *os.File {
	if l.res == nil {
		return nil
	}
	return l.res.file
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// fileID identifies a file object independently of its path. Two
// identical fileIDs refer to the same underlying file.
type fileID struct {
	dev uint64
	ino uint64
}
