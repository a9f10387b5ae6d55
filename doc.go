// Package flockretry provides cooperative, cross-process mutual exclusion
// keyed by a filesystem path.
//
// A lock is an ordinary file plus an OS advisory lock (flock(2) on Unix,
// LockFileEx on Windows) held on an open descriptor for that file. While
// another process holds the lock, Acquire retries roughly once per second
// up to a configurable budget, so the retry count doubles as a timeout in
// seconds.
//
// # Core Components
//
// - Lock: a held lock; owns the open descriptor the advisory lock is bound to
// - Acquire: the retrying acquisition call
// - Options: WithRetries, Shared, WithOpenMode, WithPerm
//
// # Usage
//
// Basic usage pattern:
//
//	lock, err := flockretry.Acquire("/tmp/myapp.lock")
//	if err != nil {
//	    // *flockretry.OpenError: the file could not be opened at all
//	    // *flockretry.TimeoutError: another holder outlasted the retries
//	}
//	defer lock.Release()
//
//	// ... critical section ...
//
// A bounded wait with a shared lock:
//
//	lock, err := flockretry.Acquire(path, flockretry.WithRetries(5), flockretry.Shared())
//
// # Lock Files
//
// The lock file's content is irrelevant to the lock; it is typically left
// empty. On Release, a lock file that is still empty is removed so that
// locking does not litter the filesystem; a file the caller wrote to is
// kept as-is. Presence, absence and size of the file are the only
// "format" there is.
//
// # Race Handling
//
// Advisory locks bind to an inode, not a path. Between opening a path and
// locking the resulting descriptor, another process can unlink the path
// and create a new file under the same name; a naive implementation then
// holds a lock no other process can observe. Acquire stats the handle
// before locking and the path after locking, and restarts the attempt
// whenever the two identities differ or the path has vanished. These
// restarts are immediate and do not consume the retry budget; only
// genuine contention does.
//
// # Cleanup
//
// Release is idempotent and never fails; unlock and close errors during
// teardown are swallowed. A Lock that is abandoned without Release runs
// the same release protocol when the runtime collects it, but collection
// timing is not deterministic: treat that as a safety net, not as the
// release mechanism. Pair every Acquire with a deferred Release.
//
// # Caveats
//
// The lock is advisory: it binds only processes that also acquire it, and
// does not prevent raw reads or writes to the file. Arbitration between
// descriptors opened by the same process is delegated entirely to the OS
// primitive, which is a known weak point on some platforms. Filesystems
// without reliable advisory locking or stable (device, inode) identity,
// notably some network filesystems, are not supported targets.
package flockretry
