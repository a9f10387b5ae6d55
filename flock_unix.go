//go:build !windows

package flockretry

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes a non-blocking advisory lock on f via flock(2).
func lockFile(f *os.File, shared bool) error {
	how := unix.LOCK_EX
	if shared {
		how = unix.LOCK_SH
	}
	return unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
}

// unlockFile drops the advisory lock. Best-effort: the descriptor may no
// longer be valid during teardown.
func unlockFile(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// isWouldBlock reports whether err means the lock is currently held
// elsewhere. Checks both EWOULDBLOCK and EAGAIN: per the GNU libc manual,
// many older Unix systems kept these as distinct codes, and portable code
// should treat them the same.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}

// handleID returns the (device, inode) identity of the open handle, or
// ok=false if the handle cannot be stat'ed.
func handleID(f *os.File) (fileID, bool) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

// pathID returns the identity of whatever file is currently visible at
// path, or ok=false if the path no longer exists.
func pathID(path string) (fileID, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
