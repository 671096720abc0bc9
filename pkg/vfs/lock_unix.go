//go:build !windows

package vfs

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile places an advisory lock on the open file: shared for read-only
// openers (deny-write), exclusive for the writer (deny-read-write). The
// lock is non-blocking; a held lock means another process owns the store.
func lockFile(f *os.File, shared bool) error {
	how := unix.LOCK_EX
	if shared {
		how = unix.LOCK_SH
	}
	return unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
}

// unlockFile releases the advisory lock. Closing the descriptor also drops
// the lock, but an explicit unlock from a forked child can kill the
// parent's lock, so callers rely on close alone during normal shutdown.
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
