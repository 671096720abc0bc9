//go:build windows

package vfs

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockFile places a lock on the open file via LockFileEx: shared for
// read-only openers, exclusive for the writer. Non-blocking; a held lock
// means another process owns the store.
func lockFile(f *os.File, shared bool) error {
	var flags uint32 = windows.LOCKFILE_FAIL_IMMEDIATELY
	if !shared {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, ^uint32(0), ^uint32(0), ol)
}

// unlockFile releases the lock placed by lockFile.
func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, ^uint32(0), ^uint32(0), ol)
}
