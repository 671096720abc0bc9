package vfs

import (
	"github.com/google/uuid"

	"github.com/hollowlog/vfscache/internal/logger"
)

// Exists reports whether an asset with a live extent is present. The
// lookup refreshes the asset's access time.
func (v *VFS) Exists(id uuid.UUID, t AssetType) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("Exists") {
		return false
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b != nil {
		b.touch()
	}
	return b != nil && b.length > 0
}

// Size returns the asset's used byte count, or 0 if absent. The lookup
// refreshes the asset's access time.
func (v *VFS) Size(id uuid.UUID, t AssetType) int32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("Size") {
		return 0
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b == nil {
		return 0
	}
	b.touch()
	return b.size
}

// MaxSize returns the asset's reserved extent length, or 0 if absent. The
// lookup refreshes the asset's access time.
func (v *VFS) MaxSize(id uuid.UUID, t AssetType) int32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("MaxSize") {
		return 0
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b == nil {
		return 0
	}
	b.touch()
	return b.length
}

// CheckAvailable reports whether a single free block of at least maxSize
// bytes exists right now, without evicting anything.
func (v *VFS) CheckAvailable(maxSize int32) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("CheckAvailable") {
		return false
	}

	return v.free.checkAvailable(roundToBlock(maxSize))
}

// Rename moves an asset under a new (id, type) key, preserving the
// source's lock counters. Anything already stored at the target key is
// removed first; renaming onto a target that holds locks is a fatal error,
// because the lock holders' view of that key would silently change.
func (v *VFS) Rename(id uuid.UUID, t AssetType, newID uuid.UUID, newType AssetType) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("Rename") {
		return
	}
	if v.readOnly {
		logger.Warn("attempt to rename on read-only store")
		return
	}

	oldSpec := FileSpec{ID: id, Type: t}
	newSpec := FileSpec{ID: newID, Type: newType}

	src := v.files[oldSpec]
	if src == nil {
		logger.Warn("attempt to rename nonexistent asset",
			logger.AssetID(id.String()), logger.AssetType(int(t)))
		return
	}

	// Purge the target's data but keep its record in place, with locks,
	// so we can see whether anyone still holds it.
	if dst := v.files[newSpec]; dst != nil {
		v.removeFileBlockLocked(dst)
	}
	if dst := v.files[newSpec]; dst != nil {
		if dst.locked() {
			panic("vfs: renaming onto a locked asset")
		}
		delete(v.files, newSpec)
	}

	src.spec = newSpec
	src.touch()

	delete(v.files, oldSpec)
	v.files[newSpec] = src

	v.sync(src, false)
}

// Remove frees the asset's extent. The in-memory record is converted to an
// invalid-length dummy that retains its lock counters, so in-flight lock
// holders stay consistent; removing an asset whose length is already
// invalid destroys the record outright.
func (v *VFS) Remove(id uuid.UUID, t AssetType) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("Remove") {
		return
	}
	if v.readOnly {
		logger.Warn("attempt to remove on read-only store")
		return
	}

	spec := FileSpec{ID: id, Type: t}
	b := v.files[spec]
	if b == nil {
		logger.Warn("attempt to remove nonexistent asset",
			logger.AssetID(id.String()), logger.AssetType(int(t)))
		return
	}

	if b.length == lengthInvalid {
		delete(v.files, spec)
		return
	}

	v.removeFileBlockLocked(b)
	v.recordUsage()
}

// removeFileBlockLocked converts a block into an unsaved dummy, freeing its
// extent and zeroing its on-disk record. Locks are preserved. The data
// mutex must be held.
func (v *VFS) removeFileBlockLocked(b *fileBlock) {
	v.sync(b, true)

	if b.length > 0 {
		v.free.add(b.location, b.length)
	}

	b.location = 0
	b.size = 0
	b.length = lengthInvalid
	b.indexLocation = -1
}

// IncLock increments the asset's lock counter of the given kind, creating
// an unsaved dummy record if the asset does not exist yet. Locked assets
// are exempt from eviction.
func (v *VFS) IncLock(id uuid.UUID, t AssetType, kind LockKind) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("IncLock") {
		return
	}

	spec := FileSpec{ID: id, Type: t}
	b := v.files[spec]
	if b == nil {
		// Dummy record, holds the lock but is never saved.
		b = newFileBlock(spec, 0, lengthInvalid)
		v.files[spec] = b
	}

	b.locks[kind]++
	v.lockCounts[kind]++
}

// DecLock decrements the asset's lock counter of the given kind.
// Decrementing a zero counter is a warning, not a crash.
func (v *VFS) DecLock(id uuid.UUID, t AssetType, kind LockKind) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("DecLock") {
		return
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b == nil {
		return
	}

	if b.locks[kind] > 0 {
		b.locks[kind]--
	} else {
		logger.Warn("decrementing zero-value lock",
			logger.AssetID(id.String()), "lock_kind", kind.String())
	}
	v.lockCounts[kind]--
}

// IsLocked reports whether the asset holds any lock of the given kind.
func (v *VFS) IsLocked(id uuid.UUID, t AssetType, kind LockKind) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("IsLocked") {
		return false
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	return b != nil && b.locks[kind] > 0
}
