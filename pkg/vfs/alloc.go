package vfs

import (
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/hollowlog/vfscache/internal/logger"
	"github.com/hollowlog/vfscache/pkg/bufpool"
)

// SetMaxSize grows or shrinks an asset's reserved extent to maxSize bytes,
// creating the asset if it does not exist. The size is rounded up to the
// block granularity.
//
// Growth first tries to extend in place into an adjacent free block, which
// avoids a copy in the common append-to-a-streaming-asset case. Otherwise
// the asset relocates: its used bytes are copied into a fresh extent and
// the old extent is returned to the free list. When no free block is large
// enough the allocator evicts unlocked assets in LRU order; if eviction
// cannot make room, SetMaxSize returns false.
func (v *VFS) SetMaxSize(id uuid.UUID, t AssetType, maxSize int32) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("SetMaxSize") {
		return false
	}
	if v.readOnly {
		logger.Warn("attempt to resize asset on read-only store")
		return false
	}
	if maxSize <= 0 {
		logger.Warn("attempt to assign non-positive size to asset",
			logger.AssetID(id.String()), "max_size", maxSize)
		return false
	}

	spec := FileSpec{ID: id, Type: t}
	b := v.files[spec]

	// Round all reservations upward to block granularity.
	maxSize = roundToBlock(maxSize)

	if b != nil && b.length > 0 {
		b.touch()

		switch {
		case maxSize == b.length:
			return true

		case maxSize < b.length:
			// The asset is shrinking: split the tail off into a free
			// extent.
			v.free.add(b.location+uint32(maxSize), b.length-maxSize)
			b.length = maxSize

			if b.length < b.size {
				logger.Error("truncating asset to its new reservation",
					logger.AssetID(id.String()), logger.Length(b.length), logger.Size(b.size))
				b.size = b.length
			}

			v.sync(b, false)
			v.recordUsage()
			return true

		default:
			return v.growLocked(b, maxSize)
		}
	}

	// New asset, or a dummy record left behind by Remove.
	fb := v.findFreeBlock(maxSize, nil)
	if fb == nil {
		logger.Warn("no space for new asset",
			logger.AssetID(id.String()), "max_size", maxSize)
		v.logStatisticsLocked()
		return false
	}

	if b != nil {
		b.location = fb.location
		b.length = maxSize
	} else {
		b = newFileBlock(spec, fb.location, maxSize)
		v.files[spec] = b
	}

	v.free.use(fb, maxSize)
	b.touch()

	v.sync(b, false)
	v.recordUsage()
	return true
}

// growLocked extends a live asset to maxSize. The data mutex must be held.
func (v *VFS) growLocked(b *fileBlock, maxSize int32) bool {
	sizeIncrease := maxSize - b.length

	// First check for an adjacent free block to grow into: the free block
	// with the lowest location past ours must begin exactly at our end.
	if fb := v.free.nextAfter(b.location); fb != nil &&
		fb.location == b.location+uint32(b.length) &&
		fb.length >= sizeIncrease {
		v.free.use(fb, sizeIncrease)
		b.length += sizeIncrease
		v.sync(b, false)
		v.recordUsage()
		return true
	}

	// No adjacent free block: relocate. Eviction may run here, and the
	// asset being grown must survive it.
	if v.findFreeBlock(maxSize, b) == nil {
		logger.Warn("no space to resize asset",
			logger.AssetID(b.spec.ID.String()), "max_size", maxSize)
		v.logStatisticsLocked()
		return false
	}

	// Return the old extent to the free list before picking the target:
	// the freed extent may merge with the chosen block, which only gives
	// the copy a bigger home.
	oldLocation := b.location
	usedBytes := b.size
	v.free.add(b.location, b.length)

	fb := v.free.findAtLeast(maxSize)
	if fb == nil {
		// Cannot happen: we just enlarged the free list.
		logger.Error("free block vanished during relocation",
			logger.AssetID(b.spec.ID.String()), "max_size", maxSize)
		return false
	}
	newLocation := fb.location

	if usedBytes > 0 && newLocation != oldLocation {
		// Move the payload into the new extent.
		buf := bufpool.Get(int(usedBytes))
		if _, err := v.dataF.ReadAt(buf, int64(oldLocation)); err != nil {
			logger.Warn("relocation read failed",
				logger.AssetID(b.spec.ID.String()), logger.Err(err))
		}
		if _, err := v.dataF.WriteAt(buf, int64(newLocation)); err != nil {
			logger.Warn("relocation write failed",
				logger.AssetID(b.spec.ID.String()), logger.Err(err))
		}
		bufpool.Put(buf)
	}

	b.location = newLocation
	b.length = maxSize
	v.free.use(fb, maxSize)

	v.sync(b, false)
	v.recordUsage()
	return true
}

// findFreeBlock returns a free block of at least size bytes, evicting
// unlocked assets in LRU order when the free list cannot satisfy the
// request. The immune block is never evicted. Returns nil when eviction
// runs out of candidates. The data mutex must be held.
func (v *VFS) findFreeBlock(size int32, immune *fileBlock) *freeBlock {
	start := time.Now()

	var lru *btree.BTreeG[*fileBlock]
	evicted := 0
	var freedBytes int64

	defer func() {
		if elapsed := time.Since(start); elapsed >= 500*time.Millisecond {
			logger.Warn("slow free-block search",
				logger.DurationMs(logger.Duration(start)),
				"wanted", size,
				logger.Evicted(evicted))
		}
		if evicted > 0 {
			if v.metrics != nil {
				v.metrics.ObserveEviction(evicted, freedBytes, time.Since(start))
			}
			v.recordUsage()
		}
	}()

	for {
		if fb := v.free.findAtLeast(size); fb != nil {
			return fb
		}

		// No large enough free block: time to clean out some junk.
		if lru == nil {
			lru = btree.NewG(freeTreeDegree, func(a, b *fileBlock) bool {
				if a.accessTime != b.accessTime {
					return a.accessTime < b.accessTime
				}
				return a.spec.Less(b.spec)
			})
			for _, fb := range v.files {
				if fb != immune && fb.length > 0 && !fb.locked() {
					lru.ReplaceOrInsert(fb)
				}
			}
		}

		if lru.Len() == 0 {
			// No more assets to delete, and still not enough room.
			logger.Warn("cannot make space, giving up", "wanted", size)
			return nil
		}

		// Is the oldest asset big enough on its own? Should be about
		// half the time.
		head, _ := lru.Min()
		if head.length >= size && head != immune {
			logger.Info("evicting asset",
				logger.AssetID(head.spec.ID.String()),
				logger.AssetType(int(head.spec.Type)),
				logger.Length(head.length))
			lru.Delete(head)
			evicted++
			freedBytes += int64(head.length)
			v.removeFileBlockLocked(head)
			continue
		}

		// Aggressive mode: delete the oldest assets until the request can
		// be satisfied, up to the cleanup target or the request size,
		// whichever is larger. Freed fragments only help once merging
		// produces a large enough hole, so the sweep may over-free; the
		// space gets used up soon enough.
		logger.Info("aggressive eviction", "candidates", lru.Len(), "wanted", size)
		v.logLockCountsLocked()

		target := int64(cleanupTarget)
		if int64(size) > target {
			target = int64(size)
		}

		var cleaned int64
		for lru.Len() > 0 && cleaned < target && v.free.findAtLeast(size) == nil {
			fbk, _ := lru.Min()
			lru.Delete(fbk)
			cleaned += int64(fbk.length)
			freedBytes += int64(fbk.length)
			evicted++
			v.removeFileBlockLocked(fbk)
		}
	}
}
