package vfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hollowlog/vfscache/internal/logger"
	"github.com/hollowlog/vfscache/pkg/bufpool"
)

// The diagnostic verbs below are slow and chatty. They exist because they
// are the only mechanism by which subtle on-disk corruption gets
// investigated in the field; do not remove them.

// TypeStat aggregates per-asset-type usage.
type TypeStat struct {
	Count int
	Bytes int64
}

// Statistics summarizes store utilization for DumpStatistics.
type Statistics struct {
	FileCount    int
	InvalidCount int
	FreeCount    int

	TotalFileBytes int64
	TotalFreeBytes int64
	MaxFileBytes   int32
	MaxFreeBytes   int32

	TypeStats map[AssetType]TypeStat

	// PotentialMerges counts adjacent free extents, which invariantly
	// should be zero.
	PotentialMerges int

	// IndexesAgree is false when the by-location and by-length free
	// indexes disagree in size.
	IndexesAgree bool

	LockCounts [int(lockKindCount)]int64
}

// FullPercent returns store fullness as a percentage.
func (s Statistics) FullPercent() float64 {
	total := s.TotalFileBytes + s.TotalFreeBytes
	if total == 0 {
		return 0
	}
	return float64(s.TotalFileBytes) / float64(total) * 100
}

// Audit verifies that the index file contents match the in-memory
// directory. Very slow; do not call routinely.
//
// A duplicate record on disk marks the index corrupt: both files are
// closed and the store becomes invalid, so the damage gets no chance to
// spread. Any other mismatch is logged and audit continues.
func (v *VFS) Audit() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("Audit") {
		return ErrClosed
	}

	_ = v.indexF.Sync()

	indexBytes := int(v.indexSize)
	buf := bufpool.Get(indexBytes)
	defer bufpool.Put(buf)

	if indexBytes > 0 {
		if n, err := v.indexF.ReadAt(buf, 0); err != nil && !(err == io.EOF && n == indexBytes) {
			return fmt.Errorf("vfs: audit cannot read index: %w", err)
		}
	}

	found := make(map[FileSpec]*fileBlock)
	now := uint32(time.Now().Unix())

	for off := 0; off+recordSize <= indexBytes; off += recordSize {
		b := &fileBlock{}
		b.deserialize(buf[off:off+recordSize], int32(off))

		ok := b.length >= 0 &&
			b.size >= 0 &&
			b.size <= b.length &&
			b.spec.Type >= TypeNone &&
			b.spec.Type < TypeCount &&
			b.accessTime <= now &&
			b.spec.ID != uuid.Nil

		if !ok {
			if b.length != 0 {
				logger.Warn("audit: asset corrupt on disk",
					logger.AssetID(b.spec.ID.String()),
					logger.AssetType(int(b.spec.Type)),
					"index_loc", b.indexLocation)
			}
			// else this is just a hole
			continue
		}

		if _, inMem := v.files[b.spec]; !inMem {
			logger.Warn("audit: asset on disk, not in memory",
				logger.AssetID(b.spec.ID.String()),
				logger.AssetType(int(b.spec.Type)),
				"index_loc", b.indexLocation)
		} else if dupe, seen := found[b.spec]; seen {
			logger.Warn("audit: duplicate index records",
				logger.AssetID(b.spec.ID.String()),
				logger.AssetType(int(b.spec.Type)),
				"index_loc", b.indexLocation,
				"dupe_index_loc", dupe.indexLocation)
			logger.Warn("audit: index corrupt, closing store files")

			// Try to keep data from being lost: stop writing immediately.
			unlockAndClose(v.indexF)
			v.indexF = nil
			unlockAndClose(v.dataF)
			v.dataF = nil
			v.valid = false
			return fmt.Errorf("%w: duplicate index records for %s", ErrCorrupt, b.spec)
		} else {
			found[b.spec] = b
		}
	}

	for spec, mem := range v.files {
		if mem.size <= 0 {
			continue
		}
		if _, ok := found[spec]; !ok {
			logger.Warn("audit: asset in memory, not on disk",
				logger.AssetID(spec.ID.String()),
				logger.AssetType(int(spec.Type)),
				"index_loc", mem.indexLocation)

			// Show what actually lives in that slot.
			var rec [recordSize]byte
			if mem.indexLocation >= 0 {
				if _, err := v.indexF.ReadAt(rec[:], int64(mem.indexLocation)); err == nil {
					onDisk := &fileBlock{}
					onDisk.deserialize(rec[:], mem.indexLocation)
					logger.Warn("audit: slot instead holds",
						logger.AssetID(onDisk.spec.ID.String()),
						logger.AssetType(int(onDisk.spec.Type)))
				}
			}
			continue
		}
		delete(found, spec)
	}

	for spec, b := range found {
		logger.Warn("audit: leftover record on disk",
			logger.AssetID(spec.ID.String()),
			logger.AssetType(int(spec.Type)),
			logger.Size(b.size))
	}

	logger.Info("audit OK")
	return nil
}

// CheckMem is a quick check for inconsistent in-memory records: bad types,
// nil UUIDs, and live records whose index slot is also queued as a hole.
// Slow; do not call routinely.
func (v *VFS) CheckMem() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkValidLocked("CheckMem") {
		return false
	}

	holes := make(map[int32]bool, len(v.indexHoles))
	for _, h := range v.indexHoles {
		holes[h] = true
	}

	ok := true
	for spec, b := range v.files {
		if spec.Type < TypeNone || spec.Type >= TypeCount || spec.ID == uuid.Nil {
			logger.Error("check: bad asset record",
				logger.AssetID(spec.ID.String()),
				logger.AssetType(int(spec.Type)))
			ok = false
		}
		if b.length != lengthInvalid && b.indexLocation >= 0 && holes[b.indexLocation] {
			logger.Warn("check: live asset record is marked as a hole",
				logger.AssetID(spec.ID.String()),
				"index_loc", b.indexLocation)
			ok = false
		}
	}

	if ok {
		logger.Info("mem check OK")
	}
	return ok
}

// DumpMap logs every file block and free block.
func (v *VFS) DumpMap() {
	v.mu.Lock()
	defer v.mu.Unlock()

	logger.Info("files:")
	for spec, b := range v.files {
		logger.Info("file block",
			logger.Location(b.location),
			logger.Length(b.length),
			logger.AssetID(spec.ID.String()),
			logger.AssetType(int(spec.Type)))
	}

	logger.Info("free blocks:")
	v.free.ascendLocation(func(b *freeBlock) bool {
		logger.Info("free block", logger.Location(b.location), logger.Length(b.length))
		return true
	})
}

// DumpStatistics computes utilization statistics, logs a summary, and
// returns the numbers for programmatic use.
func (v *VFS) DumpStatistics() Statistics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logStatisticsLocked()
}

// logStatisticsLocked does the work of DumpStatistics. The data mutex must
// be held.
func (v *VFS) logStatisticsLocked() Statistics {
	stats := Statistics{
		TypeStats:  make(map[AssetType]TypeStat),
		LockCounts: v.lockCounts,
	}

	for _, b := range v.files {
		switch {
		case b.length == lengthInvalid:
			stats.InvalidCount++
		case b.length <= 0:
			logger.Info("bad file block",
				logger.Location(b.location),
				logger.Length(b.length),
				logger.AssetID(b.spec.ID.String()))
		default:
			stats.TotalFileBytes += int64(b.length)
		}

		if b.length > stats.MaxFileBytes {
			stats.MaxFileBytes = b.length
		}

		ts := stats.TypeStats[b.spec.Type]
		ts.Count++
		if b.length > 0 {
			ts.Bytes += int64(b.length)
		}
		stats.TypeStats[b.spec.Type] = ts
	}
	stats.FileCount = len(v.files)

	var prevEnd uint32
	first := true
	v.free.ascendLocation(func(b *freeBlock) bool {
		if b.length <= 0 {
			logger.Info("bad free block", logger.Location(b.location), logger.Length(b.length))
		} else {
			stats.TotalFreeBytes += int64(b.length)
		}
		if b.length > stats.MaxFreeBytes {
			stats.MaxFreeBytes = b.length
		}
		if !first && prevEnd == b.location {
			logger.Info("potential merge", logger.Location(b.location))
			stats.PotentialMerges++
		}
		prevEnd = b.end()
		first = false
		return true
	})

	stats.FreeCount = v.free.lenLocation()
	stats.IndexesAgree = v.free.lenLocation() == v.free.lenLength()
	if !stats.IndexesAgree {
		logger.Warn("free index sizes do not match",
			"by_location", v.free.lenLocation(),
			"by_length", v.free.lenLength())
	}

	logger.Info("store statistics",
		"invalid_blocks", stats.InvalidCount,
		"file_blocks", stats.FileCount,
		"free_blocks", stats.FreeCount,
		"max_file_kb", stats.MaxFileBytes/1024,
		"max_free_kb", stats.MaxFreeBytes/1024,
		"total_file_kb", stats.TotalFileBytes/1024,
		"total_free_kb", stats.TotalFreeBytes/1024,
		"full_percent", fmt.Sprintf("%.0f", stats.FullPercent()))

	return stats
}

// DumpLockCounts logs the global per-kind lock totals.
func (v *VFS) DumpLockCounts() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLockCountsLocked()
}

func (v *VFS) logLockCountsLocked() {
	for k := LockKind(0); k < lockKindCount; k++ {
		logger.Info("lock count", "lock_kind", k.String(), "count", v.lockCounts[k])
	}
}

// LockCount returns the global outstanding lock total for one kind.
func (v *VFS) LockCount(kind LockKind) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lockCounts[kind]
}

// DumpFiles writes every live asset's payload out to a host file named
// <uuid>.<ext> under dir, and returns how many files were written.
// Textures get a .jp2 extension so image viewers recognize them; everything
// else gets .data.
func (v *VFS) DumpFiles(dir string) (int, error) {
	type dumpEntry struct {
		spec FileSpec
		size int32
	}

	v.mu.Lock()
	if !v.checkValidLocked("DumpFiles") {
		v.mu.Unlock()
		return 0, ErrClosed
	}
	entries := make([]dumpEntry, 0, len(v.files))
	for spec, b := range v.files {
		if b.length != lengthInvalid && b.size > 0 {
			entries = append(entries, dumpEntry{spec: spec, size: b.size})
		}
	}
	v.mu.Unlock()

	written := 0
	for _, e := range entries {
		buf := bufpool.Get(int(e.size))
		n := v.GetData(e.spec.ID, e.spec.Type, buf, 0)

		ext := ".data"
		if e.spec.Type == TypeTexture {
			ext = ".jp2"
		}
		name := filepath.Join(dir, e.spec.ID.String()+ext)

		logger.Info("writing asset payload", "path", name, logger.Size(int32(n)))
		if err := os.WriteFile(name, buf[:n], 0644); err != nil {
			bufpool.Put(buf)
			return written, fmt.Errorf("vfs: dump %s: %w", e.spec, err)
		}
		bufpool.Put(buf)
		written++
	}

	return written, nil
}
