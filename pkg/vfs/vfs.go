package vfs

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/hollowlog/vfscache/internal/logger"
	"github.com/hollowlog/vfscache/pkg/bufpool"
)

// Options configures Open.
type Options struct {
	// ReadOnly opens the store as a second, read-only opener. The store
	// files must already exist.
	ReadOnly bool

	// Presize is the initial data file size in bytes when the data file
	// is created fresh. Zero leaves the file empty and treats it as one
	// free extent of DefaultPresize.
	Presize uint32

	// RemoveAfterCrash enables the crash-marker policy: a marker file is
	// created on open and removed on clean close; if the marker is found
	// on open, both store files are deleted and recreated blank.
	RemoveAfterCrash bool

	// Metrics receives operation observations. May be nil.
	Metrics StoreMetrics
}

// VFS is the embedded asset store. All exported methods are safe for
// concurrent use. A single mutex guards the in-memory state; payload I/O
// runs with the mutex released.
type VFS struct {
	mu sync.Mutex

	files map[FileSpec]*fileBlock
	free  *freeList

	// indexHoles are offsets of zeroed, reusable records in the index
	// file. The index file never shrinks; removal zero-fills the slot.
	indexHoles []int32
	indexSize  int32

	dataF  *os.File
	indexF *os.File

	dataPath  string
	indexPath string
	dataSize  uint32

	readOnly         bool
	removeAfterCrash bool
	valid            bool

	// lockCounts are global per-kind totals, kept for diagnostics.
	lockCounts [lockKindCount]int64

	metrics StoreMetrics
}

// Open opens or creates the store backed by the given index and data files.
//
// The data file is taken with a platform lock: shared for a read-only
// opener, exclusive for the writer. If the writer cannot open the canonical
// data file it tries up to 256 numbered siblings (name.0 ... name.255)
// before giving up.
//
// Errors map to the open status codes: ErrCannotOpenReadOnly,
// ErrCannotCreate, and ErrCorrupt. After ErrCorrupt both files have been
// deleted; a second Open yields a blank store.
func Open(indexPath, dataPath string, opts Options) (*VFS, error) {
	v := &VFS{
		files:            make(map[FileSpec]*fileBlock),
		free:             newFreeList(),
		dataPath:         dataPath,
		indexPath:        indexPath,
		readOnly:         opts.ReadOnly,
		removeAfterCrash: opts.RemoveAfterCrash,
		metrics:          opts.Metrics,
	}

	f, err := openAndLock(dataPath, v.readOnly)
	if err != nil {
		if v.readOnly {
			logger.Warn("cannot find data file for read-only store", logger.DataFile(dataPath))
			return nil, fmt.Errorf("%w: %s", ErrCannotOpenReadOnly, dataPath)
		}

		if f, err = createAndLock(dataPath); err == nil {
			// We are creating the data file, so any existing index is
			// bogus; remove it and start blank.
			_ = os.Remove(indexPath)
		} else {
			logger.Warn("cannot open data file, trying alternates", logger.DataFile(dataPath), logger.Err(err))

			f = nil
			for i := 0; i < maxAlternates; i++ {
				altIndex := fmt.Sprintf("%s.%d", indexPath, i)
				altData := fmt.Sprintf("%s.%d", dataPath, i)

				if af, aerr := openAndLock(altData, false); aerr == nil {
					f, v.indexPath, v.dataPath = af, altIndex, altData
					break
				}
				if af, aerr := createAndLock(altData); aerr == nil {
					// We are creating this alternate, so nuke its index.
					_ = os.Remove(altIndex)
					f, v.indexPath, v.dataPath = af, altIndex, altData
					break
				}
			}
			if f == nil {
				logger.Warn("could not open data file after trying all alternates", logger.DataFile(dataPath))
				return nil, fmt.Errorf("%w: %s", ErrCannotCreate, dataPath)
			}
		}

		if opts.Presize > 0 {
			v.presizeDataFile(f, opts.Presize)
		}
	}
	v.dataF = f

	// Did we leave the store open for writing last time? If so, the
	// previous run crashed: throw the files away and start over.
	if !v.readOnly && v.removeAfterCrash {
		if _, serr := os.Stat(v.markerPath()); serr == nil {
			logger.Warn("store left open on last run, removing old files", logger.DataFile(v.dataPath))

			unlockAndClose(v.dataF)
			v.dataF = nil
			_ = os.Remove(v.indexPath)
			_ = os.Remove(v.dataPath)
			_ = os.Remove(v.markerPath())

			f, err = createAndLock(v.dataPath)
			if err != nil {
				logger.Warn("cannot recreate data file in crash recovery", logger.DataFile(v.dataPath), logger.Err(err))
				return nil, fmt.Errorf("%w: %s", ErrCannotCreate, v.dataPath)
			}
			v.dataF = f
			if opts.Presize > 0 {
				v.presizeDataFile(f, opts.Presize)
			}
		}
	}

	end, err := v.dataF.Seek(0, io.SeekEnd)
	if err != nil {
		unlockAndClose(v.dataF)
		return nil, fmt.Errorf("vfs: cannot size data file: %w", err)
	}
	v.dataSize = uint32(end)

	// Read the index file. It must hold at least one record, otherwise
	// this is treated as a new store.
	replayed := false
	if st, serr := os.Stat(v.indexPath); serr == nil && st.Size() >= recordSize {
		idxF, lerr := openAndLock(v.indexPath, v.readOnly)
		if lerr == nil {
			v.indexF = idxF
			if err := v.replayIndex(int(st.Size())); err != nil {
				return nil, err
			}
			replayed = true
		}
	}

	if !replayed {
		if v.readOnly {
			logger.Warn("cannot find index file for read-only store", logger.IndexFile(v.indexPath))
			unlockAndClose(v.dataF)
			return nil, fmt.Errorf("%w: %s", ErrCannotOpenReadOnly, v.indexPath)
		}

		idxF, cerr := createAndLock(v.indexPath)
		if cerr != nil {
			logger.Warn("could not create index file, probably a sharing violation", logger.IndexFile(v.indexPath), logger.Err(cerr))
			unlockAndClose(v.dataF)
			_ = os.Remove(v.dataPath)
			return nil, fmt.Errorf("%w: %s", ErrCannotCreate, v.indexPath)
		}
		v.indexF = idxF
		v.indexSize = 0

		// No index: the whole data file is one free extent, defaulting
		// to the standard allocation for an empty file.
		size := int32(v.dataSize)
		if size == 0 {
			size = DefaultPresize
		}
		v.free.add(0, size)
	}

	// Open the marker file so the next run can detect a bad shutdown.
	if !v.readOnly && v.removeAfterCrash {
		if mf, merr := os.Create(v.markerPath()); merr == nil {
			_ = mf.Close()
		}
	}

	logger.Info("store open", logger.IndexFile(v.indexPath), logger.DataFile(v.dataPath))
	v.valid = true
	v.recordUsage()

	return v, nil
}

// Close releases the in-memory maps and host locks and removes the crash
// marker. Closing while the data mutex is held is a fatal error.
func (v *VFS) Close() error {
	if !v.mu.TryLock() {
		panic("vfs: Close called with data mutex held")
	}
	defer v.mu.Unlock()

	v.valid = false

	var firstErr error
	if v.indexF != nil {
		if err := unlockAndClose(v.indexF); err != nil && firstErr == nil {
			firstErr = err
		}
		v.indexF = nil
	}

	v.files = make(map[FileSpec]*fileBlock)
	v.free.clear()
	v.indexHoles = nil

	if v.dataF != nil {
		if err := unlockAndClose(v.dataF); err != nil && firstErr == nil {
			firstErr = err
		}
		v.dataF = nil
	}

	if !v.readOnly && v.removeAfterCrash {
		_ = os.Remove(v.markerPath())
	}

	return firstErr
}

// Valid reports whether the store opened successfully and has not been
// closed.
func (v *VFS) Valid() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.valid
}

// ReadOnly reports whether the store was opened read-only.
func (v *VFS) ReadOnly() bool {
	return v.readOnly
}

// DataPath returns the path of the data file actually in use, which may be
// a numbered alternate of the requested path.
func (v *VFS) DataPath() string { return v.dataPath }

// IndexPath returns the path of the index file actually in use.
func (v *VFS) IndexPath() string { return v.indexPath }

func (v *VFS) markerPath() string {
	return v.dataPath + ".open"
}

// presizeDataFile grows a freshly created data file to the requested size
// by writing a single byte at the end. Any existing index is removed since
// the store is now blank.
func (v *VFS) presizeDataFile(f *os.File, size uint32) {
	if _, err := f.WriteAt([]byte{0}, int64(size)-1); err != nil {
		logger.Warn("failed to presize data file", logger.DataFile(v.dataPath), logger.Err(err))
		return
	}
	_ = os.Remove(v.indexPath)
	logger.Info("presized data file", logger.DataFile(v.dataPath), "bytes", size)
}

// replayIndex reads the whole index file and rebuilds the directory, the
// index holes, and the free list. Unrecoverable corruption deletes both
// store files and returns ErrCorrupt.
func (v *VFS) replayIndex(indexBytes int) error {
	buf := bufpool.Get(indexBytes)
	defer bufpool.Put(buf)

	if n, err := v.indexF.ReadAt(buf, 0); err != nil && !(err == io.EOF && n == indexBytes) {
		return v.failCorrupt("cannot read index file", err)
	}
	v.indexSize = int32(indexBytes)

	byLoc := make([]*fileBlock, 0, indexBytes/recordSize)

	for off := 0; off+recordSize <= indexBytes; off += recordSize {
		b := &fileBlock{}
		b.deserialize(buf[off:off+recordSize], int32(off))

		// Sanity check. Zero-size records are skipped as holes, which
		// lets the store heal after partial writes.
		switch {
		case b.length > 0 &&
			uint32(b.length) <= v.dataSize &&
			b.location < v.dataSize &&
			b.size > 0 &&
			b.size <= b.length &&
			b.spec.Type >= TypeNone &&
			b.spec.Type < TypeCount:
			v.files[b.spec] = b
			byLoc = append(byLoc, b)

		case b.length != 0 && b.size > 0:
			// Corrupt, not merely empty.
			logger.Warn("index corruption, removing store",
				logger.AssetID(b.spec.ID.String()),
				logger.AssetType(int(b.spec.Type)),
				logger.Location(b.location),
				logger.Length(b.length),
				logger.Size(b.size),
				"index_loc", b.indexLocation,
				"data_size", v.dataSize)
			return v.failCorrupt("index record out of bounds", nil)

		default:
			// Null or bad entry: a reusable hole.
			v.indexHoles = append(v.indexHoles, int32(off))
		}
	}

	// Discover the free extents between file extents.
	sort.Slice(byLoc, func(i, j int) bool {
		if byLoc[i].location != byLoc[j].location {
			return byLoc[i].location < byLoc[j].location
		}
		return byLoc[i].length < byLoc[j].length
	})

	if len(byLoc) == 0 {
		v.free.add(0, int32(v.dataSize))
		return nil
	}

	last := byLoc[0]
	if last.location > 0 {
		v.free.add(0, int32(last.location))
	}

	for _, cur := range byLoc[1:] {
		if cur.location == last.location && cur.length == last.length {
			logger.Warn("removing duplicate index entries",
				logger.Location(cur.location),
				logger.Length(cur.length),
				logger.AssetID(cur.spec.ID.String()),
				logger.AssetType(int(cur.spec.Type)))

			// Duplicate entries. Nuke them both for safety: purge the
			// directory, free the shared extent once, and zero both
			// records on disk.
			delete(v.files, cur.spec)
			delete(v.files, last.spec)
			v.free.add(cur.location, cur.length)
			if !v.readOnly {
				v.mu.Lock()
				v.sync(cur, true)
				v.sync(last, true)
				v.mu.Unlock()
			}
			last = cur
			continue
		}

		loc := last.location + uint32(last.length)
		gap := int64(cur.location) - int64(loc)

		if gap < 0 || loc > v.dataSize {
			logger.Warn("overlapping index entries",
				logger.Location(cur.location),
				logger.Length(cur.length),
				logger.AssetID(cur.spec.ID.String()),
				logger.AssetType(int(cur.spec.Type)))
			return v.failCorrupt("overlapping extents", nil)
		}

		if gap > 0 {
			v.free.add(loc, int32(gap))
		}
		last = cur
	}

	// Also note any empty space at the end.
	if loc := last.location + uint32(last.length); loc < v.dataSize {
		v.free.add(loc, int32(v.dataSize-loc))
	}

	return nil
}

// failCorrupt closes and deletes both store files and returns ErrCorrupt.
func (v *VFS) failCorrupt(reason string, cause error) error {
	logger.Warn("store has bad data, removing files",
		"reason", reason,
		logger.IndexFile(v.indexPath),
		logger.DataFile(v.dataPath),
		logger.Err(cause))

	if v.indexF != nil {
		unlockAndClose(v.indexF)
		v.indexF = nil
	}
	_ = os.Remove(v.indexPath)

	if v.dataF != nil {
		unlockAndClose(v.dataF)
		v.dataF = nil
	}
	_ = os.Remove(v.dataPath)

	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, reason, cause)
	}
	return fmt.Errorf("%w: %s", ErrCorrupt, reason)
}

// checkValidLocked logs misuse of an invalid store. Callers hold the mutex.
func (v *VFS) checkValidLocked(op string) bool {
	if !v.valid {
		logger.Error("attempt to use invalid store", "op", op)
		return false
	}
	return true
}

// recordUsage publishes utilization to the metrics sink. Callers may hold
// the mutex; the computation is pure in-memory.
func (v *VFS) recordUsage() {
	if v.metrics == nil {
		return
	}
	var used, free int64
	liveCount := 0
	for _, b := range v.files {
		if b.length > 0 {
			used += int64(b.length)
			liveCount++
		}
	}
	v.free.ascendLocation(func(b *freeBlock) bool {
		free += int64(b.length)
		return true
	})
	v.metrics.RecordUsage(used, free)
	v.metrics.RecordAssetCount(liveCount)
}

// openAndLock opens an existing file and takes the platform lock: shared
// for read-only openers, exclusive otherwise.
func openAndLock(path string, readOnly bool) (*os.File, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, readOnly); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// createAndLock creates (or truncates) a file and takes the exclusive lock.
func createAndLock(path string) (*os.File, error) {
	// Test the lock non-destructively first: opening with O_TRUNC would
	// clobber a file another process holds locked.
	if probe, perr := os.Open(path); perr == nil {
		lerr := lockFile(probe, false)
		_ = probe.Close()
		if lerr != nil {
			return nil, lerr
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, false); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// unlockAndClose closes a store file. The platform lock is dropped by the
// close itself.
func unlockAndClose(f *os.File) error {
	if f == nil {
		return nil
	}
	return f.Close()
}
