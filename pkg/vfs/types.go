// Package vfs implements an embedded virtual file system for asset payloads.
//
// The store packs many logical assets, each identified by a (UUID, asset
// type) pair, into two host files: a contiguous data file holding raw
// payload bytes and an index file holding fixed-size records that describe
// which extent of the data file each asset owns. Free space is tracked in
// memory and reclaimed by merging adjacent holes and by LRU eviction of
// unlocked assets when an allocation cannot be satisfied.
//
// The store is a passive library: any number of goroutines may call it
// concurrently. All mutable in-memory state is guarded by a single mutex;
// payload reads and writes happen with the mutex released.
//
// It is designed for a long-running interactive client that streams many
// small-to-medium binary objects and must survive hard crashes without
// corrupting previously written data. Contents are reconstructible by
// design, so the store favors forward progress with loud complaints over
// strict failure modes.
package vfs

import (
	"bytes"
	"errors"

	"github.com/google/uuid"
)

// Format constants. These must not change: they define the on-disk layout
// shared by every opener of the same store files.
const (
	// BlockSize is the allocation granularity of the data file. All
	// reservations round up to a multiple of this.
	BlockSize = 1024

	blockMask = BlockSize - 1

	// recordSize is the fixed size of a serialized index record.
	recordSize = 34

	// cleanupTarget bounds how many bytes one aggressive eviction sweep
	// frees (the request size is the bound when it is larger). The sweep
	// stops as soon as the request can be satisfied, so it may free less.
	cleanupTarget = 5 << 20

	// DefaultPresize is the free extent assigned to a brand-new data file
	// when no presize is configured.
	DefaultPresize = 1 << 30

	// maxAlternates is how many numbered sibling filenames the writer
	// tries when the canonical data file cannot be opened.
	maxAlternates = 256

	// lengthInvalid marks a directory record that retains locks but owns
	// no extent in the data file.
	lengthInvalid = -1
)

// AssetType enumerates the kinds of assets the store holds. The numeric
// values are part of the index record format.
type AssetType int16

const (
	TypeNone        AssetType = -1
	TypeTexture     AssetType = 0
	TypeSound       AssetType = 1
	TypeCallingCard AssetType = 2
	TypeLandmark    AssetType = 3
	TypeScript      AssetType = 4
	TypeClothing    AssetType = 5
	TypeObject      AssetType = 6
	TypeNotecard    AssetType = 7
	TypeAnimation   AssetType = 8
	TypeGesture     AssetType = 9

	// TypeCount bounds the valid range. Index records with a type outside
	// [TypeNone, TypeCount) are rejected during replay.
	TypeCount AssetType = 10
)

// String returns a short name for the asset type.
func (t AssetType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeTexture:
		return "texture"
	case TypeSound:
		return "sound"
	case TypeCallingCard:
		return "callingcard"
	case TypeLandmark:
		return "landmark"
	case TypeScript:
		return "script"
	case TypeClothing:
		return "clothing"
	case TypeObject:
		return "object"
	case TypeNotecard:
		return "notecard"
	case TypeAnimation:
		return "animation"
	case TypeGesture:
		return "gesture"
	default:
		return "unknown"
	}
}

// LockKind selects one of the per-asset lock counters. Locks are counters,
// not mutexes: they only exempt an asset from LRU eviction.
type LockKind int

const (
	LockRead LockKind = iota
	LockAppend
	LockOpen

	lockKindCount
)

// String returns a short name for the lock kind.
func (k LockKind) String() string {
	switch k {
	case LockRead:
		return "read"
	case LockAppend:
		return "append"
	case LockOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Errors returned by Open and by store operations.
var (
	// ErrCannotOpenReadOnly is returned when a read-only opener cannot
	// find both store files.
	ErrCannotOpenReadOnly = errors.New("vfs: cannot open store files read-only")

	// ErrCannotCreate is returned when the writer cannot create or lock
	// the store files, including all numbered alternates.
	ErrCannotCreate = errors.New("vfs: cannot create store files")

	// ErrCorrupt is returned when index replay finds unrecoverable
	// corruption. Both store files have been deleted; reopening yields a
	// blank store.
	ErrCorrupt = errors.New("vfs: store files corrupt")

	// ErrClosed is returned when operations are attempted on a closed or
	// invalid store.
	ErrClosed = errors.New("vfs: store is closed")

	// ErrReadOnly names a mutating operation on a read-only store. The
	// mutating methods report that case with a logged warning and a false
	// or zero result; none of them returns this error.
	ErrReadOnly = errors.New("vfs: store is read-only")
)

// FileSpec identifies an asset: a UUID plus an asset type. Specs are
// ordered lexicographically, UUID first.
type FileSpec struct {
	ID   uuid.UUID
	Type AssetType
}

// Less reports whether s sorts before other.
func (s FileSpec) Less(other FileSpec) bool {
	if c := bytes.Compare(s.ID[:], other.ID[:]); c != 0 {
		return c < 0
	}
	return s.Type < other.Type
}

// String renders the spec as "uuid:type" for log output.
func (s FileSpec) String() string {
	return s.ID.String() + ":" + s.Type.String()
}

// roundToBlock rounds n up to the next multiple of BlockSize.
func roundToBlock(n int32) int32 {
	if n&blockMask != 0 {
		n += blockMask
		n &^= blockMask
	}
	return n
}
