package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so store events can
// be aggregated and queried by asset, extent, or operation.
const (
	// ========================================================================
	// Asset Identity
	// ========================================================================
	KeyAssetID   = "asset_id"   // Asset UUID
	KeyAssetType = "asset_type" // Asset type enumeration value
	KeyNewID     = "new_id"     // Destination UUID for rename operations
	KeyNewType   = "new_type"   // Destination type for rename operations

	// ========================================================================
	// Extents
	// ========================================================================
	KeyLocation = "location" // Absolute byte offset in the data file
	KeyLength   = "length"   // Reserved extent length in bytes
	KeySize     = "size"     // Used bytes within the extent
	KeyIndexLoc = "index_loc" // Byte offset of the record in the index file

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"        // Offset within an asset payload
	KeyCount        = "count"         // Byte count requested
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written

	// ========================================================================
	// Store Files
	// ========================================================================
	KeyDataFile  = "data_file"  // Data file path
	KeyIndexFile = "index_file" // Index file path
	KeyFileSize  = "file_size"  // Host file size in bytes

	// ========================================================================
	// Eviction & Free Space
	// ========================================================================
	KeyEvicted   = "evicted"    // Number of assets evicted
	KeyFreed     = "freed"      // Bytes freed by eviction
	KeyFreeBytes = "free_bytes" // Total free bytes in the store
	KeyWanted    = "wanted"     // Bytes requested from the allocator

	// ========================================================================
	// Locks
	// ========================================================================
	KeyLockKind  = "lock_kind"  // Lock kind: read, append, open
	KeyLockCount = "lock_count" // Outstanding lock count

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// AssetID returns a slog.Attr for an asset UUID
func AssetID(id string) slog.Attr {
	return slog.String(KeyAssetID, id)
}

// AssetType returns a slog.Attr for an asset type value
func AssetType(t int) slog.Attr {
	return slog.Int(KeyAssetType, t)
}

// Location returns a slog.Attr for a data-file byte offset
func Location(loc uint32) slog.Attr {
	return slog.Uint64(KeyLocation, uint64(loc))
}

// Length returns a slog.Attr for a reserved extent length
func Length(n int32) slog.Attr {
	return slog.Int64(KeyLength, int64(n))
}

// Size returns a slog.Attr for used bytes
func Size(n int32) slog.Attr {
	return slog.Int64(KeySize, int64(n))
}

// Offset returns a slog.Attr for an offset within an asset payload
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Count returns a slog.Attr for a requested byte count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// DataFile returns a slog.Attr for the data file path
func DataFile(path string) slog.Attr {
	return slog.String(KeyDataFile, path)
}

// IndexFile returns a slog.Attr for the index file path
func IndexFile(path string) slog.Attr {
	return slog.String(KeyIndexFile, path)
}

// Evicted returns a slog.Attr for the number of assets evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// Freed returns a slog.Attr for bytes freed by eviction
func Freed(n int64) slog.Attr {
	return slog.Int64(KeyFreed, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
