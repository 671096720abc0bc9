package vfs

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hollowlog/vfscache/internal/logger"
)

// GetData reads asset payload bytes starting at offset into buf and
// returns the number of bytes read. The read length is clamped to the
// asset's used size; an offset beyond the used size is a warning and
// returns 0. The read itself runs with the data mutex released.
func (v *VFS) GetData(id uuid.UUID, t AssetType, buf []byte, offset int32) int {
	if offset < 0 {
		logger.Warn("attempt to read at negative offset",
			logger.AssetID(id.String()), logger.Offset(int64(offset)))
		return 0
	}

	v.mu.Lock()

	if !v.checkValidLocked("GetData") {
		v.mu.Unlock()
		return 0
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b == nil {
		v.mu.Unlock()
		return 0
	}

	b.touch()

	if offset > b.size {
		logger.Warn("attempt to read past end of asset",
			logger.AssetID(id.String()),
			logger.Offset(int64(offset)),
			logger.Size(b.size))
		v.mu.Unlock()
		return 0
	}

	length := int32(len(buf))
	if length > b.size-offset {
		length = b.size - offset
	}
	fileLocation := int64(b.location) + int64(offset)

	v.mu.Unlock()

	start := time.Now()
	n, err := v.dataF.ReadAt(buf[:length], fileLocation)
	if err != nil && err != io.EOF {
		logger.Warn("data read failed",
			logger.AssetID(id.String()),
			logger.Offset(int64(offset)),
			logger.Count(int(length)),
			logger.Err(err))
	}

	if v.metrics != nil {
		v.metrics.ObserveRead(n, time.Since(start))
	}
	return n
}

// StoreData writes asset payload bytes at offset and returns the number of
// bytes written. An offset of -1 appends at the current used size. Writes
// are clamped to the asset's reservation, with a warning when truncated.
//
// Writing to an invalid-length dummy (an asset that was removed while
// upstream was still feeding it) warns and reports the full length as
// written without touching the data file, so upstream pipelines keep
// flowing into what is effectively a sink.
//
// The write itself runs with the data mutex released; concurrent writers
// to the same asset must serialize overlapping ranges themselves.
func (v *VFS) StoreData(id uuid.UUID, t AssetType, buf []byte, offset int32) int {
	length := int32(len(buf))
	if length <= 0 {
		return 0
	}

	v.mu.Lock()

	if !v.checkValidLocked("StoreData") {
		v.mu.Unlock()
		return 0
	}
	if v.readOnly {
		logger.Warn("attempt to write to read-only store", logger.AssetID(id.String()))
		v.mu.Unlock()
		return 0
	}

	b := v.files[FileSpec{ID: id, Type: t}]
	if b == nil {
		v.mu.Unlock()
		return 0
	}

	requestedOffset := offset
	if offset == -1 {
		offset = b.size
	}

	b.touch()

	if b.length == lengthInvalid {
		// The asset was removed; ignore the write but report success so
		// the upstream transfer keeps draining.
		logger.Warn("attempt to write to removed asset",
			logger.AssetID(id.String()),
			logger.Offset(int64(requestedOffset)),
			logger.Count(int(length)))
		v.mu.Unlock()
		return int(length)
	}

	if offset > b.length {
		logger.Warn("attempt to write past end of reservation",
			logger.AssetID(id.String()),
			logger.AssetType(int(t)),
			logger.Offset(int64(offset)),
			logger.Size(b.size),
			logger.Length(b.length))
		v.mu.Unlock()
		return int(length)
	}

	if length > b.length-offset {
		logger.Warn("truncating write to asset reservation",
			logger.AssetID(id.String()),
			logger.AssetType(int(t)),
			logger.Count(int(length)),
			logger.Length(b.length))
		length = b.length - offset
	}

	fileLocation := int64(b.location) + int64(offset)

	v.mu.Unlock()

	start := time.Now()
	n, err := v.dataF.WriteAt(buf[:length], fileLocation)
	if int32(n) != length {
		logger.Warn("short data write",
			logger.AssetID(id.String()),
			logger.BytesWritten(n),
			logger.Count(int(length)),
			logger.Err(err))
	}

	v.mu.Lock()
	if offset+length > b.size {
		b.size = offset + int32(n)
		v.sync(b, false)
	}
	v.mu.Unlock()

	if v.metrics != nil {
		v.metrics.ObserveWrite(n, time.Since(start))
	}
	return n
}

// PokeFiles reads and rewrites the first four bytes of each store file to
// test filesystem liveness. Bytes are only written back when the read
// returned all four, otherwise garbage would land in the file.
func (v *VFS) PokeFiles() {
	v.mu.Lock()
	if !v.checkValidLocked("PokeFiles") {
		v.mu.Unlock()
		return
	}
	dataF, indexF := v.dataF, v.indexF
	v.mu.Unlock()

	var word [4]byte
	if n, _ := dataF.ReadAt(word[:], 0); n == 4 {
		if _, err := dataF.WriteAt(word[:], 0); err != nil {
			logger.Warn("data file poke failed", logger.DataFile(v.dataPath), logger.Err(err))
		}
		_ = dataF.Sync()
	}

	if n, _ := indexF.ReadAt(word[:], 0); n == 4 {
		if _, err := indexF.WriteAt(word[:], 0); err != nil {
			logger.Warn("index file poke failed", logger.IndexFile(v.indexPath), logger.Err(err))
		}
		_ = indexF.Sync()
	}
}
