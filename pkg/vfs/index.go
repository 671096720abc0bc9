package vfs

import (
	"github.com/hollowlog/vfscache/internal/logger"
)

// sync writes the block's index record out to the index file, or zero-fills
// the record's slot when remove is true. Removal pushes the slot onto the
// hole list for reuse; the index file never shrinks.
//
// Syncing happens on every mutation so a crash loses at most the record
// being written, never previously persisted state.
//
// The data mutex must be held. It is released for the duration of the file
// write and re-acquired before returning.
func (v *VFS) sync(block *fileBlock, remove bool) {
	if v.readOnly {
		logger.Warn("attempt to sync read-only store")
		return
	}
	if block.length == lengthInvalid {
		// Dummy record, holds locks only; never saved.
		return
	}
	if block.length == 0 {
		logger.Error("syncing zero-length block", logger.AssetID(block.spec.ID.String()))
		return
	}

	seekPos := block.indexLocation
	if seekPos == -1 {
		if len(v.indexHoles) > 0 {
			seekPos = v.indexHoles[0]
			v.indexHoles = v.indexHoles[1:]
		} else {
			seekPos = v.indexSize
			v.indexSize += recordSize
		}
	}

	block.indexLocation = seekPos
	if remove {
		v.indexHoles = append(v.indexHoles, seekPos)
	}

	var buf [recordSize]byte
	if !remove {
		block.serialize(buf[:])
	}

	v.mu.Unlock()

	if _, err := v.indexF.WriteAt(buf[:], int64(seekPos)); err != nil {
		logger.Warn("index write failed",
			logger.IndexFile(v.indexPath),
			"index_loc", seekPos,
			logger.Err(err))
	}

	v.mu.Lock()
}
