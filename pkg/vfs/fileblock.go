package vfs

import (
	"encoding/binary"
	"time"
)

// fileBlock is the in-memory record for one asset: its identity, the extent
// it owns in the data file, and bookkeeping for LRU and index persistence.
//
// A block with length == lengthInvalid is a dummy: it holds lock counters
// for an asset that owns no extent (created by IncLock on a missing asset,
// or left behind by Remove so in-flight lock holders stay consistent).
// Dummies are never persisted.
type fileBlock struct {
	spec FileSpec

	// location is the absolute byte offset of the extent in the data file.
	location uint32

	// length is the reserved extent size in bytes, always a multiple of
	// BlockSize for live blocks, or lengthInvalid for dummies.
	length int32

	// size is the used byte count, 0 <= size <= length.
	size int32

	// accessTime is wall-clock seconds at the last read, write, or
	// existence query. It is the LRU eviction signal.
	accessTime uint32

	// indexLocation is the byte offset of this record in the index file,
	// or -1 before first persistence.
	indexLocation int32

	// locks counts outstanding locks per kind. Any non-zero counter
	// exempts the block from eviction.
	locks [lockKindCount]int32
}

func newFileBlock(spec FileSpec, location uint32, length int32) *fileBlock {
	return &fileBlock{
		spec:          spec,
		location:      location,
		length:        length,
		indexLocation: -1,
		accessTime:    uint32(time.Now().Unix()),
	}
}

// touch refreshes the access time. Every read-path operation calls this;
// it is the canonical LRU signal.
func (b *fileBlock) touch() {
	b.accessTime = uint32(time.Now().Unix())
}

// locked reports whether any lock counter is non-zero.
func (b *fileBlock) locked() bool {
	for _, n := range b.locks {
		if n > 0 {
			return true
		}
	}
	return false
}

// serialize writes the fixed 34-byte index record:
//
//	offset  bytes  field
//	0       4      location     (little-endian u32)
//	4       4      length       (little-endian i32)
//	8       4      access time  (little-endian u32)
//	12      16     UUID         (raw bytes)
//	28      2      asset type   (little-endian i16)
//	30      4      size         (little-endian i32)
//
// Integers are little-endian regardless of host byte order.
func (b *fileBlock) serialize(buf []byte) {
	_ = buf[recordSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], b.location)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(b.length))
	binary.LittleEndian.PutUint32(buf[8:12], b.accessTime)
	copy(buf[12:28], b.spec.ID[:])
	binary.LittleEndian.PutUint16(buf[28:30], uint16(b.spec.Type))
	binary.LittleEndian.PutUint32(buf[30:34], uint32(b.size))
}

// deserialize reads a 34-byte index record found at indexLoc.
func (b *fileBlock) deserialize(buf []byte, indexLoc int32) {
	_ = buf[recordSize-1]
	b.indexLocation = indexLoc
	b.location = binary.LittleEndian.Uint32(buf[0:4])
	b.length = int32(binary.LittleEndian.Uint32(buf[4:8]))
	b.accessTime = binary.LittleEndian.Uint32(buf[8:12])
	copy(b.spec.ID[:], buf[12:28])
	b.spec.Type = AssetType(int16(binary.LittleEndian.Uint16(buf[28:30])))
	b.size = int32(binary.LittleEndian.Uint32(buf[30:34]))
}
