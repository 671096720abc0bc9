package vfs

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestSerializeLayout(t *testing.T) {
	id := uuid.UUID{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

	b := &fileBlock{
		spec:       FileSpec{ID: id, Type: TypeSound},
		location:   0x11223344,
		length:     2048,
		size:       1000,
		accessTime: 0x55667788,
	}

	var buf [recordSize]byte
	b.serialize(buf[:])

	expected := []byte{
		0x44, 0x33, 0x22, 0x11, // location, little-endian
		0x00, 0x08, 0x00, 0x00, // length 2048
		0x88, 0x77, 0x66, 0x55, // access time
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, // UUID, raw
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0x01, 0x00, // asset type 1
		0xe8, 0x03, 0x00, 0x00, // size 1000
	}

	if !bytes.Equal(buf[:], expected) {
		t.Errorf("layout mismatch:\n got %x\nwant %x", buf[:], expected)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	orig := &fileBlock{
		spec:       FileSpec{ID: uuid.MustParse("7aa0a886-f512-4437-958d-29e1d24cbc10"), Type: TypeTexture},
		location:   4096,
		length:     8192,
		size:       5000,
		accessTime: 1700000000,
	}

	var buf [recordSize]byte
	orig.serialize(buf[:])

	got := &fileBlock{}
	got.deserialize(buf[:], 68)

	if got.spec != orig.spec {
		t.Errorf("spec mismatch: got %v, want %v", got.spec, orig.spec)
	}
	if got.location != orig.location || got.length != orig.length || got.size != orig.size {
		t.Errorf("extent mismatch: got (%d,%d,%d), want (%d,%d,%d)",
			got.location, got.length, got.size, orig.location, orig.length, orig.size)
	}
	if got.accessTime != orig.accessTime {
		t.Errorf("access time mismatch: got %d, want %d", got.accessTime, orig.accessTime)
	}
	if got.indexLocation != 68 {
		t.Errorf("index location: got %d, want 68", got.indexLocation)
	}
}

func TestSerializeNegativeLength(t *testing.T) {
	// A record with length -1 should survive the trip; replay treats it
	// as a bad entry, but the encoding must not mangle the sign.
	orig := &fileBlock{
		spec:   FileSpec{ID: uuid.New(), Type: TypeObject},
		length: -1,
	}

	var buf [recordSize]byte
	orig.serialize(buf[:])

	got := &fileBlock{}
	got.deserialize(buf[:], 0)

	if got.length != -1 {
		t.Errorf("length: got %d, want -1", got.length)
	}
}

func TestFileSpecOrdering(t *testing.T) {
	a := FileSpec{ID: uuid.UUID{1}, Type: TypeTexture}
	b := FileSpec{ID: uuid.UUID{1}, Type: TypeSound}
	c := FileSpec{ID: uuid.UUID{2}, Type: TypeTexture}

	if !a.Less(b) {
		t.Error("same UUID should order by type")
	}
	if !a.Less(c) || !b.Less(c) {
		t.Error("UUID should dominate the ordering")
	}
	if a.Less(a) {
		t.Error("spec must not sort before itself")
	}
}

func TestRoundToBlock(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{1, 1024},
		{1023, 1024},
		{1024, 1024},
		{1025, 2048},
		{4096, 4096},
	}
	for _, tt := range tests {
		if got := roundToBlock(tt.in); got != tt.want {
			t.Errorf("roundToBlock(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
