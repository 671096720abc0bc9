package vfs

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	v := newTestStore(t, 1<<20)

	if !v.SetMaxSize(u(1), TypeTexture, 4096) {
		t.Fatal("SetMaxSize failed")
	}

	payload := bytes.Repeat([]byte{0xAB}, 1000)
	if n := v.StoreData(u(1), TypeTexture, payload, 0); n != 1000 {
		t.Fatalf("StoreData: got %d, want 1000", n)
	}

	if got := v.Size(u(1), TypeTexture); got != 1000 {
		t.Errorf("Size: got %d, want 1000", got)
	}

	buf := make([]byte, 1000)
	if n := v.GetData(u(1), TypeTexture, buf, 0); n != 1000 {
		t.Fatalf("GetData: got %d, want 1000", n)
	}
	if !bytes.Equal(buf, payload) {
		t.Error("payload mismatch")
	}
}

func TestStoreDataAppend(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeSound, 4096)

	v.StoreData(u(1), TypeSound, []byte("hello "), 0)

	// Offset -1 appends at the current used size.
	if n := v.StoreData(u(1), TypeSound, []byte("world"), -1); n != 5 {
		t.Fatalf("append: got %d, want 5", n)
	}

	if got := v.Size(u(1), TypeSound); got != 11 {
		t.Errorf("Size after append: got %d, want 11", got)
	}

	buf := make([]byte, 11)
	v.GetData(u(1), TypeSound, buf, 0)
	if string(buf) != "hello world" {
		t.Errorf("got %q, want %q", buf, "hello world")
	}
}

func TestGetDataClampsToSize(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 4096)
	v.StoreData(u(1), TypeTexture, []byte("0123456789"), 0)

	// Ask for more than is used: clamped to size - offset.
	buf := make([]byte, 100)
	if n := v.GetData(u(1), TypeTexture, buf, 4); n != 6 {
		t.Fatalf("clamped read: got %d, want 6", n)
	}
	if string(buf[:6]) != "456789" {
		t.Errorf("got %q, want %q", buf[:6], "456789")
	}
}

func TestGetDataPastSizeReturnsZero(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 4096)
	v.StoreData(u(1), TypeTexture, []byte("abc"), 0)

	buf := make([]byte, 10)
	if n := v.GetData(u(1), TypeTexture, buf, 100); n != 0 {
		t.Errorf("read past size: got %d, want 0", n)
	}
}

func TestGetDataMissingAsset(t *testing.T) {
	v := newTestStore(t, 1<<20)

	buf := make([]byte, 10)
	if n := v.GetData(u(1), TypeTexture, buf, 0); n != 0 {
		t.Errorf("read of missing asset: got %d, want 0", n)
	}
}

func TestStoreDataTruncatesToReservation(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 1024)

	payload := make([]byte, 2000)
	if n := v.StoreData(u(1), TypeTexture, payload, 0); n != 1024 {
		t.Fatalf("truncated write: got %d, want 1024", n)
	}
	if got := v.Size(u(1), TypeTexture); got != 1024 {
		t.Errorf("Size: got %d, want 1024", got)
	}
}

func TestStoreDataToRemovedAssetIsASink(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 4096)
	v.Remove(u(1), TypeTexture)

	// The record is an invalid-length dummy: the write is swallowed but
	// reports full success so upstream transfers keep draining.
	payload := make([]byte, 500)
	if n := v.StoreData(u(1), TypeTexture, payload, 0); n != 500 {
		t.Fatalf("sink write: got %d, want 500", n)
	}
	if v.Exists(u(1), TypeTexture) {
		t.Error("sink write must not resurrect the asset")
	}
	if got := v.Size(u(1), TypeTexture); got != 0 {
		t.Errorf("Size: got %d, want 0", got)
	}
}

func TestStoreDataMissingAsset(t *testing.T) {
	v := newTestStore(t, 1<<20)

	if n := v.StoreData(u(1), TypeTexture, []byte("data"), 0); n != 0 {
		t.Errorf("write to missing asset: got %d, want 0", n)
	}
}

func TestStoreDataEmptyBuffer(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 4096)

	if n := v.StoreData(u(1), TypeTexture, nil, 0); n != 0 {
		t.Errorf("empty write: got %d, want 0", n)
	}
}

func TestPokeFiles(t *testing.T) {
	v := newTestStore(t, 1<<20)
	v.SetMaxSize(u(1), TypeTexture, 4096)

	payload := []byte("poke survivor")
	v.StoreData(u(1), TypeTexture, payload, 0)

	v.PokeFiles()

	buf := make([]byte, len(payload))
	if n := v.GetData(u(1), TypeTexture, buf, 0); n != len(payload) || !bytes.Equal(buf, payload) {
		t.Error("payload should survive PokeFiles")
	}
}

func TestReadOnlyStoreRejectsWrites(t *testing.T) {
	idx, dat := testPaths(t)

	v, err := Open(idx, dat, Options{Presize: 1 << 20})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetMaxSize(u(1), TypeTexture, 4096)
	v.StoreData(u(1), TypeTexture, []byte("data"), 0)
	if err := v.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ro, err := Open(idx, dat, Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only open: %v", err)
	}
	defer func() { _ = ro.Close() }()

	if n := ro.StoreData(u(1), TypeTexture, []byte("nope"), 0); n != 0 {
		t.Error("read-only store must reject writes")
	}
	if ro.SetMaxSize(u(2), TypeTexture, 4096) {
		t.Error("read-only store must reject SetMaxSize")
	}

	buf := make([]byte, 4)
	if n := ro.GetData(u(1), TypeTexture, buf, 0); n != 4 || string(buf) != "data" {
		t.Error("read-only store should serve reads")
	}
}
