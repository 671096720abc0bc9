package vfs

import (
	"testing"
)

// fillStore creates four adjacent 4KiB assets with ascending access times,
// exactly filling a 16KiB store.
func fillStore(t *testing.T, v *VFS) {
	t.Helper()
	for i := byte(1); i <= 4; i++ {
		if !v.SetMaxSize(u(i), TypeTexture, 4096) {
			t.Fatalf("SetMaxSize for asset %d failed", i)
		}
		setAccessTime(v, u(i), TypeTexture, uint32(i))
	}
	if v.CheckAvailable(BlockSize) {
		t.Fatal("store should be exactly full")
	}
}

func TestEvictionRemovesOldestFirst(t *testing.T) {
	v := newTestStore(t, 16*1024)
	fillStore(t, v)

	// 12KiB needs the three oldest assets; the youngest survives.
	if !v.SetMaxSize(u(9), TypeTexture, 12288) {
		t.Fatal("allocation with eviction failed")
	}

	for i := byte(1); i <= 3; i++ {
		if v.Exists(u(i), TypeTexture) {
			t.Errorf("asset %d should have been evicted", i)
		}
	}
	if !v.Exists(u(4), TypeTexture) {
		t.Error("youngest asset should survive eviction")
	}
	if !v.Exists(u(9), TypeTexture) {
		t.Error("new asset should exist")
	}
	verifyTiling(t, v)
}

func TestEvictionSkipsLockedAssets(t *testing.T) {
	v := newTestStore(t, 16*1024)
	fillStore(t, v)

	v.IncLock(u(1), TypeTexture, LockRead)

	if !v.SetMaxSize(u(9), TypeTexture, 12288) {
		t.Fatal("allocation with eviction failed")
	}

	if !v.Exists(u(1), TypeTexture) {
		t.Error("locked asset must not be evicted")
	}
	for i := byte(2); i <= 4; i++ {
		if v.Exists(u(i), TypeTexture) {
			t.Errorf("asset %d should have been evicted", i)
		}
	}
	verifyTiling(t, v)
}

func TestEvictionSingleLargeCandidate(t *testing.T) {
	v := newTestStore(t, 16*1024)

	// One old 8KiB asset and two younger 4KiB ones.
	if !v.SetMaxSize(u(1), TypeTexture, 8192) {
		t.Fatal("SetMaxSize failed")
	}
	setAccessTime(v, u(1), TypeTexture, 1)
	v.SetMaxSize(u(2), TypeTexture, 4096)
	setAccessTime(v, u(2), TypeTexture, 2)
	v.SetMaxSize(u(3), TypeTexture, 4096)
	setAccessTime(v, u(3), TypeTexture, 3)

	// The oldest asset alone is big enough: nothing else is touched.
	if !v.SetMaxSize(u(9), TypeSound, 8192) {
		t.Fatal("allocation with eviction failed")
	}

	if v.Exists(u(1), TypeTexture) {
		t.Error("oldest asset should have been evicted")
	}
	if !v.Exists(u(2), TypeTexture) || !v.Exists(u(3), TypeTexture) {
		t.Error("younger assets should survive when the oldest alone suffices")
	}
	verifyTiling(t, v)
}

func TestEvictionFailsWhenEverythingLocked(t *testing.T) {
	v := newTestStore(t, 16*1024)
	fillStore(t, v)

	for i := byte(1); i <= 4; i++ {
		v.IncLock(u(i), TypeTexture, LockOpen)
	}

	if v.SetMaxSize(u(9), TypeTexture, 4096) {
		t.Fatal("allocation should fail with every asset locked")
	}

	for i := byte(1); i <= 4; i++ {
		if !v.Exists(u(i), TypeTexture) {
			t.Errorf("locked asset %d must survive", i)
		}
	}
	verifyTiling(t, v)
}

func TestGrowDoesNotEvictItself(t *testing.T) {
	v := newTestStore(t, 24*1024)

	// Two assets; growing the older one forces eviction, but the asset
	// being grown is immune even though it is the LRU candidate.
	v.SetMaxSize(u(1), TypeTexture, 8192)
	setAccessTime(v, u(1), TypeTexture, 1)
	v.SetMaxSize(u(2), TypeTexture, 8192)
	setAccessTime(v, u(2), TypeTexture, 2)

	payload := make([]byte, 4000)
	for i := range payload {
		payload[i] = byte(i)
	}
	v.StoreData(u(1), TypeTexture, payload, 0)
	setAccessTime(v, u(1), TypeTexture, 1)

	if !v.SetMaxSize(u(1), TypeTexture, 12288) {
		t.Fatal("grow with eviction failed")
	}

	if !v.Exists(u(1), TypeTexture) {
		t.Fatal("grown asset must survive its own eviction pass")
	}
	if v.Exists(u(2), TypeTexture) {
		t.Error("the other asset should have been evicted")
	}

	got := make([]byte, len(payload))
	if n := v.GetData(u(1), TypeTexture, got, 0); n != len(payload) || string(got) != string(payload) {
		t.Error("payload lost while growing through eviction")
	}
	verifyTiling(t, v)
}
