package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Buffer Allocation Tests
// ============================================================================

func TestBufferAllocation(t *testing.T) {
	t.Run("AllocatesSmallBuffer", func(t *testing.T) {
		buf := Get(100)
		defer Put(buf)

		assert.GreaterOrEqual(t, len(buf), 100)
		assert.Equal(t, DefaultSmallSize, cap(buf))
	})

	t.Run("AllocatesMediumBuffer", func(t *testing.T) {
		buf := Get(10 * 1024)
		defer Put(buf)

		assert.GreaterOrEqual(t, len(buf), 10*1024)
		assert.Equal(t, DefaultMediumSize, cap(buf))
	})

	t.Run("AllocatesLargeBuffer", func(t *testing.T) {
		buf := Get(100 * 1024)
		defer Put(buf)

		assert.GreaterOrEqual(t, len(buf), 100*1024)
		assert.Equal(t, DefaultLargeSize, cap(buf))
	})

	t.Run("AllocatesOversizedBuffer", func(t *testing.T) {
		buf := Get(2 * 1024 * 1024)
		defer Put(buf)

		assert.GreaterOrEqual(t, len(buf), 2*1024*1024)
		assert.Equal(t, len(buf), cap(buf))
	})
}

// ============================================================================
// Buffer Reuse Tests
// ============================================================================

func TestBufferReuse(t *testing.T) {
	t.Run("PutNilIsNoop", func(t *testing.T) {
		Put(nil)
	})

	t.Run("ReusedBufferKeepsCapacity", func(t *testing.T) {
		buf := Get(1000)
		Put(buf)

		buf2 := Get(2000)
		defer Put(buf2)
		assert.Equal(t, DefaultSmallSize, cap(buf2))
	})

	t.Run("OversizedBufferNotPooled", func(t *testing.T) {
		buf := Get(4 * 1024 * 1024)
		Put(buf) // should be dropped, not pooled

		buf2 := Get(100)
		defer Put(buf2)
		assert.Equal(t, DefaultSmallSize, cap(buf2))
	})
}

// ============================================================================
// Custom Pool Tests
// ============================================================================

func TestCustomPool(t *testing.T) {
	p := NewPool(&Config{SmallSize: 512, MediumSize: 2048, LargeSize: 8192})

	buf := p.Get(400)
	assert.Equal(t, 512, cap(buf))
	p.Put(buf)

	buf = p.Get(3000)
	assert.Equal(t, 8192, cap(buf))
	p.Put(buf)
}

func TestNilConfigUsesDefaults(t *testing.T) {
	p := NewPool(nil)
	buf := p.Get(1)
	defer p.Put(buf)
	assert.Equal(t, DefaultSmallSize, cap(buf))
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentGetPut(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := Get(j * 128)
				for k := range buf {
					buf[k] = byte(k)
				}
				Put(buf)
			}
		}()
	}
	wg.Wait()
}
