package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // Disable colors for easier testing
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("WarnLevelSuppressesDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		defer SetLevel("INFO")

		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("BOGUS")

		Info("still logged")
		assert.Contains(t, buf.String(), "still logged")
	})
}

// ============================================================================
// Structured Field Tests
// ============================================================================

func TestStructuredFields(t *testing.T) {
	t.Run("FieldsAppearInTextOutput", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")

		Info("asset stored", KeyAssetID, "7aa0a886-f512-4437-958d-29e1d24cbc10", KeySize, 1000)

		out := buf.String()
		assert.Contains(t, out, "asset stored")
		assert.Contains(t, out, "asset_id=7aa0a886-f512-4437-958d-29e1d24cbc10")
		assert.Contains(t, out, "size=1000")
	})

	t.Run("JSONFormatProducesValidJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")
		defer SetFormat("text")

		Info("eviction complete", KeyEvicted, 3, KeyFreed, 12288)

		line := strings.TrimSpace(buf.String())
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		assert.Equal(t, "eviction complete", record["msg"])
		assert.EqualValues(t, 3, record["evicted"])
		assert.EqualValues(t, 12288, record["freed"])
	})
}

// ============================================================================
// Pre-bound Logger Tests
// ============================================================================

func TestWith(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	l := With(KeyDataFile, "cache.db2.x.1")
	l.Info("poked files")

	out := buf.String()
	assert.Contains(t, out, "poked files")
	assert.Contains(t, out, "data_file=cache.db2.x.1")
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("concurrent message", "worker", n, "iter", j)
			}
		}(i)
	}
	wg.Wait()
}

func TestConcurrentReconfigure(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			SetFormat("json")
			SetFormat("text")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			Info("message during reconfigure")
		}
	}()
	wg.Wait()
}
