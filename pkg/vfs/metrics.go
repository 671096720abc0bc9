package vfs

import (
	"time"
)

// StoreMetrics provides observability for store operations.
//
// Implementations collect operation counts, latency, and utilization. This
// is optional: a nil StoreMetrics is valid and skips all collection.
//
// Example implementations:
//   - Prometheus metrics (pkg/metrics/prometheus)
//   - In-memory counters for testing
type StoreMetrics interface {
	// ObserveRead records a payload read.
	ObserveRead(bytes int, duration time.Duration)

	// ObserveWrite records a payload write.
	ObserveWrite(bytes int, duration time.Duration)

	// ObserveEviction records one eviction sweep: how many assets were
	// removed, how many bytes they freed, and how long the sweep took.
	ObserveEviction(assets int, freedBytes int64, duration time.Duration)

	// RecordUsage records current store utilization.
	RecordUsage(usedBytes, freeBytes int64)

	// RecordAssetCount records the number of live assets.
	RecordAssetCount(count int)
}
