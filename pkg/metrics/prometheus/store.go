// Package prometheus contains the Prometheus implementations of the
// metrics interfaces. Importing it (usually blank) registers the
// constructors with pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hollowlog/vfscache/pkg/metrics"
	"github.com/hollowlog/vfscache/pkg/vfs"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(newStoreMetrics)
}

// storeMetrics is the Prometheus implementation of vfs.StoreMetrics.
type storeMetrics struct {
	readBytes  prometheus.Counter
	writeBytes prometheus.Counter

	readDuration  prometheus.Histogram
	writeDuration prometheus.Histogram

	evictedAssets    prometheus.Counter
	evictedBytes     prometheus.Counter
	evictionDuration prometheus.Histogram

	usedBytes  prometheus.Gauge
	freeBytes  prometheus.Gauge
	assetCount prometheus.Gauge
}

// newStoreMetrics creates a new Prometheus-backed store metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func newStoreMetrics() vfs.StoreMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storeMetrics{
		readBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vfscache_read_bytes_total",
			Help: "Total payload bytes read from the store",
		}),
		writeBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vfscache_write_bytes_total",
			Help: "Total payload bytes written to the store",
		}),
		readDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vfscache_read_duration_seconds",
			Help:    "Payload read latency",
			Buckets: prometheus.DefBuckets,
		}),
		writeDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vfscache_write_duration_seconds",
			Help:    "Payload write latency",
			Buckets: prometheus.DefBuckets,
		}),
		evictedAssets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vfscache_evicted_assets_total",
			Help: "Total assets removed by LRU eviction",
		}),
		evictedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vfscache_evicted_bytes_total",
			Help: "Total bytes freed by LRU eviction",
		}),
		evictionDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vfscache_eviction_duration_seconds",
			Help:    "Duration of eviction sweeps",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		usedBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vfscache_used_bytes",
			Help: "Bytes reserved by live assets",
		}),
		freeBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vfscache_free_bytes",
			Help: "Bytes in the free list",
		}),
		assetCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vfscache_assets",
			Help: "Number of live assets",
		}),
	}
}

func (m *storeMetrics) ObserveRead(bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.readBytes.Add(float64(bytes))
	m.readDuration.Observe(duration.Seconds())
}

func (m *storeMetrics) ObserveWrite(bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.writeBytes.Add(float64(bytes))
	m.writeDuration.Observe(duration.Seconds())
}

func (m *storeMetrics) ObserveEviction(assets int, freedBytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.evictedAssets.Add(float64(assets))
	m.evictedBytes.Add(float64(freedBytes))
	m.evictionDuration.Observe(duration.Seconds())
}

func (m *storeMetrics) RecordUsage(usedBytes, freeBytes int64) {
	if m == nil {
		return
	}
	m.usedBytes.Set(float64(usedBytes))
	m.freeBytes.Set(float64(freeBytes))
}

func (m *storeMetrics) RecordAssetCount(count int) {
	if m == nil {
		return
	}
	m.assetCount.Set(float64(count))
}
