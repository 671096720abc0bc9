// Package metrics provides the metrics registry gate and constructors.
//
// Metrics are opt-in: nothing is collected until InitRegistry is called.
// When metrics are disabled, constructors return nil and the store skips
// collection entirely, so the disabled path has zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hollowlog/vfscache/pkg/vfs"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the Prometheus registry and enables metrics
// collection. Safe to call more than once; later calls are no-ops.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// NewStoreMetrics creates a Prometheus-backed vfs.StoreMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). A nil
// StoreMetrics is valid: the store skips collection.
//
// Example usage:
//
//	metrics.InitRegistry()
//	store, err := vfs.Open(indexPath, dataPath, vfs.Options{
//	    Metrics: metrics.NewStoreMetrics(),
//	})
func NewStoreMetrics() vfs.StoreMetrics {
	if !IsEnabled() || newPrometheusStoreMetrics == nil {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// newPrometheusStoreMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle while keeping the API clean.
var newPrometheusStoreMetrics func() vfs.StoreMetrics

// RegisterStoreMetricsConstructor registers the Prometheus store metrics
// constructor. Called by pkg/metrics/prometheus during package init.
func RegisterStoreMetricsConstructor(constructor func() vfs.StoreMetrics) {
	newPrometheusStoreMetrics = constructor
}
