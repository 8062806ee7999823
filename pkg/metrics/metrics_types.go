package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for an analysis run
type Registry struct {
	// Graph Metrics
	GraphNodesTotal    prometheus.Gauge
	GraphEdgesTotal    prometheus.Gauge
	GraphIsolatedNodes prometheus.Gauge
	GraphMaxDegree     prometheus.Gauge

	// Loader Metrics
	LoaderLinesTotal *prometheus.CounterVec
	LoaderBytesTotal prometheus.Counter
	LoaderDuration   prometheus.Histogram

	// Stage Metrics
	StageRunsTotal  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	TraversalsTotal *prometheus.CounterVec
	SampledSources  *prometheus.GaugeVec

	// Result Metrics
	AveragePathLength prometheus.Gauge
	CommunitiesTotal  prometheus.Gauge
	Modularity        prometheus.Gauge
	ClusteringAverage prometheus.Gauge

	// Sink Metrics
	SinkRowsTotal   *prometheus.CounterVec
	SinkErrorsTotal *prometheus.CounterVec

	// System Metrics
	UptimeSeconds     prometheus.Gauge
	GoRoutines        prometheus.Gauge
	MemoryAllocBytes  prometheus.Gauge
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	// Initialize all metrics
	r.initGraphMetrics()
	r.initStageMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
