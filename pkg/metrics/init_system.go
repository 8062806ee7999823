package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.UptimeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_uptime_seconds",
			Help: "Time since the run started in seconds",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	r.ProcessRSSBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_process_rss_bytes",
			Help: "Resident set size of the process",
		},
	)

	r.ProcessCPUPercent = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_process_cpu_percent",
			Help: "Process CPU usage since start, as a percentage of one core",
		},
	)
}
