package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_graph_nodes",
			Help: "Number of nodes in the loaded graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_graph_edges",
			Help: "Number of undirected edges in the loaded graph",
		},
	)

	r.GraphIsolatedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_graph_isolated_nodes",
			Help: "Number of nodes without neighbours",
		},
	)

	r.GraphMaxDegree = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_graph_max_degree",
			Help: "Largest neighbour-sequence length in the graph",
		},
	)

	r.LoaderLinesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstats_loader_lines_total",
			Help: "Edge-list lines read, by outcome",
		},
		[]string{"outcome"},
	)

	r.LoaderBytesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphstats_loader_bytes_total",
			Help: "Uncompressed bytes read by the loader",
		},
	)

	r.LoaderDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphstats_loader_duration_seconds",
			Help:    "Time spent parsing the edge list",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
}
