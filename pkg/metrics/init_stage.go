package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStageMetrics() {
	r.StageRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstats_stage_runs_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphstats_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"stage"},
	)

	r.TraversalsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstats_traversals_total",
			Help: "Breadth-first traversals run, by algorithm",
		},
		[]string{"algorithm"},
	)

	r.SampledSources = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphstats_sampled_sources",
			Help: "Distinct source nodes used by a sampled estimator",
		},
		[]string{"algorithm"},
	)

	r.AveragePathLength = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_average_path_length",
			Help: "Estimated mean shortest-path length",
		},
	)

	r.CommunitiesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_communities",
			Help: "Number of communities found by label propagation",
		},
	)

	r.Modularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_modularity",
			Help: "Newman modularity of the detected communities",
		},
	)

	r.ClusteringAverage = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstats_clustering_coefficient_average",
			Help: "Mean local clustering coefficient over sampled nodes",
		},
	)

	r.SinkRowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstats_sink_rows_total",
			Help: "Result rows written, by sink and result kind",
		},
		[]string{"sink", "kind"},
	)

	r.SinkErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstats_sink_errors_total",
			Help: "Failed sink writes, by sink",
		},
		[]string{"sink"},
	)
}
