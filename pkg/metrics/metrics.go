package metrics

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// Stage status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// RecordGraph publishes the shape of the loaded graph
func (r *Registry) RecordGraph(info graph.Info) {
	r.GraphNodesTotal.Set(float64(info.Nodes))
	r.GraphEdgesTotal.Set(float64(info.Edges))
	r.GraphIsolatedNodes.Set(float64(info.Isolated))
	r.GraphMaxDegree.Set(float64(info.MaxDegree))
}

// RecordLoad records the outcome of parsing an edge list
func (r *Registry) RecordLoad(edges, skipped, comments int, bytes int64, duration time.Duration) {
	r.LoaderLinesTotal.WithLabelValues("edge").Add(float64(edges))
	r.LoaderLinesTotal.WithLabelValues("skipped").Add(float64(skipped))
	r.LoaderLinesTotal.WithLabelValues("comment").Add(float64(comments))
	r.LoaderBytesTotal.Add(float64(bytes))
	r.LoaderDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage execution with its duration
func (r *Registry) RecordStage(stage, status string, duration time.Duration) {
	r.StageRunsTotal.WithLabelValues(stage, status).Inc()
	if status != StatusSkipped {
		r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	}
}

// RecordTraversals records the number of BFS runs an estimator performed
// from its sampled sources
func (r *Registry) RecordTraversals(algorithm string, sources int) {
	r.TraversalsTotal.WithLabelValues(algorithm).Add(float64(sources))
	r.SampledSources.WithLabelValues(algorithm).Set(float64(sources))
}

// RecordCommunities records the community count and modularity
func (r *Registry) RecordCommunities(count int, modularity float64) {
	r.CommunitiesTotal.Set(float64(count))
	r.Modularity.Set(modularity)
}

// RecordPathLength records the estimated average shortest path length
func (r *Registry) RecordPathLength(avg float64) {
	r.AveragePathLength.Set(avg)
}

// RecordClustering records the average local clustering coefficient
func (r *Registry) RecordClustering(avg float64) {
	r.ClusteringAverage.Set(avg)
}

// RecordSinkWrite records rows written to a sink, or a failure when err is
// non-nil
func (r *Registry) RecordSinkWrite(sink, kind string, rows int, err error) {
	if err != nil {
		r.SinkErrorsTotal.WithLabelValues(sink).Inc()
		return
	}
	r.SinkRowsTotal.WithLabelValues(sink, kind).Add(float64(rows))
}

// UpdateSystemMetrics refreshes runtime and process gauges. Process figures
// come from gopsutil; failures to read them leave the previous values.
func (r *Registry) UpdateSystemMetrics(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.MemoryAllocBytes.Set(float64(ms.Alloc))

	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		r.ProcessRSSBytes.Set(float64(mem.RSS))
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		r.ProcessCPUPercent.Set(cpu)
	}
}

// WriteTextfile writes every metric in the node-exporter textfile format.
// The file is written to a temporary name and renamed into place.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
