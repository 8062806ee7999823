package pipeline

import (
	"github.com/dd0wney/cluso-graphstats/pkg/algorithms"
	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/loader"
	"github.com/dd0wney/cluso-graphstats/pkg/report"
	"github.com/dd0wney/cluso-graphstats/pkg/sink"
)

// Result holds everything a run computed.
type Result struct {
	RunID   string
	Input   string
	Seed    uint64
	Sampler string

	Graph     *graph.Graph
	Info      graph.Info
	LoadStats *loader.Stats

	AveragePathLength float64
	PathPairs         int64
	Degree            map[int]int

	Labels      map[graph.NodeID]graph.NodeID
	Communities []*algorithms.Community
	Modularity  float64

	Components *algorithms.ComponentsResult
	Clustering float64

	// Centrality maps a sink kind (degree, closeness, betweenness,
	// clustering) to per-node scores.
	Centrality map[string]map[graph.NodeID]float64

	Stages   []sink.StageTiming
	Manifest *sink.Manifest
	PlotPath string
}

func newResult(runID, input string) *Result {
	return &Result{
		RunID:      runID,
		Input:      input,
		Centrality: make(map[string]map[graph.NodeID]float64),
	}
}

// centralityKinds is the order in which score maps are written and shown.
var centralityKinds = []string{
	sink.KindDegree,
	sink.KindCloseness,
	sink.KindBetweenness,
	sink.KindClustering,
}

// Summary converts the result into the terminal report, keeping the topN
// nodes of each centrality measure.
func (res *Result) Summary(topN int, outputDir string) report.RunSummary {
	s := report.RunSummary{
		RunID:             res.RunID,
		Input:             res.Input,
		Graph:             res.Info,
		AveragePathLength: res.AveragePathLength,
		PathPairs:         res.PathPairs,
		Communities:       len(res.Communities),
		Modularity:        res.Modularity,
		Clustering:        res.Clustering,
		Degree:            res.Degree,
		OutputDir:         outputDir,
	}
	if len(res.Communities) > 0 {
		s.LargestCommunity = res.Communities[0].Size
	}
	if res.Components != nil {
		s.Components = res.Components.Count
		s.LargestComponent = res.Components.Largest
	}

	for _, kind := range centralityKinds {
		scores, ok := res.Centrality[kind]
		if !ok {
			continue
		}
		s.Centrality = append(s.Centrality, report.CentralitySection{
			Kind:    kind,
			Summary: report.Summarize(scores),
			Top:     report.TopN(scores, topN),
		})
	}

	for _, st := range res.Stages {
		s.Stages = append(s.Stages, report.StageLine{
			Name:     st.Name,
			Status:   st.Status,
			Duration: st.Duration,
			Err:      st.Error,
		})
	}
	return s
}

func (res *Result) results() sink.Results {
	r := sink.Results{
		AveragePathLength: res.AveragePathLength,
		PathPairs:         res.PathPairs,
		Communities:       len(res.Communities),
		Modularity:        res.Modularity,
		Clustering:        res.Clustering,
	}
	if res.Components != nil {
		r.Components = res.Components.Count
		r.LargestComponent = res.Components.Largest
	}
	return r
}
