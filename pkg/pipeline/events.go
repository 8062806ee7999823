package pipeline

import (
	"context"
	"time"
)

// Stage names, in execution order.
const (
	StageLoad        = "load"
	StageInfo        = "info"
	StagePath        = "average_path"
	StageDegree      = "degree_distribution"
	StagePlot        = "plot"
	StageCommunities = "communities"
	StageComponents  = "components"
	StageClustering  = "clustering"
	StageDegreeCent  = "degree_centrality"
	StageCloseness   = "closeness_centrality"
	StageBetweenness = "betweenness_centrality"
	StageSinks       = "sinks"
	StageManifest    = "manifest"
	StageMetrics     = "metrics"
)

// Stages lists every stage of a full run in the order they execute.
var Stages = []string{
	StageLoad,
	StageInfo,
	StagePath,
	StageDegree,
	StagePlot,
	StageCommunities,
	StageComponents,
	StageClustering,
	StageDegreeCent,
	StageCloseness,
	StageBetweenness,
	StageSinks,
	StageManifest,
	StageMetrics,
}

// State is the lifecycle position of a stage.
type State string

const (
	StateStarted State = "started"
	StateDone    State = "done"
	StateFailed  State = "failed"
	StateSkipped State = "skipped"
)

// Event reports a stage transition.
type Event struct {
	Stage   string
	State   State
	Elapsed time.Duration
	Err     error
	Index   int // zero-based position in Stages
	Total   int
}

// Finished reports whether the event ends its stage.
func (e Event) Finished() bool {
	return e.State != StateStarted
}

func stageIndex(name string) int {
	for i, s := range Stages {
		if s == name {
			return i
		}
	}
	return -1
}

// emit delivers ev unless no channel is set or ctx is done first.
func (r *Runner) emit(ctx context.Context, ev Event) {
	if r.events == nil {
		return
	}
	ev.Index = stageIndex(ev.Stage)
	ev.Total = len(Stages)
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}
