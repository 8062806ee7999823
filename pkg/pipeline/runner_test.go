package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphstats/pkg/config"
	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/logging"
	"github.com/dd0wney/cluso-graphstats/pkg/metrics"
	"github.com/dd0wney/cluso-graphstats/pkg/report"
	"github.com/dd0wney/cluso-graphstats/pkg/sink"
)

const ringEdges = "# ring of four\n1\t2\n2\t3\n3\t4\n4\t1\n"

// recordingSink remembers which results it received.
type recordingSink struct {
	name   string
	kinds  []string
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) WriteCentrality(_ context.Context, kind string, _ map[graph.NodeID]float64) error {
	s.kinds = append(s.kinds, kind)
	return nil
}

func (s *recordingSink) WriteDegreeDistribution(context.Context, map[int]int) error {
	s.kinds = append(s.kinds, "degree_distribution")
	return nil
}

func (s *recordingSink) WriteCommunities(context.Context, map[graph.NodeID]graph.NodeID) error {
	s.kinds = append(s.kinds, "communities")
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.closed = true
	return nil
}

type failingSink struct{ recordingSink }

func (s *failingSink) WriteCommunities(context.Context, map[graph.NodeID]graph.NodeID) error {
	return errors.New("disk full")
}

func testConfig(t *testing.T, edges string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "edges.tsv")
	require.NoError(t, os.WriteFile(input, []byte(edges), 0o644))

	cfg := config.Default()
	cfg.Input.Path = input
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Analysis.Seed = 42
	cfg.Analysis.Workers = 2
	cfg.Metrics.Textfile = filepath.Join(dir, "graphstats.prom")
	return cfg
}

func TestRun_RingGraph(t *testing.T) {
	cfg := testConfig(t, ringEdges)

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, "uniform", res.Sampler)
	assert.Equal(t, graph.Info{Nodes: 4, Edges: 4, HalfEdges: 8, MaxDegree: 2}, res.Info)
	assert.InDelta(t, 16.0/12.0, res.AveragePathLength, 1e-9)
	assert.Equal(t, int64(12), res.PathPairs)
	assert.Equal(t, map[int]int{2: 4}, res.Degree)
	assert.Equal(t, 1, res.Components.Count)
	assert.Zero(t, res.Clustering)

	for _, kind := range []string{sink.KindDegree, sink.KindCloseness, sink.KindBetweenness, sink.KindClustering} {
		assert.Len(t, res.Centrality[kind], 4, kind)
	}
	// each node carries half of the two ordered paths between its
	// neighbours, over four sources
	for id, score := range res.Centrality[sink.KindBetweenness] {
		assert.InDelta(t, 0.25, score, 1e-9, "node %d", id)
	}

	var names []string
	for _, st := range res.Stages {
		names = append(names, st.Name)
		assert.Equal(t, metrics.StatusSuccess, st.Status, st.Name)
	}
	assert.Equal(t, Stages, names)
}

func TestRun_WritesOutputs(t *testing.T) {
	cfg := testConfig(t, ringEdges)

	res, err := New(cfg, WithVersion("v-test")).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{
		sink.CentralityFile(sink.KindDegree),
		sink.CentralityFile(sink.KindCloseness),
		sink.CentralityFile(sink.KindBetweenness),
		sink.CentralityFile(sink.KindClustering),
		sink.DegreeDistributionFile,
		sink.CommunitiesFile,
		sink.ManifestFile,
		report.PlotFile,
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
	}
	assert.Equal(t, filepath.Join(cfg.Output.Dir, report.PlotFile), res.PlotPath)

	f, err := os.Open(filepath.Join(cfg.Output.Dir, sink.ManifestFile))
	require.NoError(t, err)
	defer f.Close()
	m, err := sink.ReadManifest(f)
	require.NoError(t, err)

	assert.Equal(t, res.RunID, m.RunID)
	assert.Equal(t, "v-test", m.Version)
	assert.Equal(t, uint64(42), m.Seed)
	assert.Equal(t, 4, m.Graph.Nodes)
	assert.Equal(t, 1, m.Results.Components)
	assert.InDelta(t, 16.0/12.0, m.Results.AveragePathLength, 1e-9)
	require.NotEmpty(t, m.Stages)
	assert.Equal(t, StageLoad, m.Stages[0].Name)
	assert.Equal(t, StageSinks, m.Stages[len(m.Stages)-1].Name)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "graphstats_graph_nodes 4")
	assert.Contains(t, string(prom), `graphstats_stage_runs_total{stage="closeness_centrality",status="success"} 1`)
}

func TestRun_Events(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	cfg.Output.Plot = false
	cfg.Metrics.Textfile = ""

	events := make(chan Event, 64)
	_, err := New(cfg, WithEvents(events)).Run(context.Background())
	require.NoError(t, err)
	close(events)

	started := map[string]bool{}
	finished := map[string]State{}
	for ev := range events {
		assert.Equal(t, len(Stages), ev.Total)
		assert.Equal(t, stageIndex(ev.Stage), ev.Index)
		if ev.Finished() {
			finished[ev.Stage] = ev.State
		} else {
			started[ev.Stage] = true
		}
	}

	assert.Equal(t, StateSkipped, finished[StagePlot])
	assert.Equal(t, StateSkipped, finished[StageMetrics])
	assert.False(t, started[StagePlot])
	assert.Equal(t, StateDone, finished[StageBetweenness])
	assert.True(t, started[StageBetweenness])
	assert.Len(t, finished, len(Stages))
}

func TestRun_FreshSeedWhenZero(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	cfg.Analysis.Seed = 0

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
}

func TestRun_FirstKSampler(t *testing.T) {
	cfg := testConfig(t, "1\t2\n2\t3\n3\t4\n")
	cfg.Analysis.Sampler = "first"
	cfg.Analysis.BetweennessSamples = 4

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "first", res.Sampler)
	assert.Equal(t, map[graph.NodeID]float64{1: 0, 2: 1, 3: 1, 4: 0}, res.Centrality[sink.KindBetweenness])
}

func TestRun_ExtraSinks(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	rec := &recordingSink{name: "rec"}

	_, err := New(cfg, WithSinks(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		sink.KindDegree, sink.KindCloseness, sink.KindBetweenness, sink.KindClustering,
		"degree_distribution", "communities",
	}, rec.kinds)
	assert.True(t, rec.closed)
}

func TestRun_SinkFailureStillWritesManifest(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	reg := metrics.NewRegistry()

	res, err := New(cfg, WithSinks(&failingSink{recordingSink{name: "broken"}}), WithMetrics(reg)).
		Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.FileExists(t, filepath.Join(cfg.Output.Dir, sink.ManifestFile))
	require.NotNil(t, res.Manifest)
	last := res.Manifest.Stages[len(res.Manifest.Stages)-1]
	assert.Equal(t, StageSinks, last.Name)
	assert.Equal(t, metrics.StatusError, last.Status)
	assert.Contains(t, last.Error, "disk full")
}

func TestRun_RemoteSinks(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	cfg.Output.S3Bucket = "bucket"
	cfg.Output.S3Region = "eu-west-1"
	cfg.Output.PostgresDSN = "postgres://localhost/graphstats"

	s3 := &recordingSink{name: "s3"}
	pg := &recordingSink{name: "postgres"}
	r := New(cfg)
	r.openers = sinkOpeners{
		postgres: func(_ context.Context, dsn, runID string) (sink.Sink, error) {
			assert.Equal(t, cfg.Output.PostgresDSN, dsn)
			assert.NotEmpty(t, runID)
			return pg, nil
		},
		s3: func(_ context.Context, local *sink.FileSink, out config.OutputConfig, _ string) (sink.Sink, error) {
			assert.Equal(t, cfg.Output.Dir, local.Dir())
			assert.Equal(t, "bucket", out.S3Bucket)
			return s3, nil
		},
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, s3.kinds, 6)
	assert.Len(t, pg.kinds, 6)
	assert.True(t, s3.closed)
	assert.True(t, pg.closed)
}

func TestRun_PostgresOpenFailure(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	cfg.Output.PostgresDSN = "postgres://nowhere/db"

	r := New(cfg)
	r.openers.postgres = func(context.Context, string, string) (sink.Sink, error) {
		return nil, errors.New("connection refused")
	}

	res, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres sink")
	last := res.Stages[len(res.Stages)-1]
	assert.Equal(t, StageSinks, last.Name)
	assert.Equal(t, metrics.StatusError, last.Status)
}

func TestRun_NoInput(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()

	_, err := New(cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestRun_LoadFailure(t *testing.T) {
	cfg := testConfig(t, "# only comments\n")

	res, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	require.Len(t, res.Stages, 1)
	assert.Equal(t, StageLoad, res.Stages[0].Name)
	assert.Equal(t, metrics.StatusError, res.Stages[0].Status)
	assert.NoDirExists(t, cfg.Output.Dir, "nothing is written when loading fails")
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsStages(t *testing.T) {
	cfg := testConfig(t, ringEdges)
	var buf bytes.Buffer

	res, err := New(cfg, WithLogger(logging.NewJSONLogger(&buf, logging.InfoLevel))).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"run started"`)
	assert.Contains(t, out, `"stage finished"`)
	assert.Contains(t, out, res.RunID)
	assert.Equal(t, len(Stages), strings.Count(out, `"stage finished"`))
}

func TestInfo(t *testing.T) {
	cfg := testConfig(t, "1 2\n2 3\n")
	cfg.Input.Delimiter = " "

	res, err := New(cfg).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Info.Nodes)
	assert.Equal(t, 2, res.Info.Edges)
	assert.Equal(t, 2, res.LoadStats.Edges)
	assert.Len(t, res.Stages, 2)
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestResult_Summary(t *testing.T) {
	cfg := testConfig(t, "1\t2\n1\t3\n1\t4\n")

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	s := res.Summary(1, cfg.Output.Dir)
	assert.Equal(t, res.RunID, s.RunID)
	assert.Equal(t, 1, s.Components)
	assert.Equal(t, 4, s.LargestComponent)
	require.Len(t, s.Centrality, 4)
	assert.Equal(t, sink.KindDegree, s.Centrality[0].Kind)
	assert.Equal(t, []report.RankedNode{{Node: 1, Score: 3}}, s.Centrality[0].Top)
	assert.Len(t, s.Stages, len(Stages))
}
