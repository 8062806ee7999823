package report

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

func TestSummarize(t *testing.T) {
	s := Summarize(map[graph.NodeID]float64{10: 4, 11: 1, 12: 3, 13: 2})

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 4.0, s.P90)
	assert.Equal(t, 4.0, s.P99)
}

func TestSummarize_EdgeCases(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	single := Summarize(map[graph.NodeID]float64{1: 0.5})
	assert.Equal(t, 1, single.Count)
	assert.Equal(t, 0.5, single.Mean)
	assert.Zero(t, single.StdDev)
	assert.Equal(t, 0.5, single.Median)
}

func TestDegreeSummary(t *testing.T) {
	// star with five leaves: degrees 5,1,1,1,1,1
	s := DegreeSummary(map[int]int{5: 1, 1: 5})

	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 10.0/6.0, s.Mean, 1e-12)
	assert.Equal(t, 1.0, s.Median)
	assert.Equal(t, 5.0, s.P99)

	assert.Equal(t, Summary{}, DegreeSummary(nil))
	assert.Equal(t, Summary{}, DegreeSummary(map[int]int{3: 0}))
}

func TestTopN(t *testing.T) {
	scores := map[graph.NodeID]float64{
		1: 0.5,
		2: 2.0,
		3: 1.0,
		4: 2.0,
		5: 0.1,
		6: 1.0,
	}

	top := TopN(scores, 4)
	assert.Equal(t, []RankedNode{
		{Node: 2, Score: 2.0},
		{Node: 4, Score: 2.0},
		{Node: 3, Score: 1.0},
		{Node: 6, Score: 1.0},
	}, top)
}

func TestTopN_Bounds(t *testing.T) {
	scores := map[graph.NodeID]float64{7: 1, 8: 3}

	assert.Nil(t, TopN(scores, 0))
	assert.Nil(t, TopN(nil, 5))
	assert.Equal(t, []RankedNode{{Node: 8, Score: 3}, {Node: 7, Score: 1}}, TopN(scores, 10))
}

func TestTopN_DeterministicUnderTies(t *testing.T) {
	scores := make(map[graph.NodeID]float64)
	for id := graph.NodeID(1); id <= 100; id++ {
		scores[id] = 1
	}

	for i := 0; i < 20; i++ {
		top := TopN(scores, 3)
		require.Len(t, top, 3)
		assert.Equal(t, []graph.NodeID{1, 2, 3}, []graph.NodeID{top[0].Node, top[1].Node, top[2].Node})
	}
}

func TestDegreeBin(t *testing.T) {
	tests := []struct {
		degree int
		bin    int
		label  string
	}{
		{0, 0, "0"},
		{1, 1, "1"},
		{2, 2, "2-3"},
		{3, 2, "2-3"},
		{4, 3, "4-7"},
		{1000, 10, "512-1023"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bin, degreeBin(tt.degree), "degree %d", tt.degree)
		assert.Equal(t, tt.label, binLabel(tt.bin), "bin %d", tt.bin)
	}
}

func TestDegreeHistogram(t *testing.T) {
	out := DegreeHistogram(map[int]int{1: 100, 2: 10, 3: 10, 9: 1}, 20)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], strings.Repeat("█", 20)+" 100")
	assert.Contains(t, lines[1], "2-3")
	assert.Contains(t, lines[1], strings.Repeat("█", 4)+" 20")
	assert.Contains(t, lines[2], "8-15")
	assert.Contains(t, lines[2], "█ 1", "small bins still get one block")

	assert.Empty(t, DegreeHistogram(nil, 20))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, RunSummary{
		RunID:             "run-123",
		Input:             "edges.tsv",
		Graph:             graph.Info{Nodes: 4, Edges: 3, MaxDegree: 2},
		AveragePathLength: 1.3333,
		PathPairs:         12,
		Communities:       2,
		Degree:            map[int]int{1: 2, 2: 2},
		Centrality: []CentralitySection{{
			Kind:    "closeness",
			Summary: Summary{Count: 2, Max: 0.75},
			Top:     []RankedNode{{Node: 2, Score: 0.75}},
		}},
		Stages: []StageLine{
			{Name: "load", Status: "success", Duration: 1500 * time.Millisecond},
			{Name: "sinks", Status: "error", Err: "disk full"},
		},
		OutputDir: "results",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "graphstats: edges.tsv")
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "1.3333 (12 pairs)")
	assert.Contains(t, out, "closeness centrality")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "2-3")
	assert.Contains(t, out, "error: disk full")
	assert.Contains(t, out, "results")
}

func TestPlotDegreeDistribution(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlotFile)

	err := PlotDegreeDistribution(path, map[int]int{0: 3, 1: 50, 2: 20, 5: 4, 40: 1})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestPlotDegreeDistribution_SinglePoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlotFile)
	require.NoError(t, PlotDegreeDistribution(path, map[int]int{1: 1}))
	assert.FileExists(t, path)
}

func TestPlotDegreeDistribution_NothingToPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlotFile)

	assert.ErrorIs(t, PlotDegreeDistribution(path, nil), ErrNothingToPlot)
	assert.ErrorIs(t, PlotDegreeDistribution(path, map[int]int{0: 5}), ErrNothingToPlot)
	assert.NoFileExists(t, path)
}
