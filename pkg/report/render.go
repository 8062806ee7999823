package report

import (
	"fmt"
	"io"
	"math/bits"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(22)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

// histogramWidth is the length of the longest bar.
const histogramWidth = 40

// CentralitySection is the rendered block for one centrality measure.
type CentralitySection struct {
	Kind    string
	Summary Summary
	Top     []RankedNode
}

// StageLine is one row of the stage timing table.
type StageLine struct {
	Name     string
	Status   string
	Duration time.Duration
	Err      string
}

// RunSummary is everything the terminal summary shows.
type RunSummary struct {
	RunID             string
	Input             string
	Graph             graph.Info
	AveragePathLength float64
	PathPairs         int64
	Communities       int
	LargestCommunity  int
	Modularity        float64
	Clustering        float64
	Components        int
	LargestComponent  int
	Degree            map[int]int
	Centrality        []CentralitySection
	Stages            []StageLine
	OutputDir         string
}

// Render writes a styled summary of a run to w.
func Render(w io.Writer, s RunSummary) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("graphstats: " + s.Input))
	b.WriteString("\n")

	b.WriteString(boxStyle.Render(renderOverview(s)))
	b.WriteString("\n\n")

	if len(s.Degree) > 0 {
		b.WriteString(headerStyle.Render("Degree distribution (log2 bins)"))
		b.WriteString("\n")
		b.WriteString(DegreeHistogram(s.Degree, histogramWidth))
		b.WriteString("\n")
	}

	for _, c := range s.Centrality {
		b.WriteString(renderCentrality(c))
		b.WriteString("\n")
	}

	if len(s.Stages) > 0 {
		b.WriteString(headerStyle.Render("Stages"))
		b.WriteString("\n")
		for _, st := range s.Stages {
			b.WriteString(renderStage(st))
			b.WriteString("\n")
		}
	}

	if s.OutputDir != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("results written to"))
		b.WriteString(s.OutputDir)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderOverview(s RunSummary) string {
	rows := [][2]string{
		{"run", s.RunID},
		{"nodes", fmt.Sprintf("%d", s.Graph.Nodes)},
		{"edges", fmt.Sprintf("%d", s.Graph.Edges)},
		{"isolated nodes", fmt.Sprintf("%d", s.Graph.Isolated)},
		{"max degree", fmt.Sprintf("%d", s.Graph.MaxDegree)},
		{"avg shortest path", fmt.Sprintf("%.4f (%d pairs)", s.AveragePathLength, s.PathPairs)},
		{"communities", fmt.Sprintf("%d (largest %d)", s.Communities, s.LargestCommunity)},
		{"modularity", fmt.Sprintf("%.4f", s.Modularity)},
		{"components", fmt.Sprintf("%d (largest %d)", s.Components, s.LargestComponent)},
		{"avg clustering", fmt.Sprintf("%.4f", s.Clustering)},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+r[1])
	}
	return strings.Join(lines, "\n")
}

func renderCentrality(c CentralitySection) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(c.Kind + " centrality"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  n=%d min=%.4g max=%.4g mean=%.4g sd=%.4g p50=%.4g p90=%.4g p99=%.4g\n",
		c.Summary.Count, c.Summary.Min, c.Summary.Max, c.Summary.Mean,
		c.Summary.StdDev, c.Summary.Median, c.Summary.P90, c.Summary.P99)
	for i, r := range c.Top {
		fmt.Fprintf(&b, "  %2d. %-12d %.6g\n", i+1, r.Node, r.Score)
	}
	return b.String()
}

func renderStage(st StageLine) string {
	status := successStyle.Render(st.Status)
	if st.Err != "" {
		status = errorStyle.Render(st.Status + ": " + st.Err)
	}
	return fmt.Sprintf("  %s %10s  %s", labelStyle.Render(st.Name), st.Duration.Round(time.Millisecond), status)
}

// degreeBin returns the log2 bin of a degree: 0 for degree 0, otherwise
// 1 + floor(log2(d)), so bin b>0 holds degrees [2^(b-1), 2^b).
func degreeBin(d int) int {
	if d <= 0 {
		return 0
	}
	return bits.Len(uint(d))
}

// binLabel names the degree range of a bin.
func binLabel(bin int) string {
	if bin == 0 {
		return "0"
	}
	lo := 1 << (bin - 1)
	hi := (1 << bin) - 1
	if lo == hi {
		return fmt.Sprintf("%d", lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// DegreeHistogram draws the degree distribution as horizontal bars, one per
// power-of-two degree range. The longest bar is width characters.
func DegreeHistogram(dist map[int]int, width int) string {
	if len(dist) == 0 || width <= 0 {
		return ""
	}

	counts := make(map[int]int)
	maxCount := 0
	for d, c := range dist {
		bin := degreeBin(d)
		counts[bin] += c
		if counts[bin] > maxCount {
			maxCount = counts[bin]
		}
	}
	if maxCount == 0 {
		return ""
	}

	bins := make([]int, 0, len(counts))
	for bin := range counts {
		bins = append(bins, bin)
	}
	sort.Ints(bins)

	var b strings.Builder
	for _, bin := range bins {
		c := counts[bin]
		n := c * width / maxCount
		if n == 0 && c > 0 {
			n = 1
		}
		fmt.Fprintf(&b, "  %12s | %s %d\n", binLabel(bin), barStyle.Render(strings.Repeat("█", n)), c)
	}
	return b.String()
}
