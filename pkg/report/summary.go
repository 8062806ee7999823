// Package report turns raw analysis results into human-facing output: score
// summaries, top-n rankings, a terminal summary and a degree plot.
package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// Summary describes the distribution of a score map.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Median float64 `json:"median" yaml:"median"`
	P90    float64 `json:"p90" yaml:"p90"`
	P99    float64 `json:"p99" yaml:"p99"`
}

// Summarize computes count, extremes, mean, sample standard deviation and
// empirical quantiles of the scores. An empty map yields the zero Summary;
// a single score has a standard deviation of 0.
func Summarize(scores map[graph.NodeID]float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}

	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		values = append(values, s)
	}
	sort.Float64s(values)

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}

	return Summary{
		Count:  len(values),
		Min:    values[0],
		Max:    values[len(values)-1],
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, values, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, values, nil),
	}
}

// DegreeSummary summarizes a degree histogram as if every node were listed
// individually.
func DegreeSummary(dist map[int]int) Summary {
	if len(dist) == 0 {
		return Summary{}
	}

	degrees := make([]float64, 0, len(dist))
	weights := make([]float64, 0, len(dist))
	keys := make([]int, 0, len(dist))
	for d := range dist {
		keys = append(keys, d)
	}
	sort.Ints(keys)

	count := 0
	for _, d := range keys {
		if dist[d] <= 0 {
			continue
		}
		degrees = append(degrees, float64(d))
		weights = append(weights, float64(dist[d]))
		count += dist[d]
	}
	if count == 0 {
		return Summary{}
	}

	mean, std := stat.MeanStdDev(degrees, weights)
	if count < 2 {
		std = 0
	}

	return Summary{
		Count:  count,
		Min:    degrees[0],
		Max:    degrees[len(degrees)-1],
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, degrees, weights),
		P90:    stat.Quantile(0.9, stat.Empirical, degrees, weights),
		P99:    stat.Quantile(0.99, stat.Empirical, degrees, weights),
	}
}
