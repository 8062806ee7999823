package algorithms

import (
	"math/rand/v2"
	"runtime"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// Sampler chooses the source nodes explored by the sampled estimators.
// Implementations must return at most k distinct nodes of g.
type Sampler interface {
	Sample(g *graph.Graph, k int) []graph.NodeID
	String() string
}

// FirstK takes the first k nodes in the graph's iteration order. It is cheap
// and reproducible but biased towards whatever the loader saw first.
type FirstK struct{}

// Sample implements Sampler.
func (FirstK) Sample(g *graph.Graph, k int) []graph.NodeID {
	k = clampSample(k, g.Len())
	out := make([]graph.NodeID, k)
	for i := 0; i < k; i++ {
		out[i] = g.IDAt(int32(i))
	}
	return out
}

func (FirstK) String() string { return "first" }

// UniformSample draws k distinct nodes uniformly at random. The same seed on
// the same graph always yields the same sample.
type UniformSample struct {
	Seed uint64
}

// Sample implements Sampler using a partial Fisher-Yates shuffle over a
// sparse permutation, so it costs O(k) regardless of graph size.
func (u UniformSample) Sample(g *graph.Graph, k int) []graph.NodeID {
	n := g.Len()
	k = clampSample(k, n)
	r := newRand(u.Seed)

	swapped := make(map[int]int, k)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}

	out := make([]graph.NodeID, k)
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		vi, vj := at(i), at(j)
		swapped[i], swapped[j] = vj, vi
		out[i] = g.IDAt(int32(vj))
	}
	return out
}

func (u UniformSample) String() string { return "uniform" }

// newRand returns a deterministic generator for seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// clampSample bounds a requested sample size to [0, n].
func clampSample(k, n int) int {
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

// Option configures the sampled estimators.
type Option func(*options)

type options struct {
	sampler Sampler
	workers int
}

func defaultOptions() options {
	return options{
		sampler: FirstK{},
		workers: runtime.NumCPU(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSampler selects how source nodes are chosen. The default is FirstK.
func WithSampler(s Sampler) Option {
	return func(o *options) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithWorkers bounds the number of goroutines used by parallel estimators.
// Values below 1 fall back to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		} else {
			o.workers = runtime.NumCPU()
		}
	}
}

// sampleIndices resolves the sampler's choice to dense indices, dropping
// duplicates and unknown nodes.
func sampleIndices(g *graph.Graph, k int, s Sampler) []int32 {
	ids := s.Sample(g, k)
	seen := make(map[int32]struct{}, len(ids))
	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		i, ok := g.IndexOf(id)
		if !ok {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}
