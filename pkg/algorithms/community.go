package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// Community is one group of nodes sharing a label.
type Community struct {
	Label graph.NodeID   // representative node
	Nodes []graph.NodeID // members, ascending
	Size  int
}

// GroupCommunities inverts a label assignment into communities. Members are
// sorted ascending; communities are ordered by size (largest first), then
// by label.
func GroupCommunities(labels map[graph.NodeID]graph.NodeID) []*Community {
	byLabel := make(map[graph.NodeID]*Community)
	for node, label := range labels {
		c, ok := byLabel[label]
		if !ok {
			c = &Community{Label: label}
			byLabel[label] = c
		}
		c.Nodes = append(c.Nodes, node)
	}

	communities := make([]*Community, 0, len(byLabel))
	for _, c := range byLabel {
		sort.Slice(c.Nodes, func(i, j int) bool { return c.Nodes[i] < c.Nodes[j] })
		c.Size = len(c.Nodes)
		communities = append(communities, c)
	}

	sort.Slice(communities, func(i, j int) bool {
		if communities[i].Size != communities[j].Size {
			return communities[i].Size > communities[j].Size
		}
		return communities[i].Label < communities[j].Label
	})
	return communities
}

// Modularity computes Newman's modularity of a label assignment over the raw
// multigraph:
//
//	Q = L_in/2m - Σ_c (K_c/2m)²
//
// where 2m is the half-edge count, L_in the number of half-edges whose
// endpoints share a label, and K_c the degree sum of community c. Nodes
// missing from labels are treated as singletons. Returns 0 for a graph
// without edges.
func Modularity(g *graph.Graph, labels map[graph.NodeID]graph.NodeID) float64 {
	twoM := float64(g.HalfEdgeCount())
	if twoM == 0 {
		return 0.0
	}

	label := func(i int32) graph.NodeID {
		id := g.IDAt(i)
		if l, ok := labels[id]; ok {
			return l
		}
		return id
	}

	var inside float64
	degreeSum := make(map[graph.NodeID]float64)
	for i := int32(0); int(i) < g.Len(); i++ {
		li := label(i)
		degreeSum[li] += float64(g.DegreeAt(i))
		for _, j := range g.AdjacentAt(i) {
			if label(j) == li {
				inside++
			}
		}
	}

	q := inside / twoM
	for _, k := range degreeSum {
		q -= (k / twoM) * (k / twoM)
	}
	return q
}
