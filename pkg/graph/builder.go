package graph

// Builder accumulates nodes and half-edges and freezes them into a Graph.
// It is not safe for concurrent use.
type Builder struct {
	ids   []NodeID
	index map[NodeID]int32
	rows  [][]int32
	half  int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[NodeID]int32)}
}

// NewBuilderWithCapacity preallocates room for roughly n nodes.
func NewBuilderWithCapacity(n int) *Builder {
	if n < 0 {
		n = 0
	}
	return &Builder{
		ids:   make([]NodeID, 0, n),
		index: make(map[NodeID]int32, n),
		rows:  make([][]int32, 0, n),
	}
}

func (b *Builder) intern(id NodeID) int32 {
	if i, ok := b.index[id]; ok {
		return i
	}
	i := int32(len(b.ids))
	b.ids = append(b.ids, id)
	b.rows = append(b.rows, nil)
	b.index[id] = i
	return i
}

// AddNode registers id without adding any neighbours. Registering an
// existing node is a no-op.
func (b *Builder) AddNode(id NodeID) {
	b.intern(id)
}

// AddEdge records the undirected edge (u, v): v is appended to u's sequence
// and u to v's. A self-loop appends u to its own sequence twice.
func (b *Builder) AddEdge(u, v NodeID) {
	iu := b.intern(u)
	iv := b.intern(v)
	b.rows[iu] = append(b.rows[iu], iv)
	b.rows[iv] = append(b.rows[iv], iu)
	b.half += 2
}

// AddNeighbors appends raw half-edges to id's sequence without inserting the
// reverse direction. Neighbours not yet known are registered as nodes, so
// the resulting graph is closed over its neighbour references.
func (b *Builder) AddNeighbors(id NodeID, neighbors ...NodeID) {
	i := b.intern(id)
	for _, n := range neighbors {
		j := b.intern(n)
		b.rows[i] = append(b.rows[i], j)
	}
	b.half += len(neighbors)
}

// NodeCount returns the number of nodes registered so far.
func (b *Builder) NodeCount() int {
	return len(b.ids)
}

// Build freezes the accumulated state into a Graph. The builder must not be
// used afterwards.
func (b *Builder) Build() *Graph {
	g := &Graph{
		ids:     b.ids,
		index:   b.index,
		offsets: make([]int, len(b.ids)+1),
		adj:     make([]int32, 0, b.half),
	}
	for i, row := range b.rows {
		g.adj = append(g.adj, row...)
		g.offsets[i+1] = len(g.adj)
	}
	if g.ids == nil {
		g.ids = []NodeID{}
	}
	b.ids, b.index, b.rows = nil, nil, nil
	return g
}
