// Package flowgraph derives the causation and correlation structure
// between the events currently in the window.
//
// Nodes are event IDs. A causation edge points from an event to the
// event that caused it; every node has at most one. Correlation edges
// connect events sharing a correlation ID and are undirected. When a
// pair of events is linked both ways, the causation edge wins and no
// correlation edge is kept for that pair.
//
// The graph is not safe for concurrent use. The engine owns it and
// serializes all access behind its own lock.
package flowgraph

import "sort"

// EdgeKind distinguishes the two relationship types.
type EdgeKind string

const (
	// KindCausation links an event to its direct cause.
	KindCausation EdgeKind = "causation"
	// KindCorrelation links events sharing a correlation ID.
	KindCorrelation EdgeKind = "correlation"
)

// Edge weights used by the force layout. Causation pulls harder than
// correlation.
const (
	CausationWeight   = 1.0
	CorrelationWeight = 0.3
)

// Edge is a single relationship between two events in the window.
// Causation edges run From child To cause. Correlation edges are
// undirected; From/To order is canonical (lexicographic) so each pair
// appears once.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight"`
}

// Graph holds the live relationship structure.
type Graph struct {
	nodes map[string]struct{}

	// causeOf maps child -> cause. At most one entry per child.
	causeOf map[string]string
	// causedBy maps cause -> set of children, for O(1) cascade on
	// removal.
	causedBy map[string]map[string]struct{}

	// correlated is a symmetric adjacency map.
	correlated map[string]map[string]struct{}

	edgeCount int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]struct{}),
		causeOf:    make(map[string]string),
		causedBy:   make(map[string]map[string]struct{}),
		correlated: make(map[string]map[string]struct{}),
	}
}

// OnInsert registers a newly ingested event. causationID names the
// event that caused it ("" for none) and correlates lists the IDs of
// other window events sharing its correlation ID. Links to events not
// currently in the graph are ignored, so causes that were never seen
// or already evicted leave no dangling edges.
func (g *Graph) OnInsert(id, causationID string, correlates []string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}

	if causationID != "" && causationID != id {
		if _, ok := g.nodes[causationID]; ok {
			g.causeOf[id] = causationID
			children := g.causedBy[causationID]
			if children == nil {
				children = make(map[string]struct{})
				g.causedBy[causationID] = children
			}
			children[id] = struct{}{}
			g.edgeCount++
		}
	}

	for _, other := range correlates {
		if other == id {
			continue
		}
		if _, ok := g.nodes[other]; !ok {
			continue
		}
		if g.causationLinked(id, other) {
			continue
		}
		g.addCorrelation(id, other)
	}
}

// OnRemove drops a node and every edge touching it. Removing an
// unknown node is a no-op.
func (g *Graph) OnRemove(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)

	if cause, ok := g.causeOf[id]; ok {
		delete(g.causeOf, id)
		g.dropChild(cause, id)
		g.edgeCount--
	}
	for child := range g.causedBy[id] {
		delete(g.causeOf, child)
		g.edgeCount--
	}
	delete(g.causedBy, id)

	for other := range g.correlated[id] {
		delete(g.correlated[other], id)
		if len(g.correlated[other]) == 0 {
			delete(g.correlated, other)
		}
		g.edgeCount--
	}
	delete(g.correlated, id)
}

// Edges returns every edge in the graph in a deterministic order:
// causation edges sorted by child, then correlation edges sorted by
// canonical pair.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)

	children := make([]string, 0, len(g.causeOf))
	for child := range g.causeOf {
		children = append(children, child)
	}
	sort.Strings(children)
	for _, child := range children {
		edges = append(edges, Edge{
			From: child, To: g.causeOf[child],
			Kind: KindCausation, Weight: CausationWeight,
		})
	}

	pairs := make([]Edge, 0, g.edgeCount-len(children))
	for a, others := range g.correlated {
		for b := range others {
			if a < b {
				pairs = append(pairs, Edge{
					From: a, To: b,
					Kind: KindCorrelation, Weight: CorrelationWeight,
				})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	return append(edges, pairs...)
}

// EdgesOf returns the edges incident to id, in the same ordering as
// Edges.
func (g *Graph) EdgesOf(id string) []Edge {
	var edges []Edge
	if cause, ok := g.causeOf[id]; ok {
		edges = append(edges, Edge{From: id, To: cause, Kind: KindCausation, Weight: CausationWeight})
	}
	children := make([]string, 0, len(g.causedBy[id]))
	for child := range g.causedBy[id] {
		children = append(children, child)
	}
	sort.Strings(children)
	for _, child := range children {
		edges = append(edges, Edge{From: child, To: id, Kind: KindCausation, Weight: CausationWeight})
	}
	others := make([]string, 0, len(g.correlated[id]))
	for other := range g.correlated[id] {
		others = append(others, other)
	}
	sort.Strings(others)
	for _, other := range others {
		a, b := id, other
		if b < a {
			a, b = b, a
		}
		edges = append(edges, Edge{From: a, To: b, Kind: KindCorrelation, Weight: CorrelationWeight})
	}
	return edges
}

// Neighbors returns the IDs connected to id by any edge, sorted.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]struct{})
	if cause, ok := g.causeOf[id]; ok {
		seen[cause] = struct{}{}
	}
	for child := range g.causedBy[id] {
		seen[child] = struct{}{}
	}
	for other := range g.correlated[id] {
		seen[other] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the node is in the graph.
func (g *Graph) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting each correlation
// pair once.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Degree returns how many edges touch the node.
func (g *Graph) Degree(id string) int {
	d := len(g.correlated[id]) + len(g.causedBy[id])
	if _, ok := g.causeOf[id]; ok {
		d++
	}
	return d
}

func (g *Graph) causationLinked(a, b string) bool {
	return g.causeOf[a] == b || g.causeOf[b] == a
}

func (g *Graph) addCorrelation(a, b string) {
	if _, ok := g.correlated[a][b]; ok {
		return
	}
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		adj := g.correlated[pair[0]]
		if adj == nil {
			adj = make(map[string]struct{})
			g.correlated[pair[0]] = adj
		}
		adj[pair[1]] = struct{}{}
	}
	g.edgeCount++
}

func (g *Graph) dropChild(cause, child string) {
	children := g.causedBy[cause]
	delete(children, child)
	if len(children) == 0 {
		delete(g.causedBy, cause)
	}
}
