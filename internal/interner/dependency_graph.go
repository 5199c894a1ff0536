package interner

import "github.com/latticec/zkmid/internal/hir"

// DependencyKind distinguishes what a DependencyId addresses, so HasCycle
// can answer spec.md §4.1's two different coherence questions with one
// graph: a struct that recursively contains itself can never be laid out
// and must be rejected, but two functions that call each other are
// ordinary, legal recursion.
type DependencyKind int

const (
	DependencyType DependencyKind = iota
	DependencyFunction
)

// DependencyId is one node in the graph: either a struct/enum TypeId or a
// FuncId, tagged so StronglyConnectedComponents' cycles can be filtered by
// kind.
type DependencyId struct {
	Kind DependencyKind
	Type hir.TypeId
	Func hir.FuncId
}

func TypeDependency(id hir.TypeId) DependencyId { return DependencyId{Kind: DependencyType, Type: id} }
func FuncDependency(id hir.FuncId) DependencyId { return DependencyId{Kind: DependencyFunction, Func: id} }

// DependencyGraph tracks "type/function A contains/calls B" edges so the
// driver can reject cycles through struct/enum field types (a struct whose
// field transitively contains itself has no finite layout) while still
// permitting ordinary function recursion. No teacher analogue exists for
// this; it is implemented directly against spec.md §4.1's coherence
// requirements using a plain adjacency list and Tarjan's algorithm, both
// standard-library-only since no example repo in the pack imports a graph
// library for this kind of bookkeeping.
type DependencyGraph struct {
	adj map[DependencyId][]DependencyId
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{adj: make(map[DependencyId][]DependencyId)}
}

func (g *DependencyGraph) AddEdge(from, to DependencyId) {
	g.adj[from] = append(g.adj[from], to)
}

// StronglyConnectedComponents returns the graph's SCCs via Tarjan's
// algorithm, in an unspecified order. A component of size > 1, or a
// self-loop, indicates a cycle.
func (g *DependencyGraph) StronglyConnectedComponents() [][]DependencyId {
	t := &tarjan{
		graph:   g,
		index:   make(map[DependencyId]int),
		lowlink: make(map[DependencyId]int),
		onStack: make(map[DependencyId]bool),
	}
	nodes := make([]DependencyId, 0, len(g.adj))
	for n := range g.adj {
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		if _, visited := t.index[n]; !visited {
			t.strongConnect(n)
		}
	}
	return t.result
}

type tarjan struct {
	graph   *DependencyGraph
	counter int
	index   map[DependencyId]int
	lowlink map[DependencyId]int
	onStack map[DependencyId]bool
	stack   []DependencyId
	result  [][]DependencyId
}

func (t *tarjan) strongConnect(v DependencyId) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph.adj[v] {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var component []DependencyId
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, component)
	}
}

// HasCycle reports whether any non-trivial SCC (or self-loop) made entirely
// of kind-tagged nodes exists. Passing DependencyType catches a recursive
// struct/enum (spec.md §8 scenario 5); passing DependencyFunction would
// flag mutually recursive functions, which spec.md §4.1 explicitly permits,
// so the driver never calls it with that kind.
func (g *DependencyGraph) HasCycle(kind DependencyKind) bool {
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 && allKind(comp, kind) {
			return true
		}
	}
	for n, edges := range g.adj {
		if n.Kind != kind {
			continue
		}
		for _, e := range edges {
			if e == n {
				return true
			}
		}
	}
	return false
}

func allKind(comp []DependencyId, kind DependencyKind) bool {
	for _, n := range comp {
		if n.Kind != kind {
			return false
		}
	}
	return true
}
