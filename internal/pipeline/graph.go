package pipeline

import (
	"sort"

	"github.com/packsmith/pipegen/internal/spec"
)

// Node is a single vertex in the pipeline graph, wrapping one concrete spec
// together with its incoming and outgoing edges. Edges are stored as content
// hashes rather than pointers; the owning Graph resolves them on demand.
type Node struct {
	spec       *spec.ConcreteSpec
	deps       map[string]struct{}
	dependents map[string]struct{}
}

// Spec returns the concrete spec this node represents.
func (n *Node) Spec() *spec.ConcreteSpec { return n.spec }

// ID returns the node's identity, which is its spec's content hash.
func (n *Node) ID() string { return n.spec.Hash() }

// Graph is the shared DAG of concrete specs reachable from a set of declared
// roots. It is safe for concurrent reads after Build returns.
type Graph struct {
	nodes map[string]*Node
	roots []string
}

// Node returns the node with the given identity, or false if no such node
// exists in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of distinct nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns the identities of every node, sorted by (package name, hash)
// so iteration over the graph is deterministic.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	g.sortIDs(ids)
	return ids
}

// Roots returns the identities of the declared root nodes, sorted.
func (g *Graph) Roots() []string {
	roots := make([]string, len(g.roots))
	copy(roots, g.roots)
	g.sortIDs(roots)
	return roots
}

// Dependencies returns the identities of the given node's direct
// dependencies, sorted. The second return value is false when the node does
// not exist.
func (g *Graph) Dependencies(id string) ([]string, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return g.sortedSet(n.deps), true
}

// Dependents returns the identities of the nodes that directly depend on the
// given node, sorted.
func (g *Graph) Dependents(id string) ([]string, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return g.sortedSet(n.dependents), true
}

func (g *Graph) sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	g.sortIDs(out)
	return out
}

// sortIDs orders identities by package name first so human-facing output
// (stages, job lists) groups naturally, falling back to the hash for ties.
func (g *Graph) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := g.nodes[ids[i]], g.nodes[ids[j]]
		if ni.spec.Name() != nj.spec.Name() {
			return ni.spec.Name() < nj.spec.Name()
		}
		return ids[i] < ids[j]
	})
}
