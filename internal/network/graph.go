// Package network holds the directed reference river network graph used
// for reachability pruning. Nodes are the integer junction identifiers of
// the reference dataset; edges point in flow direction.
package network

import (
	"flood-platform/internal/models"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is a read-only directed river network. It is built once per
// pipeline run and queried for descendant sets; it is never mutated by
// the pipeline after construction.
type Graph struct {
	g         *simple.DirectedGraph
	selfLoops bool
}

// New creates an empty river network graph
func New() *Graph {
	return &Graph{g: simple.NewDirectedGraph()}
}

// BuildFromFeatures constructs the network graph from reference features,
// adding one edge per feature from its first node to its last node.
func BuildFromFeatures(features []models.RiverFeature) *Graph {
	g := New()
	for _, f := range features {
		g.AddEdge(f.FirstNode, f.LastNode)
	}
	return g
}

// AddEdge adds a directed edge between two junction nodes, creating the
// nodes as needed. A self-referencing feature is recorded as a cycle and
// surfaced by Validate rather than inserted.
func (g *Graph) AddEdge(from, to int64) {
	if from == to {
		g.selfLoops = true
		return
	}
	g.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
}

// HasNode reports whether the junction identifier exists in the graph
func (g *Graph) HasNode(id int64) bool {
	return g.g.Node(id) != nil
}

// NodeCount returns the number of junction nodes in the graph
func (g *Graph) NodeCount() int {
	return g.g.Nodes().Len()
}

// Validate checks that the graph is acyclic along flow direction. A cycle
// makes reachability pruning undefined, so it is a fatal configuration
// error rather than a data-quality exclusion.
func (g *Graph) Validate() error {
	if g.selfLoops {
		return &models.ConfigurationError{
			Subject: "river network",
			Message: "network contains a self-referencing segment (cycle along flow direction)",
		}
	}

	if _, err := topo.Sort(g.g); err != nil {
		return &models.ConfigurationError{
			Subject: "river network",
			Message: "network contains a cycle along flow direction",
		}
	}

	return nil
}

// Descendants returns the set of nodes reachable from the given node by
// directed traversal, excluding the node itself. An unknown node yields
// an empty set.
func (g *Graph) Descendants(id int64) map[int64]struct{} {
	reached := make(map[int64]struct{})
	if g.g.Node(id) == nil {
		return reached
	}

	stack := []int64{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := g.g.From(current)
		for children.Next() {
			child := children.Node().ID()
			if _, seen := reached[child]; seen {
				continue
			}
			reached[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	delete(reached, id)
	return reached
}
