// Package graph builds dependency graphs of workbook fields.
package graph

import (
	"fmt"

	"github.com/hovinh/tableau-report-gen/analyzer/formula"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

// Node is a typed graph vertex; richer metadata stays in the tables, looked up by ID
type Node struct {
	ID         linage.Ref      `yaml:"id" json:"id"`
	Kind       linage.NodeKind `yaml:"type" json:"type"`
	Label      string          `yaml:"label" json:"label"`
	DataSource string          `yaml:"dataSource,omitempty" json:"dataSource,omitempty"`
}

// Edge points from a referenced node toward the node that uses it
type Edge struct {
	Source linage.Ref      `yaml:"source" json:"source"`
	Target linage.Ref      `yaml:"target" json:"target"`
	Label  string          `yaml:"label,omitempty" json:"label,omitempty"`
	Kind   linage.EdgeKind `yaml:"kind" json:"kind"`
}

// Diagnostics collects non-fatal findings of a graph build
type Diagnostics struct {
	// UnresolvedReferences counts unresolved formula tokens, once per formula
	UnresolvedReferences int                        `yaml:"unresolvedReferences" json:"unresolvedReferences"`
	Unresolved           []formula.Unresolved       `yaml:"unresolved,omitempty" json:"unresolved,omitempty"`
	Warnings             []linage.ResolutionWarning `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	// SkippedUses counts worksheet field uses that match no field of the tables
	SkippedUses int            `yaml:"skippedUses,omitempty" json:"skippedUses,omitempty"`
	Cycles      [][]linage.Ref `yaml:"cycles,omitempty" json:"cycles,omitempty"`
}

type edgeKey struct {
	source linage.Ref
	target linage.Ref
	label  string
}

// Graph is an adjacency structure with deduplicated nodes and edges; cycles are allowed
type Graph struct {
	Worksheet   string      `yaml:"worksheet,omitempty" json:"worksheet,omitempty"`
	Nodes       []*Node     `yaml:"nodes" json:"nodes"`
	Edges       []*Edge     `yaml:"edges" json:"edges"`
	Diagnostics Diagnostics `yaml:"diagnostics" json:"diagnostics"`

	nodes map[linage.Ref]*Node
	edges map[edgeKey]bool
	out   map[linage.Ref][]linage.Ref
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		Nodes: []*Node{},
		Edges: []*Edge{},
		nodes: make(map[linage.Ref]*Node),
		edges: make(map[edgeKey]bool),
		out:   make(map[linage.Ref][]linage.Ref),
	}
}

// AddNode adds node unless a node with the same ID exists; it returns true if added
func (g *Graph) AddNode(node *Node) bool {
	if _, ok := g.nodes[node.ID]; ok {
		return false
	}
	g.nodes[node.ID] = node
	g.Nodes = append(g.Nodes, node)
	return true
}

// Node returns a node by ID
func (g *Graph) Node(id linage.Ref) *Node {
	return g.nodes[id]
}

// AddEdge adds edge once per (source, target, label); both endpoints must already exist
func (g *Graph) AddEdge(edge *Edge) error {
	if _, ok := g.nodes[edge.Source]; !ok {
		return fmt.Errorf("edge source %s is not a node", edge.Source)
	}
	if _, ok := g.nodes[edge.Target]; !ok {
		return fmt.Errorf("edge target %s is not a node", edge.Target)
	}
	key := edgeKey{source: edge.Source, target: edge.Target, label: edge.Label}
	if g.edges[key] {
		return nil
	}
	g.edges[key] = true
	g.Edges = append(g.Edges, edge)
	g.out[edge.Source] = append(g.out[edge.Source], edge.Target)
	return nil
}

// HasEdge returns true if an edge from source to target exists, with any label
func (g *Graph) HasEdge(source, target linage.Ref) bool {
	for _, next := range g.out[source] {
		if next == target {
			return true
		}
	}
	return false
}

// Successors returns the targets of edges leaving id
func (g *Graph) Successors(id linage.Ref) []linage.Ref {
	return g.out[id]
}

// NodesOf returns nodes of the given kind in insertion order
func (g *Graph) NodesOf(kind linage.NodeKind) []*Node {
	var result []*Node
	for _, node := range g.Nodes {
		if node.Kind == kind {
			result = append(result, node)
		}
	}
	return result
}
