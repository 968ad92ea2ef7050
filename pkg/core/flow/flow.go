// Package flow holds the weighted edges of a Sankey diagram and their text form,
// one "Source [weight] Target" line per edge.
package flow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrorPrefix starts the single line a builder emits instead of edges when it
// cannot produce a diagram.
const ErrorPrefix = "// Error"

// Edge is a directed flow between two nodes. Direction encodes sign; a negative
// Value only exists transiently, before the materiality filter drops it.
type Edge struct {
	Source string
	Value  int64
	Target string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s [%d] %s", e.Source, e.Value, e.Target)
}

// Graph is an ordered edge list.
type Graph struct {
	edges []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends an edge.
func (g *Graph) Add(source string, value int64, target string) *Graph {
	g.edges = append(g.edges, Edge{Source: source, Value: value, Target: target})
	return g
}

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

// Filter keeps the edges for which keep returns true.
func (g *Graph) Filter(keep func(Edge) bool) *Graph {
	out := &Graph{edges: make([]Edge, 0, len(g.edges))}
	for _, e := range g.edges {
		if keep(e) {
			out.edges = append(out.edges, e)
		}
	}
	return out
}

// AtLeast drops edges lighter than threshold. An edge exactly at the threshold
// is kept.
func (g *Graph) AtLeast(threshold decimal.Decimal) *Graph {
	return g.Filter(func(e Edge) bool {
		return decimal.NewFromInt(e.Value).GreaterThanOrEqual(threshold)
	})
}

// Dedup collapses edges that render identically, keeping the first occurrence.
func (g *Graph) Dedup() *Graph {
	seen := make(map[string]struct{}, len(g.edges))
	return g.Filter(func(e Edge) bool {
		line := e.String()
		if _, ok := seen[line]; ok {
			return false
		}
		seen[line] = struct{}{}
		return true
	})
}

// Render serializes the graph, one edge per line, without a trailing newline.
func (g *Graph) Render() string {
	lines := make([]string, len(g.edges))
	for i, e := range g.edges {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// ErrorLine formats err as the in-band error output.
func ErrorLine(err error) string {
	return ErrorPrefix + ": " + err.Error()
}

// IsError reports whether output is an in-band error rather than edges.
func IsError(output string) bool {
	return strings.HasPrefix(strings.TrimSpace(output), ErrorPrefix)
}

// Parse reads rendered output back into edges. Lines that are not edges, such
// as comments, are skipped.
func Parse(output string) []Edge {
	var edges []Edge
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		open := strings.Index(line, " [")
		if open < 0 {
			continue
		}
		end := strings.Index(line[open:], "] ")
		if end < 0 {
			continue
		}
		end += open
		var v int64
		if _, err := fmt.Sscan(line[open+2:end], &v); err != nil {
			continue
		}
		edges = append(edges, Edge{Source: line[:open], Value: v, Target: line[end+2:]})
	}
	return edges
}
