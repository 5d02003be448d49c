package graph

import (
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Edge is an undirected entanglement link between two nodes.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Graph is an immutable resource graph over dense node ids 0..n-1.
type Graph struct {
	n     int
	edges []Edge
	adj   [][]int
}

// New validates the edge set and builds adjacency lists.
// Duplicate edges collapse into one.
func New(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidGraph, "negative node count %d", n)
	}

	g := &Graph{n: n, adj: make([][]int, n)}
	seen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
			return nil, errorsmod.Wrapf(types.ErrInvalidGraph, "edge (%d,%d) outside 0..%d", e.A, e.B, n-1)
		}
		if e.A == e.B {
			return nil, errorsmod.Wrapf(types.ErrInvalidGraph, "self loop on node %d", e.A)
		}
		key := Edge{A: min(e.A, e.B), B: max(e.A, e.B)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.edges = append(g.edges, key)
		g.adj[key.A] = append(g.adj[key.A], key.B)
		g.adj[key.B] = append(g.adj[key.B], key.A)
	}
	for _, nbrs := range g.adj {
		slices.Sort(nbrs)
	}
	return g, nil
}

// N returns the number of nodes.
func (g *Graph) N() int { return g.n }

// Contains reports whether v is a node id of g.
func (g *Graph) Contains(v int) bool { return v >= 0 && v < g.n }

// Edges returns a copy of the edge set, each edge with A < B.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Neighbors returns a sorted copy of v's neighbours.
func (g *Graph) Neighbors(v int) []int { return slices.Clone(g.adj[v]) }

// Degree returns the number of neighbours of v.
func (g *Graph) Degree(v int) int { return len(g.adj[v]) }

// Adjacent reports whether a and b share an edge.
func (g *Graph) Adjacent(a, b int) bool {
	_, ok := slices.BinarySearch(g.adj[a], b)
	return ok
}

// EachNeighbor calls fn for every neighbour of v without copying.
func (g *Graph) EachNeighbor(v int, fn func(u int)) {
	for _, u := range g.adj[v] {
		fn(u)
	}
}
