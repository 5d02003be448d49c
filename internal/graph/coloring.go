package graph

import (
	"slices"
	"sort"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Coloring assigns a colour index to every node.
type Coloring []int

// Colorer produces a proper colouring. Any proper colouring is acceptable to
// the canvas builder.
type Colorer interface {
	Color(g *Graph) Coloring
}

// GreedyLargestFirst visits nodes by decreasing degree and gives each the
// smallest colour unused by its already coloured neighbours.
type GreedyLargestFirst struct{}

func (GreedyLargestFirst) Color(g *Graph) Coloring {
	order := make([]int, g.N())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.Degree(order[i]) > g.Degree(order[j])
	})

	colors := make(Coloring, g.N())
	for i := range colors {
		colors[i] = -1
	}
	for _, v := range order {
		used := make(map[int]bool, g.Degree(v))
		g.EachNeighbor(v, func(u int) {
			if colors[u] >= 0 {
				used[colors[u]] = true
			}
		})
		c := 0
		for used[c] {
			c++
		}
		colors[v] = c
	}
	return colors
}

// Validate checks that c covers g and that no edge joins two nodes of the
// same colour.
func (c Coloring) Validate(g *Graph) error {
	if len(c) != g.N() {
		return errorsmod.Wrapf(types.ErrInvalidColoring, "coloring has %d entries for %d nodes", len(c), g.N())
	}
	for v, col := range c {
		if col < 0 {
			return errorsmod.Wrapf(types.ErrInvalidColoring, "node %d has negative colour %d", v, col)
		}
	}
	for _, e := range g.edges {
		if c[e.A] == c[e.B] {
			return errorsmod.Wrapf(types.ErrInvalidColoring, "adjacent nodes %d and %d share colour %d", e.A, e.B, c[e.A])
		}
	}
	return nil
}

// Classes groups node ids by colour, ordered by colour index. Unused colour
// indices are skipped.
func (c Coloring) Classes() [][]int {
	byColor := make(map[int][]int)
	for v, col := range c {
		byColor[col] = append(byColor[col], v)
	}
	keys := make([]int, 0, len(byColor))
	for k := range byColor {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	classes := make([][]int, 0, len(keys))
	for _, k := range keys {
		classes = append(classes, byColor[k])
	}
	return classes
}
