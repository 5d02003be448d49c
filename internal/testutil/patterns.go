// Package testutil builds patterns and graphs shared by package tests.
package testutil

import (
	"pgregory.net/rapid"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// Chain builds the deterministic J-gate chain: input 0, one measured node
// per angle, output len(angles). Byproducts are propagated the standard way
// so every branch ends in the same output state.
func Chain(angles ...float64) *pattern.Pattern {
	k := len(angles)
	var cmds []pattern.Command
	for v := 1; v <= k; v++ {
		cmds = append(cmds, pattern.Prepare(v))
	}
	for v := 0; v < k; v++ {
		cmds = append(cmds, pattern.Entangle(v, v+1))
	}
	for v, a := range angles {
		var s, t []int
		if v >= 1 {
			s = []int{v - 1}
		}
		if v >= 2 {
			t = []int{v - 2}
		}
		cmds = append(cmds, pattern.Measure(v, quantum.PlaneXY, a, s, t))
	}
	if k >= 1 {
		cmds = append(cmds, pattern.CorrectX(k, []int{k - 1}))
	}
	if k >= 2 {
		cmds = append(cmds, pattern.CorrectZ(k, []int{k - 2}))
	}
	p, err := pattern.New(k+1, []int{0}, []int{k}, cmds)
	if err != nil {
		panic(err)
	}
	return p
}

// HadamardCZ teleports two inputs through Hadamards and entangles the
// outputs: inputs 0,1 and outputs 2,3.
func HadamardCZ() *pattern.Pattern {
	p, err := pattern.New(4, []int{0, 1}, []int{2, 3}, []pattern.Command{
		pattern.Prepare(2),
		pattern.Prepare(3),
		pattern.Entangle(0, 2),
		pattern.Entangle(1, 3),
		pattern.Entangle(2, 3),
		pattern.Measure(0, quantum.PlaneXY, 0, nil, nil),
		pattern.Measure(1, quantum.PlaneXY, 0, nil, nil),
		pattern.CorrectX(2, []int{0}),
		pattern.CorrectZ(2, []int{1}),
		pattern.CorrectX(3, []int{1}),
		pattern.CorrectZ(3, []int{0}),
	})
	if err != nil {
		panic(err)
	}
	return p
}

// Planar is a two-node pattern measuring its input in plane at angle. Only
// in the XY plane is the output independent of node 0's outcome; compare
// other planes against a run with the same outcome.
func Planar(plane quantum.Plane, angle float64) *pattern.Pattern {
	p, err := pattern.New(2, []int{0}, []int{1}, []pattern.Command{
		pattern.Prepare(1),
		pattern.Entangle(0, 1),
		pattern.Measure(0, plane, angle, nil, nil),
		pattern.CorrectX(1, []int{0}),
	})
	if err != nil {
		panic(err)
	}
	return p
}

// DrawGraph draws a random simple graph with up to maxNodes nodes.
func DrawGraph(t *rapid.T, maxNodes int) *graph.Graph {
	n := rapid.IntRange(1, maxNodes).Draw(t, "nodes")
	var edges []graph.Edge
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if rapid.Bool().Draw(t, "edge") {
				edges = append(edges, graph.Edge{A: a, B: b})
			}
		}
	}
	g, err := graph.New(n, edges)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}
