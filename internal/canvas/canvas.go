// Package canvas builds trappified canvases: a set of mutually non-adjacent
// single-node traps, the stabilizer they share, and the input state of every
// node that makes each trap's parity deterministic.
package canvas

import (
	"fmt"
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/pauli"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Trap is a set of nodes whose outcome parity is checked. Only single-node
// traps are built.
type Trap []int

// Canvas is immutable once built.
type Canvas struct {
	color      int
	traps      []Trap
	stabilizer pauli.String
	coins      []uint8
	states     []quantum.BasicState
	isTrap     []bool
}

// New builds a canvas over g with the given traps, drawing fresh coins from
// src.
func New(g *graph.Graph, traps []Trap, src rng.Source) (*Canvas, error) {
	if len(traps) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidTrapLayout, "no traps")
	}
	if src == nil {
		return nil, errorsmod.Wrap(types.ErrInvalidTrapLayout, "no randomness source")
	}

	c := &Canvas{color: -1, isTrap: make([]bool, g.N())}
	stabilizers := make([]pauli.String, 0, len(traps))
	for _, t := range traps {
		if len(t) != 1 {
			return nil, errorsmod.Wrapf(types.ErrInvalidTrapLayout, "trap %v: only single-node traps are supported", t)
		}
		v := t[0]
		if !g.Contains(v) {
			return nil, errorsmod.Wrapf(types.ErrInvalidTrapLayout, "trap node %d not in graph", v)
		}
		if c.isTrap[v] {
			return nil, errorsmod.Wrapf(types.ErrInvalidTrapLayout, "node %d used by two traps", v)
		}
		c.isTrap[v] = true
		c.traps = append(c.traps, Trap{v})
		stabilizers = append(stabilizers, pauli.Canonical(g, t))
	}

	stab, err := pauli.MergeAll(stabilizers)
	if err != nil {
		return nil, err
	}
	c.stabilizer = stab

	c.coins = make([]uint8, g.N())
	for v := 0; v < g.N(); v++ {
		if !c.isTrap[v] {
			c.coins[v] = rng.Bit(src)
		}
	}
	for _, t := range c.traps {
		v := t[0]
		var coin uint8
		g.EachNeighbor(v, func(u int) {
			coin ^= c.coins[u]
		})
		c.coins[v] = coin
	}

	c.states = make([]quantum.BasicState, g.N())
	for v := range c.states {
		c.states[v] = stab.At(v).Eigenstate(c.coins[v])
	}
	return c, nil
}

// FromColoring validates coloring and builds one canvas per colour class,
// each node of the class a single-node trap.
func FromColoring(g *graph.Graph, coloring graph.Coloring, src rng.Source) ([]*Canvas, error) {
	if err := coloring.Validate(g); err != nil {
		return nil, err
	}
	colors := make([]int, 0)
	for _, col := range coloring {
		if !slices.Contains(colors, col) {
			colors = append(colors, col)
		}
	}
	slices.Sort(colors)

	canvases := make([]*Canvas, 0, len(colors))
	for _, col := range colors {
		c, err := ForColor(g, coloring, col, src)
		if err != nil {
			return nil, err
		}
		canvases = append(canvases, c)
	}
	return canvases, nil
}

// ForColor builds the canvas of a single colour class.
func ForColor(g *graph.Graph, coloring graph.Coloring, color int, src rng.Source) (*Canvas, error) {
	var traps []Trap
	for v, col := range coloring {
		if col == color {
			traps = append(traps, Trap{v})
		}
	}
	if len(traps) == 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidColoring, "colour %d is unused", color)
	}
	c, err := New(g, traps, src)
	if err != nil {
		return nil, err
	}
	c.color = color
	return c, nil
}

// Color is the colour class this canvas was built from, or -1.
func (c *Canvas) Color() int { return c.color }

// Traps returns a copy of the trap sets.
func (c *Canvas) Traps() []Trap {
	out := make([]Trap, len(c.traps))
	for i, t := range c.traps {
		out[i] = slices.Clone(t)
	}
	return out
}

// TrapNodes returns every trap node in trap order.
func (c *Canvas) TrapNodes() []int {
	out := make([]int, 0, len(c.traps))
	for _, t := range c.traps {
		out = append(out, t...)
	}
	return out
}

// IsTrap reports whether v belongs to a trap.
func (c *Canvas) IsTrap(v int) bool { return c.isTrap[v] }

// Stabilizer is the merged stabilizer of all traps.
func (c *Canvas) Stabilizer() pauli.String { return c.stabilizer }

// Coins returns a copy of the per-node coin bits.
func (c *Canvas) Coins() []uint8 { return slices.Clone(c.coins) }

// States returns a copy of the per-node input states.
func (c *Canvas) States() []quantum.BasicState { return slices.Clone(c.states) }

func (c *Canvas) String() string {
	return fmt.Sprintf("canvas(color=%d traps=%v stabilizer=%s)", c.color, c.TrapNodes(), c.stabilizer)
}
