// Package secrets generates the per-node values that disguise a delegated
// computation: the outcome flip r, the rotation theta (units of π/4) and the
// Pauli flip a, together with a_N, the XOR of a over each node's neighbours.
package secrets

import (
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Flags selects which secret kinds are drawn. Disabled kinds are all zero.
type Flags struct {
	R     bool `yaml:"r" json:"r"`
	A     bool `yaml:"a" json:"a"`
	Theta bool `yaml:"theta" json:"theta"`
}

// All enables every secret kind.
func All() Flags { return Flags{R: true, A: true, Theta: true} }

// Any reports whether any kind is enabled.
func (f Flags) Any() bool { return f.R || f.A || f.Theta }

// Roles are the input and output node sets of a computation.
type Roles struct {
	Inputs  []int
	Outputs []int
}

// Data is one immutable draw of secrets. It is replaced as a whole, never
// edited.
type Data struct {
	flags Flags
	r     []uint8
	theta []uint8
	a     []uint8
	aN    []uint8
}

// Values are explicit per-node secrets, used to pin a draw.
type Values struct {
	R     []uint8
	Theta []uint8
	A     []uint8
}

// Generate draws fresh secrets for g. a is zero on inputs; r and theta are
// zero on outputs.
func Generate(g *graph.Graph, roles *Roles, flags Flags, src rng.Source) (*Data, error) {
	inputs, outputs, err := checkRoles(g, roles)
	if err != nil {
		return nil, err
	}
	if flags.Any() && src == nil {
		return nil, errorsmod.Wrap(types.ErrInvalidSecretRequest, "no randomness source")
	}

	n := g.N()
	v := Values{R: make([]uint8, n), Theta: make([]uint8, n), A: make([]uint8, n)}
	for node := 0; node < n; node++ {
		if flags.R && !outputs[node] {
			v.R[node] = rng.Bit(src)
		}
		if flags.Theta && !outputs[node] {
			v.Theta[node] = uint8(src.IntN(8))
		}
		if flags.A && !inputs[node] {
			v.A[node] = rng.Bit(src)
		}
	}
	return build(g, flags, v), nil
}

// FromValues pins secrets to v after checking the role constraints.
func FromValues(g *graph.Graph, roles *Roles, flags Flags, v Values) (*Data, error) {
	inputs, outputs, err := checkRoles(g, roles)
	if err != nil {
		return nil, err
	}
	n := g.N()
	norm := Values{R: make([]uint8, n), Theta: make([]uint8, n), A: make([]uint8, n)}
	for _, kind := range []struct {
		name    string
		enabled bool
		src     []uint8
		dst     []uint8
		limit   uint8
		forbid  map[int]bool
	}{
		{"r", flags.R, v.R, norm.R, 2, outputs},
		{"theta", flags.Theta, v.Theta, norm.Theta, 8, outputs},
		{"a", flags.A, v.A, norm.A, 2, inputs},
	} {
		if !kind.enabled {
			continue
		}
		if len(kind.src) != n {
			return nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "%s has %d values for %d nodes", kind.name, len(kind.src), n)
		}
		for node, val := range kind.src {
			if val >= kind.limit {
				return nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "%s[%d]=%d out of range", kind.name, node, val)
			}
			if val != 0 && kind.forbid[node] {
				return nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "%s must be zero on node %d", kind.name, node)
			}
			kind.dst[node] = val
		}
	}
	return build(g, flags, norm), nil
}

// Zero returns the all-zero draw for g: delegation without disguise.
func Zero(g *graph.Graph) *Data {
	n := g.N()
	return build(g, Flags{}, Values{R: make([]uint8, n), Theta: make([]uint8, n), A: make([]uint8, n)})
}

func checkRoles(g *graph.Graph, roles *Roles) (inputs, outputs map[int]bool, err error) {
	if roles == nil {
		return nil, nil, errorsmod.Wrap(types.ErrInvalidSecretRequest, "node roles are not known")
	}
	inputs = make(map[int]bool, len(roles.Inputs))
	outputs = make(map[int]bool, len(roles.Outputs))
	for _, v := range roles.Inputs {
		if !g.Contains(v) {
			return nil, nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "input node %d not in graph", v)
		}
		inputs[v] = true
	}
	for _, v := range roles.Outputs {
		if !g.Contains(v) {
			return nil, nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "output node %d not in graph", v)
		}
		outputs[v] = true
	}
	return inputs, outputs, nil
}

// build derives a_N once a is complete.
func build(g *graph.Graph, flags Flags, v Values) *Data {
	aN := make([]uint8, g.N())
	for _, e := range g.Edges() {
		aN[e.A] ^= v.A[e.B]
		aN[e.B] ^= v.A[e.A]
	}
	return &Data{flags: flags, r: v.R, theta: v.Theta, a: v.A, aN: aN}
}

// Flags returns the kinds that produced this draw.
func (d *Data) Flags() Flags { return d.flags }

// N returns the number of nodes covered.
func (d *Data) N() int { return len(d.r) }

func (d *Data) R(node int) uint8     { return d.r[node] }
func (d *Data) Theta(node int) uint8 { return d.theta[node] }
func (d *Data) A(node int) uint8     { return d.a[node] }
func (d *Data) AN(node int) uint8    { return d.aN[node] }

// OutcomeFlip is (r + a_N) mod 2, the π offset folded into a node's angle.
func (d *Data) OutcomeFlip(node int) uint8 { return (d.r[node] + d.aN[node]) & 1 }

// Values returns a copy of the raw arrays.
func (d *Data) Values() Values {
	return Values{R: slices.Clone(d.r), Theta: slices.Clone(d.theta), A: slices.Clone(d.a)}
}
