package simulator

import (
	"math/rand/v2"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
)

// Noise is consulted after every physical gate and on every readout.
type Noise interface {
	// Gate returns an extra operator to apply to node, or nil.
	Gate(node int) *quantum.Operator
	// Readout reports whether the reported outcome of node is flipped.
	Readout(node int) bool
}

// NoNoise is an honest executor.
type NoNoise struct{}

func (NoNoise) Gate(int) *quantum.Operator { return nil }
func (NoNoise) Readout(int) bool           { return false }

// FlipReadout deterministically flips the reported outcome of Node.
type FlipReadout struct {
	Node int
}

func (FlipReadout) Gate(int) *quantum.Operator { return nil }
func (f FlipReadout) Readout(node int) bool    { return node == f.Node }

// Depolarizing applies a uniformly chosen X, Y or Z with probability P after
// each gate and flips each readout with probability P.
type Depolarizing struct {
	P    float64
	rand *rand.Rand
}

// NewDepolarizing returns a depolarizing channel with its own generator.
func NewDepolarizing(p float64, seed uint64) *Depolarizing {
	return &Depolarizing{P: p, rand: rng.NewSeeded(seed)}
}

func (d *Depolarizing) Gate(int) *quantum.Operator {
	if d.rand.Float64() >= d.P {
		return nil
	}
	ops := [...]quantum.Operator{quantum.PauliX, quantum.PauliY, quantum.PauliZ}
	op := ops[d.rand.IntN(len(ops))]
	return &op
}

func (d *Depolarizing) Readout(int) bool {
	return d.rand.Float64() < d.P
}
