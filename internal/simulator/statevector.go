// Package simulator is a small state-vector executor used to exercise the
// delegation protocol end to end. Memory grows as 2^n, so it suits patterns of
// around twenty live qubits.
package simulator

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"slices"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
)

// deterministic outcome cut-off for probabilities within rounding of 0 or 1.
const probEpsilon = 1e-12

// Backend holds the joint state of the live qubits. Position k of the
// amplitude index is the qubit of order[k].
type Backend struct {
	order []int
	pos   map[int]int
	amp   []complex128
	rand  *rand.Rand
	noise Noise
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithSeed makes measurement outcomes reproducible.
func WithSeed(seed uint64) Option {
	return func(b *Backend) { b.rand = rng.NewSeeded(seed) }
}

// WithRand supplies the outcome generator directly.
func WithRand(r *rand.Rand) Option {
	return func(b *Backend) { b.rand = r }
}

// WithNoise installs a noise hook.
func WithNoise(n Noise) Option {
	return func(b *Backend) { b.noise = n }
}

// New returns an empty executor.
func New(opts ...Option) *Backend {
	b := &Backend{
		pos:   make(map[int]int),
		amp:   []complex128{1},
		noise: NoNoise{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rand == nil {
		b.rand = rng.NewSecure()
	}
	return b
}

// Qubits returns the number of live qubits.
func (b *Backend) Qubits() int { return len(b.order) }

func (b *Backend) AddNodes(nodes []int, states []quantum.BasicState) error {
	if len(nodes) != len(states) {
		return fmt.Errorf("simulator: %d nodes but %d states", len(nodes), len(states))
	}
	for i, node := range nodes {
		if _, ok := b.pos[node]; ok {
			return fmt.Errorf("simulator: node %d already live", node)
		}
		vec := states[i].Vector()
		k := len(b.order)
		next := make([]complex128, len(b.amp)*2)
		for idx, a := range b.amp {
			next[idx] = a * vec[0]
			next[idx|1<<k] = a * vec[1]
		}
		b.amp = next
		b.order = append(b.order, node)
		b.pos[node] = k
		b.afterGate(node)
	}
	return nil
}

func (b *Backend) ApplySingle(node int, op quantum.Operator) error {
	k, ok := b.pos[node]
	if !ok {
		return fmt.Errorf("simulator: node %d not live", node)
	}
	b.apply(k, op)
	b.afterGate(node)
	return nil
}

func (b *Backend) Entangle(x, y int) error {
	kx, ok := b.pos[x]
	if !ok {
		return fmt.Errorf("simulator: node %d not live", x)
	}
	ky, ok := b.pos[y]
	if !ok {
		return fmt.Errorf("simulator: node %d not live", y)
	}
	mask := 1<<kx | 1<<ky
	for idx := range b.amp {
		if idx&mask == mask {
			b.amp[idx] = -b.amp[idx]
		}
	}
	b.afterGate(x)
	b.afterGate(y)
	return nil
}

func (b *Backend) Measure(node int, desc quantum.Description) (bool, error) {
	k, ok := b.pos[node]
	if !ok {
		return false, fmt.Errorf("simulator: node %d not live", node)
	}
	plus, minus := desc.Basis()
	half := len(b.amp) / 2
	proj0 := make([]complex128, half)
	proj1 := make([]complex128, half)
	low := 1<<k - 1
	var p0 float64
	for r := 0; r < half; r++ {
		i0 := (r&^low)<<1 | r&low
		i1 := i0 | 1<<k
		a0, a1 := b.amp[i0], b.amp[i1]
		proj0[r] = cmplx.Conj(plus[0])*a0 + cmplx.Conj(plus[1])*a1
		proj1[r] = cmplx.Conj(minus[0])*a0 + cmplx.Conj(minus[1])*a1
		p0 += real(proj0[r] * cmplx.Conj(proj0[r]))
	}

	var outcome bool
	switch {
	case p0 > 1-probEpsilon:
		outcome = false
	case p0 < probEpsilon:
		outcome = true
	default:
		outcome = b.rand.Float64() >= p0
	}

	kept, p := proj0, p0
	if outcome {
		kept, p = proj1, 1-p0
	}
	norm := complex(1/math.Sqrt(p), 0)
	for i := range kept {
		kept[i] *= norm
	}
	b.amp = kept

	b.order = slices.Delete(b.order, k, k+1)
	delete(b.pos, node)
	for i := k; i < len(b.order); i++ {
		b.pos[b.order[i]] = i
	}

	if b.noise.Readout(node) {
		outcome = !outcome
	}
	return outcome, nil
}

func (b *Backend) ReadState() (backend.State, error) {
	return &State{nodes: slices.Clone(b.order), amp: slices.Clone(b.amp)}, nil
}

func (b *Backend) apply(k int, op quantum.Operator) {
	bit := 1 << k
	for idx := range b.amp {
		if idx&bit != 0 {
			continue
		}
		j := idx | bit
		a0, a1 := b.amp[idx], b.amp[j]
		b.amp[idx] = op[0][0]*a0 + op[0][1]*a1
		b.amp[j] = op[1][0]*a0 + op[1][1]*a1
	}
}

func (b *Backend) afterGate(node int) {
	if op := b.noise.Gate(node); op != nil {
		b.apply(b.pos[node], *op)
	}
}
