package simulator

import (
	"fmt"
	"math/cmplx"
	"slices"

	"github.com/AaronLay10/BlindEngine/internal/backend"
)

// State is a snapshot of a Backend's live qubits.
type State struct {
	nodes []int
	amp   []complex128
}

var _ backend.State = (*State)(nil)

// Nodes returns the live node ids in amplitude-index order, least
// significant bit first.
func (s *State) Nodes() []int { return slices.Clone(s.nodes) }

// Amplitudes returns a copy of the state vector.
func (s *State) Amplitudes() []complex128 { return slices.Clone(s.amp) }

// Fidelity returns |<a|b>|², matching qubits by node id. Both states must be
// snapshots of this package's Backend over the same nodes.
func Fidelity(a, b backend.State) (float64, error) {
	sa, ok := a.(*State)
	if !ok {
		return 0, fmt.Errorf("fidelity: unsupported state %T", a)
	}
	sb, ok := b.(*State)
	if !ok {
		return 0, fmt.Errorf("fidelity: unsupported state %T", b)
	}
	if len(sa.nodes) != len(sb.nodes) {
		return 0, fmt.Errorf("fidelity: %d qubits vs %d", len(sa.nodes), len(sb.nodes))
	}
	posB := make(map[int]int, len(sb.nodes))
	for i, v := range sb.nodes {
		posB[v] = i
	}
	perm := make([]int, len(sa.nodes))
	for i, v := range sa.nodes {
		q, ok := posB[v]
		if !ok {
			return 0, fmt.Errorf("fidelity: node %d missing from second state", v)
		}
		perm[i] = q
	}

	var overlap complex128
	for idx, amp := range sa.amp {
		j := 0
		for p, q := range perm {
			if idx&(1<<p) != 0 {
				j |= 1 << q
			}
		}
		overlap += cmplx.Conj(amp) * sb.amp[j]
	}
	return real(overlap * cmplx.Conj(overlap)), nil
}
