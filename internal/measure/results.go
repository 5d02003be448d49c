package measure

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Results holds the logical outcome of every node measured in one run.
// A node is written at most once until Reset.
type Results struct {
	bits []int8
}

const unset int8 = -1

// NewResults returns an empty store for n nodes.
func NewResults(n int) *Results {
	r := &Results{bits: make([]int8, n)}
	r.Reset()
	return r
}

// Reset forgets every outcome. Call it at the start of each run.
func (r *Results) Reset() {
	for i := range r.bits {
		r.bits[i] = unset
	}
}

// Set records the logical outcome of node.
func (r *Results) Set(node int, bit bool) error {
	if node < 0 || node >= len(r.bits) {
		return errorsmod.Wrapf(types.ErrInvalidPattern, "node %d outside results store", node)
	}
	if r.bits[node] != unset {
		return errorsmod.Wrapf(types.ErrDuplicateResultWrite, "node %d", node)
	}
	if bit {
		r.bits[node] = 1
	} else {
		r.bits[node] = 0
	}
	return nil
}

// Has reports whether node was measured in this run.
func (r *Results) Has(node int) bool {
	return node >= 0 && node < len(r.bits) && r.bits[node] != unset
}

// Get returns the outcome of node, failing if this run has not recorded it.
func (r *Results) Get(node int) (bool, error) {
	if !r.Has(node) {
		return false, errorsmod.Wrapf(types.ErrStaleResultsReuse, "node %d", node)
	}
	return r.bits[node] == 1, nil
}

// Parity XORs the outcomes of nodes.
func (r *Results) Parity(nodes []int) (bool, error) {
	var p bool
	for _, v := range nodes {
		b, err := r.Get(v)
		if err != nil {
			return false, err
		}
		p = p != b
	}
	return p, nil
}

// Recorded returns the outcomes measured so far keyed by node.
func (r *Results) Recorded() map[int]bool {
	out := make(map[int]bool)
	for v, b := range r.bits {
		if b != unset {
			out[v] = b == 1
		}
	}
	return out
}
