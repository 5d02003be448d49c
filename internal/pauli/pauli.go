// Package pauli implements the signed Pauli strings used to build trap
// stabilizers.
package pauli

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Letter is a single-qubit Pauli.
type Letter uint8

const (
	I Letter = iota
	X
	Y
	Z
)

func (l Letter) String() string {
	switch l {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	default:
		return "I"
	}
}

// Eigenstate returns the eigenstate of l with eigenvalue (-1)^coin. The
// identity accepts any state and maps to |+>.
func (l Letter) Eigenstate(coin uint8) quantum.BasicState {
	flip := coin&1 == 1
	switch l {
	case X:
		if flip {
			return quantum.StateMinus
		}
		return quantum.StatePlus
	case Y:
		if flip {
			return quantum.StateMinusI
		}
		return quantum.StatePlusI
	case Z:
		if flip {
			return quantum.StateOne
		}
		return quantum.StateZero
	default:
		return quantum.StatePlus
	}
}

// String is a signed tensor product of letters indexed by node id.
type String struct {
	negative bool
	letters  []Letter
}

// Identity returns +I^{⊗n}.
func Identity(n int) String {
	return String{letters: make([]Letter, n)}
}

// Parse reads forms like "+XZI" or "-IZX"; a missing sign means +.
// Underscores are accepted for I.
func Parse(s string) (String, error) {
	var p String
	switch {
	case strings.HasPrefix(s, "-"):
		p.negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	p.letters = make([]Letter, 0, len(s))
	for i, r := range s {
		switch r {
		case 'I', '_':
			p.letters = append(p.letters, I)
		case 'X':
			p.letters = append(p.letters, X)
		case 'Y':
			p.letters = append(p.letters, Y)
		case 'Z':
			p.letters = append(p.letters, Z)
		default:
			return String{}, fmt.Errorf("invalid pauli letter %q at %d", r, i)
		}
	}
	return p, nil
}

// Len returns the number of qubits.
func (p String) Len() int { return len(p.letters) }

// At returns the letter on node v.
func (p String) At(v int) Letter { return p.letters[v] }

// Negative reports whether the overall sign is -1.
func (p String) Negative() bool { return p.negative }

// Weight counts the non-identity letters.
func (p String) Weight() int {
	w := 0
	for _, l := range p.letters {
		if l != I {
			w++
		}
	}
	return w
}

func (p String) String() string {
	var b strings.Builder
	if p.negative {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	for _, l := range p.letters {
		b.WriteString(l.String())
	}
	return b.String()
}

// Equal compares sign and letters.
func (p String) Equal(q String) bool {
	if p.negative != q.negative || len(p.letters) != len(q.letters) {
		return false
	}
	for i := range p.letters {
		if p.letters[i] != q.letters[i] {
			return false
		}
	}
	return true
}

// Canonical returns the graph-state stabilizer of a trap: X on the trap
// nodes, Z on their neighbours, I elsewhere.
func Canonical(g *graph.Graph, trap []int) String {
	p := Identity(g.N())
	for _, t := range trap {
		g.EachNeighbor(t, func(u int) {
			p.letters[u] = Z
		})
	}
	for _, t := range trap {
		p.letters[t] = X
	}
	return p
}

// Compatible reports whether p and q agree wherever both act non-trivially.
func Compatible(p, q String) bool {
	if len(p.letters) != len(q.letters) {
		return false
	}
	for i, l := range p.letters {
		m := q.letters[i]
		if l != I && m != I && l != m {
			return false
		}
	}
	return true
}

// Merge overlays q's support onto p and multiplies the signs.
func Merge(p, q String) (String, error) {
	if !Compatible(p, q) {
		return String{}, errorsmod.Wrapf(types.ErrUnmergeableStabilizers, "%s and %s", p, q)
	}
	out := String{negative: p.negative != q.negative, letters: make([]Letter, len(p.letters))}
	copy(out.letters, p.letters)
	for i, m := range q.letters {
		if m != I {
			out.letters[i] = m
		}
	}
	return out, nil
}

// MergeAll folds the list into a single stabilizer by repeatedly merging the
// first compatible pair. It fails when more than one string remains and no
// pair can be merged.
func MergeAll(list []String) (String, error) {
	if len(list) == 0 {
		return String{}, errorsmod.Wrap(types.ErrUnmergeableStabilizers, "empty stabilizer list")
	}
	work := make([]String, len(list))
	copy(work, list)

	for len(work) > 1 {
		merged := false
	search:
		for i := 0; i < len(work); i++ {
			for j := i + 1; j < len(work); j++ {
				if !Compatible(work[i], work[j]) {
					continue
				}
				m, err := Merge(work[i], work[j])
				if err != nil {
					return String{}, err
				}
				work[i] = m
				work = append(work[:j], work[j+1:]...)
				merged = true
				break search
			}
		}
		if !merged {
			return String{}, errorsmod.Wrapf(types.ErrUnmergeableStabilizers, "%d stabilizers left with no compatible pair", len(work))
		}
	}
	return work[0], nil
}
