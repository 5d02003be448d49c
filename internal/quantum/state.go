package quantum

import (
	"fmt"
	"math"
	"strings"
)

const invSqrt2 = complex(1/math.Sqrt2, 0)

// Vector is a single-qubit amplitude pair.
type Vector [2]complex128

// BasicState is one of the six Pauli eigenstates.
type BasicState uint8

const (
	StatePlus BasicState = iota
	StateMinus
	StateZero
	StateOne
	StatePlusI
	StateMinusI
)

var stateNames = [...]string{"plus", "minus", "zero", "one", "plus_i", "minus_i"}

func (s BasicState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("BasicState(%d)", uint8(s))
}

// ParseState accepts the names produced by String, plus the ket shorthands
// "+", "-", "0", "1", "+i", "-i".
func ParseState(s string) (BasicState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plus", "+":
		return StatePlus, nil
	case "minus", "-":
		return StateMinus, nil
	case "zero", "0":
		return StateZero, nil
	case "one", "1":
		return StateOne, nil
	case "plus_i", "+i":
		return StatePlusI, nil
	case "minus_i", "-i":
		return StateMinusI, nil
	}
	return 0, fmt.Errorf("unknown basic state %q", s)
}

// Vector returns the amplitudes of s.
func (s BasicState) Vector() Vector {
	switch s {
	case StateMinus:
		return Vector{invSqrt2, -invSqrt2}
	case StateZero:
		return Vector{1, 0}
	case StateOne:
		return Vector{0, 1}
	case StatePlusI:
		return Vector{invSqrt2, 1i * invSqrt2}
	case StateMinusI:
		return Vector{invSqrt2, -1i * invSqrt2}
	default:
		return Vector{invSqrt2, invSqrt2}
	}
}
