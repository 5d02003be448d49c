package quantum

import (
	"math"
	"math/cmplx"
)

// Operator is a single-qubit gate in row-major order.
type Operator [2][2]complex128

var (
	Identity = Operator{{1, 0}, {0, 1}}
	PauliX   = Operator{{0, 1}, {1, 0}}
	PauliY   = Operator{{0, -1i}, {1i, 0}}
	PauliZ   = Operator{{1, 0}, {0, -1}}
	Hadamard = Operator{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}
)

// Rz returns diag(1, e^{iθ}).
func Rz(theta float64) Operator {
	return Operator{{1, 0}, {0, cmplx.Exp(complex(0, theta))}}
}

// Apply returns op·v.
func (op Operator) Apply(v Vector) Vector {
	return Vector{
		op[0][0]*v[0] + op[0][1]*v[1],
		op[1][0]*v[0] + op[1][1]*v[1],
	}
}

// Mul returns op·other.
func (op Operator) Mul(other Operator) Operator {
	var out Operator
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = op[i][0]*other[0][j] + op[i][1]*other[1][j]
		}
	}
	return out
}

// BlindRotation is the Z rotation by theta·π/4 used to disguise a node.
func BlindRotation(theta uint8) Operator {
	return Rz(float64(theta) * math.Pi / 4)
}
