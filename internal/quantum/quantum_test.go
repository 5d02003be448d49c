package quantum_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

func inner(a, b quantum.Vector) complex128 {
	return cmplx.Conj(a[0])*b[0] + cmplx.Conj(a[1])*b[1]
}

// observable returns the Pauli operator the description measures.
func observable(d quantum.Description) quantum.Operator {
	c, s := complex(math.Cos(d.Angle), 0), complex(math.Sin(d.Angle), 0)
	var a, b quantum.Operator
	switch d.Plane {
	case quantum.PlaneXY:
		a, b = quantum.PauliX, quantum.PauliY
	case quantum.PlaneYZ:
		a, b = quantum.PauliZ, quantum.PauliY
	case quantum.PlaneXZ:
		a, b = quantum.PauliZ, quantum.PauliX
	}
	var out quantum.Operator
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = c*a[i][j] + s*b[i][j]
		}
	}
	return out
}

func requireVectorEqual(t require.TestingT, want, got quantum.Vector) {
	for i := range want {
		require.InDelta(t, real(want[i]), real(got[i]), 1e-12)
		require.InDelta(t, imag(want[i]), imag(got[i]), 1e-12)
	}
}

func TestBasisIsEigenbasis(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := quantum.Description{
			Plane: quantum.Plane(rapid.IntRange(0, 2).Draw(t, "plane")),
			Angle: rapid.Float64Range(-10, 10).Draw(t, "angle"),
		}
		plus, minus := d.Basis()
		obs := observable(d)

		requireVectorEqual(t, plus, obs.Apply(plus))
		neg := obs.Apply(minus)
		requireVectorEqual(t, quantum.Vector{-minus[0], -minus[1]}, neg)
		require.InDelta(t, 1, real(inner(plus, plus)), 1e-12)
		require.InDelta(t, 0, cmplx.Abs(inner(plus, minus)), 1e-12)
	})
}

func TestXYBasisAtZeroIsPlusMinus(t *testing.T) {
	plus, minus := quantum.Description{Plane: quantum.PlaneXY}.Basis()
	requireVectorEqual(t, quantum.StatePlus.Vector(), plus)
	requireVectorEqual(t, quantum.StateMinus.Vector(), minus)
}

func TestParsePlane(t *testing.T) {
	for in, want := range map[string]quantum.Plane{"xy": quantum.PlaneXY, "": quantum.PlaneXY, " YZ": quantum.PlaneYZ, "XZ": quantum.PlaneXZ} {
		got, err := quantum.ParsePlane(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := quantum.ParsePlane("XX")
	require.Error(t, err)
	require.Equal(t, "Plane(7)", quantum.Plane(7).String())
}

func TestParseState(t *testing.T) {
	for _, s := range []quantum.BasicState{
		quantum.StatePlus, quantum.StateMinus, quantum.StateZero,
		quantum.StateOne, quantum.StatePlusI, quantum.StateMinusI,
	} {
		got, err := quantum.ParseState(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	got, err := quantum.ParseState("-i")
	require.NoError(t, err)
	require.Equal(t, quantum.StateMinusI, got)
	_, err = quantum.ParseState("psi")
	require.Error(t, err)
}

func TestStatesAreEigenstates(t *testing.T) {
	tests := []struct {
		state quantum.BasicState
		op    quantum.Operator
		sign  complex128
	}{
		{quantum.StatePlus, quantum.PauliX, 1},
		{quantum.StateMinus, quantum.PauliX, -1},
		{quantum.StateZero, quantum.PauliZ, 1},
		{quantum.StateOne, quantum.PauliZ, -1},
		{quantum.StatePlusI, quantum.PauliY, 1},
		{quantum.StateMinusI, quantum.PauliY, -1},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			v := tt.state.Vector()
			requireVectorEqual(t, quantum.Vector{tt.sign * v[0], tt.sign * v[1]}, tt.op.Apply(v))
		})
	}
}

func TestBlindRotation(t *testing.T) {
	// Rz(π/2)|+> = |+i>, and eight steps are the identity.
	requireVectorEqual(t, quantum.StatePlusI.Vector(), quantum.BlindRotation(2).Apply(quantum.StatePlus.Vector()))

	full := quantum.Identity
	for i := 0; i < 8; i++ {
		full = full.Mul(quantum.BlindRotation(1))
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			require.InDelta(t, real(quantum.Identity[i][j]), real(full[i][j]), 1e-12)
			require.InDelta(t, imag(quantum.Identity[i][j]), imag(full[i][j]), 1e-12)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	require.InDelta(t, 0, quantum.NormalizeAngle(2*math.Pi), 1e-12)
	require.InDelta(t, 3*math.Pi/2, quantum.NormalizeAngle(-math.Pi/2), 1e-12)
	require.InDelta(t, math.Pi, quantum.NormalizeAngle(5*math.Pi), 1e-12)
}
