package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/testutil"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

func path(t *testing.T, n int) *graph.Graph {
	t.Helper()
	var edges []graph.Edge
	for v := 0; v+1 < n; v++ {
		edges = append(edges, graph.Edge{A: v, B: v + 1})
	}
	g, err := graph.New(n, edges)
	require.NoError(t, err)
	return g
}

func TestGenerateRespectsRoles(t *testing.T) {
	g := path(t, 6)
	roles := &secrets.Roles{Inputs: []int{0, 1}, Outputs: []int{4, 5}}

	for seed := uint64(1); seed <= 50; seed++ {
		d, err := secrets.Generate(g, roles, secrets.All(), rng.NewSeeded(seed))
		require.NoError(t, err)
		require.Equal(t, 6, d.N())
		for _, in := range roles.Inputs {
			require.Zero(t, d.A(in))
		}
		for _, out := range roles.Outputs {
			require.Zero(t, d.R(out))
			require.Zero(t, d.Theta(out))
		}
		for v := 0; v < d.N(); v++ {
			require.Less(t, d.Theta(v), uint8(8))
			require.Less(t, d.R(v), uint8(2))
		}
	}
}

func TestGenerateDisabledKindsAreZero(t *testing.T) {
	g := path(t, 5)
	roles := &secrets.Roles{Inputs: []int{0}, Outputs: []int{4}}

	d, err := secrets.Generate(g, roles, secrets.Flags{R: true}, rng.NewSeeded(3))
	require.NoError(t, err)
	for v := 0; v < 5; v++ {
		require.Zero(t, d.A(v))
		require.Zero(t, d.AN(v))
		require.Zero(t, d.Theta(v))
	}

	d, err = secrets.Generate(g, roles, secrets.Flags{}, nil)
	require.NoError(t, err)
	require.Equal(t, secrets.Zero(g).Values(), d.Values())
}

func TestGenerateErrors(t *testing.T) {
	g := path(t, 3)

	_, err := secrets.Generate(g, nil, secrets.All(), rng.NewSeeded(1))
	require.ErrorIs(t, err, types.ErrInvalidSecretRequest)

	_, err = secrets.Generate(g, &secrets.Roles{Outputs: []int{2}}, secrets.All(), nil)
	require.ErrorIs(t, err, types.ErrInvalidSecretRequest)

	_, err = secrets.Generate(g, &secrets.Roles{Inputs: []int{3}}, secrets.All(), rng.NewSeeded(1))
	require.ErrorIs(t, err, types.ErrInvalidSecretRequest)
}

func TestANIsNeighbourParity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := testutil.DrawGraph(t, 10)
		d, err := secrets.Generate(g, &secrets.Roles{}, secrets.All(), rng.NewSeeded(rapid.Uint64().Draw(t, "seed")))
		if err != nil {
			t.Fatal(err)
		}
		for v := 0; v < g.N(); v++ {
			var want uint8
			for u := 0; u < g.N(); u++ {
				if g.Adjacent(v, u) {
					want ^= d.A(u)
				}
			}
			if d.AN(v) != want {
				t.Fatalf("aN[%d]=%d, want %d", v, d.AN(v), want)
			}
			if d.OutcomeFlip(v) != (d.R(v)+want)%2 {
				t.Fatalf("outcome flip of %d disagrees", v)
			}
		}
	})
}

func TestFromValues(t *testing.T) {
	g := path(t, 3)
	roles := &secrets.Roles{Inputs: []int{0}, Outputs: []int{2}}

	d, err := secrets.FromValues(g, roles, secrets.All(), secrets.Values{
		R:     []uint8{1, 0, 0},
		Theta: []uint8{7, 3, 0},
		A:     []uint8{0, 1, 1},
	})
	require.NoError(t, err)
	require.Equal(t, uint8(7), d.Theta(0))
	require.Equal(t, uint8(1), d.AN(0))
	require.Equal(t, uint8(1), d.AN(1))
	require.Equal(t, uint8(1), d.AN(2))
	require.Equal(t, uint8(0), d.OutcomeFlip(0))

	// Disabled kinds are ignored even when supplied.
	d, err = secrets.FromValues(g, roles, secrets.Flags{R: true}, secrets.Values{
		R: []uint8{1, 1, 0},
		A: []uint8{1, 1, 1},
	})
	require.NoError(t, err)
	require.Zero(t, d.A(1))

	// The returned values are copies.
	v := d.Values()
	v.R[0] = 0
	require.Equal(t, uint8(1), d.R(0))
}

func TestFromValuesErrors(t *testing.T) {
	g := path(t, 3)
	roles := &secrets.Roles{Inputs: []int{0}, Outputs: []int{2}}
	tests := []struct {
		name string
		v    secrets.Values
	}{
		{"wrong length", secrets.Values{R: []uint8{0, 0}, Theta: []uint8{0, 0, 0}, A: []uint8{0, 0, 0}}},
		{"theta out of range", secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{8, 0, 0}, A: []uint8{0, 0, 0}}},
		{"r on output", secrets.Values{R: []uint8{0, 0, 1}, Theta: []uint8{0, 0, 0}, A: []uint8{0, 0, 0}}},
		{"theta on output", secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{0, 0, 2}, A: []uint8{0, 0, 0}}},
		{"a on input", secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{0, 0, 0}, A: []uint8{1, 0, 0}}},
		{"a not a bit", secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{0, 0, 0}, A: []uint8{0, 2, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := secrets.FromValues(g, roles, secrets.All(), tt.v)
			require.ErrorIs(t, err, types.ErrInvalidSecretRequest)
		})
	}
	_, err := secrets.FromValues(g, nil, secrets.All(), secrets.Values{})
	require.ErrorIs(t, err, types.ErrInvalidSecretRequest)
}
