package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AaronLay10/BlindEngine/internal/canvas"
	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/pauli"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/testutil"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

func line(t *testing.T, n int) *graph.Graph {
	t.Helper()
	var edges []graph.Edge
	for v := 0; v+1 < n; v++ {
		edges = append(edges, graph.Edge{A: v, B: v + 1})
	}
	g, err := graph.New(n, edges)
	require.NoError(t, err)
	return g
}

func TestNewSingleTrap(t *testing.T) {
	g := line(t, 4)
	c, err := canvas.New(g, []canvas.Trap{{1}}, rng.NewSeeded(9))
	require.NoError(t, err)

	require.Equal(t, -1, c.Color())
	require.Equal(t, []int{1}, c.TrapNodes())
	require.True(t, c.IsTrap(1))
	require.False(t, c.IsTrap(2))
	require.Equal(t, "+ZXZI", c.Stabilizer().String())

	coins := c.Coins()
	require.Equal(t, coins[0]^coins[2], coins[1])
	states := c.States()
	require.Equal(t, quantum.StatePlus, states[3])
	require.Equal(t, pauli.X.Eigenstate(coins[1]), states[1])
	require.Equal(t, pauli.Z.Eigenstate(coins[0]), states[0])
	require.Contains(t, c.String(), "stabilizer=+ZXZI")
}

func TestNewRejectsBadLayouts(t *testing.T) {
	g := line(t, 4)
	src := rng.NewSeeded(1)
	tests := []struct {
		name  string
		traps []canvas.Trap
		want  error
	}{
		{"no traps", nil, types.ErrInvalidTrapLayout},
		{"multi-node trap", []canvas.Trap{{0, 2}}, types.ErrInvalidTrapLayout},
		{"outside graph", []canvas.Trap{{4}}, types.ErrInvalidTrapLayout},
		{"shared node", []canvas.Trap{{1}, {1}}, types.ErrInvalidTrapLayout},
		{"adjacent traps", []canvas.Trap{{1}, {2}}, types.ErrUnmergeableStabilizers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := canvas.New(g, tt.traps, src)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := canvas.New(g, []canvas.Trap{{0}}, nil)
	require.ErrorIs(t, err, types.ErrInvalidTrapLayout)
}

func TestFromColoring(t *testing.T) {
	g := line(t, 5)
	coloring := graph.GreedyLargestFirst{}.Color(g)
	canvases, err := canvas.FromColoring(g, coloring, rng.NewSeeded(4))
	require.NoError(t, err)
	require.Len(t, canvases, 2)

	covered := make(map[int]bool)
	for i, c := range canvases {
		require.Equal(t, i, c.Color())
		for _, v := range c.TrapNodes() {
			require.False(t, covered[v], "node %d trapped twice", v)
			covered[v] = true
		}
	}
	require.Len(t, covered, g.N())

	_, err = canvas.FromColoring(g, graph.Coloring{0, 0, 1, 0, 1}, rng.NewSeeded(4))
	require.ErrorIs(t, err, types.ErrInvalidColoring)

	_, err = canvas.ForColor(g, coloring, 7, rng.NewSeeded(4))
	require.ErrorIs(t, err, types.ErrInvalidColoring)
}

// Every trap's coin equals the XOR of its neighbours' coins and every state
// is the stabilizer eigenstate selected by the node's coin.
func TestCanvasInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := testutil.DrawGraph(t, 10)
		coloring := graph.GreedyLargestFirst{}.Color(g)
		canvases, err := canvas.FromColoring(g, coloring, rng.NewSeeded(rapid.Uint64().Draw(t, "seed")))
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range canvases {
			coins := c.Coins()
			states := c.States()
			stab := c.Stabilizer()
			for _, v := range c.TrapNodes() {
				var want uint8
				g.EachNeighbor(v, func(u int) { want ^= coins[u] })
				if coins[v] != want {
					t.Fatalf("colour %d trap %d: coin %d, neighbour parity %d", c.Color(), v, coins[v], want)
				}
			}
			for v := 0; v < g.N(); v++ {
				if coins[v] > 1 {
					t.Fatalf("coin %d is not a bit", coins[v])
				}
				if states[v] != stab.At(v).Eigenstate(coins[v]) {
					t.Fatalf("node %d: state %s does not match %s with coin %d", v, states[v], stab.At(v), coins[v])
				}
			}
		}
	})
}
