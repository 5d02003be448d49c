package blind_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/blind"
	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/measure"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// recorder logs single-qubit gates by name.
type recorder struct {
	ops  []string
	fail bool
}

func (r *recorder) AddNodes([]int, []quantum.BasicState) error { return nil }
func (r *recorder) Entangle(int, int) error                    { return nil }
func (r *recorder) Measure(int, quantum.Description) (bool, error) {
	return false, nil
}
func (r *recorder) ReadState() (backend.State, error) { return nil, nil }

func (r *recorder) ApplySingle(node int, op quantum.Operator) error {
	if r.fail {
		return errors.New("gate rejected")
	}
	name := "R"
	switch op {
	case quantum.PauliX:
		name = "X"
	case quantum.PauliZ:
		name = "Z"
	}
	r.ops = append(r.ops, fmt.Sprintf("%s%d", name, node))
	return nil
}

func pinned(t *testing.T, v secrets.Values) *secrets.Data {
	t.Helper()
	g, err := graph.New(3, []graph.Edge{{A: 0, B: 1}, {A: 1, B: 2}})
	require.NoError(t, err)
	d, err := secrets.FromValues(g, &secrets.Roles{Inputs: []int{0}, Outputs: []int{2}}, secrets.All(), v)
	require.NoError(t, err)
	return d
}

func TestApplyOrder(t *testing.T) {
	d := pinned(t, secrets.Values{
		R:     []uint8{0, 0, 0},
		Theta: []uint8{2, 5, 0},
		A:     []uint8{0, 1, 1},
	})
	rec := &recorder{}
	require.NoError(t, blind.Apply(rec, []int{0, 1, 2}, d))
	require.Equal(t, []string{"R0", "X1", "R1", "X2"}, rec.ops)
}

func TestApplyWrapsBackendErrors(t *testing.T) {
	d := pinned(t, secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{1, 0, 0}, A: []uint8{0, 0, 0}})
	err := blind.Apply(&recorder{fail: true}, []int{0}, d)
	require.ErrorIs(t, err, types.ErrBackend)
}

func TestDecode(t *testing.T) {
	d := pinned(t, secrets.Values{
		R:     []uint8{1, 0, 0},
		Theta: []uint8{0, 0, 0},
		A:     []uint8{0, 0, 1},
	})
	results := measure.NewResults(3)
	require.NoError(t, results.Set(0, true))
	require.NoError(t, results.Set(1, false))

	// z: parity{1}=0, r2=0. x: parity{0}=1, a2=1.
	z, x, err := blind.Decode(2, results, pattern.ByProduct{XDomain: []int{0}, ZDomain: []int{1}}, d)
	require.NoError(t, err)
	require.False(t, z)
	require.False(t, x)

	z, x, err = blind.Decode(2, results, pattern.ByProduct{ZDomain: []int{0, 1}}, d)
	require.NoError(t, err)
	require.True(t, z)
	require.True(t, x)

	_, _, err = blind.Decode(2, measure.NewResults(3), pattern.ByProduct{XDomain: []int{0}}, d)
	require.ErrorIs(t, err, types.ErrStaleResultsReuse)
}

func TestCorrectAppliesZBeforeX(t *testing.T) {
	d := pinned(t, secrets.Values{R: []uint8{0, 0, 0}, Theta: []uint8{0, 0, 0}, A: []uint8{0, 0, 1}})
	results := measure.NewResults(3)
	require.NoError(t, results.Set(0, true))

	rec := &recorder{}
	db := pattern.ByProducts{2: {ZDomain: []int{0}}}
	require.NoError(t, blind.Correct(rec, []int{2}, results, db, d))
	require.Equal(t, []string{"Z2", "X2"}, rec.ops)
}
