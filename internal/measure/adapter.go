package measure

import (
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Adapter sits between the client's logical measurements and the executor.
// It is the only place where secrets meet measurement angles.
type Adapter struct {
	secrets *secrets.Data
	results *Results
}

// NewAdapter binds a secret draw to the results store of one run.
func NewAdapter(d *secrets.Data, results *Results) *Adapter {
	return &Adapter{secrets: d, results: results}
}

// Describe returns the disguised description of measuring node with m. The
// adaptive corrections read the logical outcomes of m's domains.
func (a *Adapter) Describe(node int, m pattern.Measurement) (quantum.Description, error) {
	s, err := a.results.Parity(m.SDomain)
	if err != nil {
		return quantum.Description{}, err
	}
	t, err := a.results.Parity(m.TDomain)
	if err != nil {
		return quantum.Description{}, err
	}
	if a.secrets.Flags().A || a.secrets.Flags().Theta {
		if m.Plane != quantum.PlaneXY {
			return quantum.Description{}, errorsmod.Wrapf(types.ErrUnsupportedPlane, "node %d measured in %s", node, m.Plane)
		}
	}

	corr := Update(m.Plane, s, t)
	angle := corr.Apply(m.Angle)
	if a.secrets.A(node) == 1 {
		angle = -angle
	}
	angle += float64(a.secrets.Theta(node)) * math.Pi / 4
	angle += math.Pi * float64(a.secrets.OutcomeFlip(node))
	return quantum.Description{Plane: corr.Plane, Angle: quantum.NormalizeAngle(angle)}, nil
}

// SetResult stores the logical outcome raw XOR r(node).
func (a *Adapter) SetResult(node int, raw bool) error {
	return a.results.Set(node, raw != (a.secrets.R(node) == 1))
}

// Result always fails: logical outcomes stay with the client.
func (a *Adapter) Result(node int) (bool, error) {
	return false, errorsmod.Wrapf(types.ErrForbiddenQuery, "outcome of node %d", node)
}
