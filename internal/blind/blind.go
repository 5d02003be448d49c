// Package blind applies the secret disguise to freshly prepared qubits and
// removes it, together with the pattern's byproducts, from the outputs.
package blind

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/measure"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Apply disguises each node: X when a=1, then the rotation by theta·π/4.
func Apply(b backend.Backend, nodes []int, d *secrets.Data) error {
	for _, v := range nodes {
		if d.A(v) == 1 {
			if err := b.ApplySingle(v, quantum.PauliX); err != nil {
				return errorsmod.Wrapf(types.ErrBackend, "blind X on node %d: %v", v, err)
			}
		}
		if th := d.Theta(v); th != 0 {
			if err := b.ApplySingle(v, quantum.BlindRotation(th)); err != nil {
				return errorsmod.Wrapf(types.ErrBackend, "blind rotation on node %d: %v", v, err)
			}
		}
	}
	return nil
}

// Decode returns the Z and X corrections still owed by output node.
func Decode(node int, results *measure.Results, bp pattern.ByProduct, d *secrets.Data) (z, x bool, err error) {
	zp, err := results.Parity(bp.ZDomain)
	if err != nil {
		return false, false, err
	}
	xp, err := results.Parity(bp.XDomain)
	if err != nil {
		return false, false, err
	}
	return zp != (d.R(node) == 1), xp != (d.A(node) == 1), nil
}

// Correct decodes every output and applies Z, then X, on the backend.
func Correct(b backend.Backend, outputs []int, results *measure.Results, db pattern.ByProducts, d *secrets.Data) error {
	for _, o := range outputs {
		bp, _ := db.For(o)
		z, x, err := Decode(o, results, bp, d)
		if err != nil {
			return err
		}
		if z {
			if err := b.ApplySingle(o, quantum.PauliZ); err != nil {
				return errorsmod.Wrapf(types.ErrBackend, "correct Z on node %d: %v", o, err)
			}
		}
		if x {
			if err := b.ApplySingle(o, quantum.PauliX); err != nil {
				return errorsmod.Wrapf(types.ErrBackend, "correct X on node %d: %v", o, err)
			}
		}
	}
	return nil
}
