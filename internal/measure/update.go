// Package measure computes the disguised measurement descriptions handed to
// an executor and turns its raw outcomes back into logical bits.
package measure

import (
	"math"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// Correction rewrites an angle as Coeff·angle + Add, measured in Plane.
type Correction struct {
	Plane quantum.Plane
	Coeff float64
	Add   float64
}

// Apply returns the corrected angle.
func (c Correction) Apply(angle float64) float64 {
	return c.Coeff*angle + c.Add
}

// axis signs of X, Y and Z after conjugation by X^s Z^t.
func axisSigns(s, t bool) (x, y, z float64) {
	x, y, z = 1, 1, 1
	if s {
		y, z = -y, -z
	}
	if t {
		x, y = -x, -y
	}
	return x, y, z
}

// Update returns the adaptive correction for a measurement preceded by the
// byproduct X^s Z^t. The plane never changes; only the angle does.
func Update(plane quantum.Plane, s, t bool) Correction {
	x, y, z := axisSigns(s, t)
	var cos, sin float64
	switch plane {
	case quantum.PlaneYZ:
		cos, sin = z, y
	case quantum.PlaneXZ:
		cos, sin = z, x
	default:
		cos, sin = x, y
	}
	c := Correction{Plane: plane, Coeff: 1}
	if cos != sin {
		c.Coeff = -1
	}
	if cos < 0 {
		c.Add = math.Pi
	}
	return c
}
