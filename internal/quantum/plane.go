package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Plane is a measurement plane of the Bloch sphere.
type Plane uint8

const (
	PlaneXY Plane = iota
	PlaneYZ
	PlaneXZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneYZ:
		return "YZ"
	case PlaneXZ:
		return "XZ"
	default:
		return fmt.Sprintf("Plane(%d)", uint8(p))
	}
}

// ParsePlane accepts XY, YZ or XZ in any case.
func ParsePlane(s string) (Plane, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "XY", "":
		return PlaneXY, nil
	case "YZ":
		return PlaneYZ, nil
	case "XZ":
		return PlaneXZ, nil
	default:
		return 0, fmt.Errorf("unknown measurement plane %q", s)
	}
}

// Description is what an executor receives for one measurement: a plane and
// an angle in radians, nothing else.
type Description struct {
	Plane Plane
	Angle float64
}

// Basis returns the +1 and -1 eigenvectors of the measured observable.
// Outcome bit 0 corresponds to the first vector.
func (d Description) Basis() (plus, minus Vector) {
	a := d.Angle
	switch d.Plane {
	case PlaneYZ:
		c, s := complex(math.Cos(a/2), 0), complex(math.Sin(a/2), 0)
		return Vector{c, 1i * s}, Vector{s, -1i * c}
	case PlaneXZ:
		c, s := complex(math.Cos(a/2), 0), complex(math.Sin(a/2), 0)
		return Vector{c, s}, Vector{s, -c}
	default:
		ph := cmplx.Exp(complex(0, a))
		return Vector{invSqrt2, ph * invSqrt2}, Vector{invSqrt2, -ph * invSqrt2}
	}
}

// NormalizeAngle maps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
