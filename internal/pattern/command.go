package pattern

import (
	"fmt"
	"slices"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// Kind tags a Command.
type Kind uint8

const (
	KindPrepare Kind = iota + 1
	KindEntangle
	KindMeasure
	KindCorrectX
	KindCorrectZ
)

func (k Kind) String() string {
	switch k {
	case KindPrepare:
		return "N"
	case KindEntangle:
		return "E"
	case KindMeasure:
		return "M"
	case KindCorrectX:
		return "X"
	case KindCorrectZ:
		return "Z"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Measurement is a node's logical measurement: plane, angle in radians, and
// the nodes whose outcomes adapt it.
type Measurement struct {
	Plane   quantum.Plane
	Angle   float64
	SDomain []int
	TDomain []int
}

// Plain is the XY measurement at angle zero with no adaptation.
func Plain() Measurement {
	return Measurement{Plane: quantum.PlaneXY}
}

// Command is one step of a pattern. Only the fields of its Kind are set.
type Command struct {
	Kind    Kind
	Node    int
	Partner int         // KindEntangle
	Measure Measurement // KindMeasure
	Domain  []int       // KindCorrectX, KindCorrectZ
}

func Prepare(node int) Command { return Command{Kind: KindPrepare, Node: node} }

func Entangle(a, b int) Command { return Command{Kind: KindEntangle, Node: a, Partner: b} }

func Measure(node int, plane quantum.Plane, angle float64, sDomain, tDomain []int) Command {
	return Command{Kind: KindMeasure, Node: node, Measure: Measurement{
		Plane:   plane,
		Angle:   angle,
		SDomain: slices.Clone(sDomain),
		TDomain: slices.Clone(tDomain),
	}}
}

func CorrectX(node int, domain []int) Command {
	return Command{Kind: KindCorrectX, Node: node, Domain: slices.Clone(domain)}
}

func CorrectZ(node int, domain []int) Command {
	return Command{Kind: KindCorrectZ, Node: node, Domain: slices.Clone(domain)}
}

func (c Command) clone() Command {
	c.Measure.SDomain = slices.Clone(c.Measure.SDomain)
	c.Measure.TDomain = slices.Clone(c.Measure.TDomain)
	c.Domain = slices.Clone(c.Domain)
	return c
}

func (c Command) String() string {
	switch c.Kind {
	case KindPrepare:
		return fmt.Sprintf("N(%d)", c.Node)
	case KindEntangle:
		return fmt.Sprintf("E(%d,%d)", c.Node, c.Partner)
	case KindMeasure:
		return fmt.Sprintf("M(%d,%s,%.4f,s=%v,t=%v)", c.Node, c.Measure.Plane, c.Measure.Angle, c.Measure.SDomain, c.Measure.TDomain)
	case KindCorrectX:
		return fmt.Sprintf("X(%d,%v)", c.Node, c.Domain)
	case KindCorrectZ:
		return fmt.Sprintf("Z(%d,%v)", c.Node, c.Domain)
	default:
		return c.Kind.String()
	}
}

// symmetricDifference XORs b into a set represented as sorted unique ids.
func symmetricDifference(a, b []int) []int {
	set := make(map[int]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = !set[v]
	}
	for _, v := range b {
		set[v] = !set[v]
	}
	out := make([]int, 0, len(set))
	for v, in := range set {
		if in {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}
