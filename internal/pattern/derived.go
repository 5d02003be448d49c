package pattern

import (
	"slices"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// Table holds, per measured node, the measurement with every earlier X/Z
// correction on that node folded into its s/t domains.
type Table struct {
	entries  []Measurement
	measured []bool
}

// Get returns the folded measurement of node.
func (t *Table) Get(node int) (Measurement, bool) {
	if node < 0 || node >= len(t.entries) || !t.measured[node] {
		return Measurement{}, false
	}
	m := t.entries[node]
	m.SDomain = slices.Clone(m.SDomain)
	m.TDomain = slices.Clone(m.TDomain)
	return m, true
}

// Nodes returns the measured node ids in ascending order.
func (t *Table) Nodes() []int {
	var out []int
	for v, ok := range t.measured {
		if ok {
			out = append(out, v)
		}
	}
	return out
}

// OnlyPlane reports whether every measurement lies in plane.
func (t *Table) OnlyPlane(plane quantum.Plane) bool {
	for v, ok := range t.measured {
		if ok && t.entries[v].Plane != plane {
			return false
		}
	}
	return true
}

func (p *Pattern) foldMeasurements() *Table {
	t := &Table{
		entries:  make([]Measurement, p.nodes),
		measured: make([]bool, p.nodes),
	}
	pendingX := make(map[int][]int)
	pendingZ := make(map[int][]int)
	for _, c := range p.commands {
		switch c.Kind {
		case KindCorrectX:
			pendingX[c.Node] = symmetricDifference(pendingX[c.Node], c.Domain)
		case KindCorrectZ:
			pendingZ[c.Node] = symmetricDifference(pendingZ[c.Node], c.Domain)
		case KindMeasure:
			m := c.Measure
			m.SDomain = symmetricDifference(m.SDomain, pendingX[c.Node])
			m.TDomain = symmetricDifference(m.TDomain, pendingZ[c.Node])
			t.entries[c.Node] = m
			t.measured[c.Node] = true
		case KindPrepare, KindEntangle:
		}
	}
	return t
}

// ByProduct is the accumulated correction domain of one output node.
type ByProduct struct {
	XDomain []int
	ZDomain []int
}

// ByProducts maps each output node to its correction domains. Outputs without
// corrections carry empty domains.
type ByProducts map[int]ByProduct

// For returns a copy of the domains of node.
func (b ByProducts) For(node int) (ByProduct, bool) {
	bp, ok := b[node]
	if !ok {
		return ByProduct{}, false
	}
	return ByProduct{XDomain: slices.Clone(bp.XDomain), ZDomain: slices.Clone(bp.ZDomain)}, true
}

func (p *Pattern) collectByProducts() ByProducts {
	db := make(ByProducts, len(p.outputs))
	for _, o := range p.outputs {
		db[o] = ByProduct{}
	}
	for _, c := range p.commands {
		bp, isOutput := db[c.Node]
		if !isOutput {
			continue
		}
		switch c.Kind {
		case KindCorrectX:
			bp.XDomain = symmetricDifference(bp.XDomain, c.Domain)
		case KindCorrectZ:
			bp.ZDomain = symmetricDifference(bp.ZDomain, c.Domain)
		default:
			continue
		}
		db[c.Node] = bp
	}
	return db
}

// CleanKind tags a CleanCommand.
type CleanKind uint8

const (
	CleanEntangle CleanKind = iota + 1
	CleanMeasure
)

// CleanCommand carries node ids only.
type CleanCommand struct {
	Kind CleanKind
	A, B int
}

// Clean is the pattern as the executor sees it: entanglement and bare
// measurement slots in order, without angles, planes or domains.
type Clean struct {
	commands []CleanCommand
}

// Commands returns a copy of the clean command sequence.
func (c *Clean) Commands() []CleanCommand { return slices.Clone(c.commands) }

// Len returns the number of clean commands.
func (c *Clean) Len() int { return len(c.commands) }

func (p *Pattern) buildClean() *Clean {
	clean := &Clean{}
	for _, c := range p.commands {
		switch c.Kind {
		case KindEntangle:
			clean.commands = append(clean.commands, CleanCommand{Kind: CleanEntangle, A: c.Node, B: c.Partner})
		case KindMeasure:
			clean.commands = append(clean.commands, CleanCommand{Kind: CleanMeasure, A: c.Node})
		case KindPrepare, KindCorrectX, KindCorrectZ:
		}
	}
	return clean
}
