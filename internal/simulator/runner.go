package simulator

import (
	"fmt"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/measure"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// RunPattern executes p directly on b, without any disguise, applying every
// correction where it appears. It is the reference the delegated run is
// compared against.
func RunPattern(b backend.Backend, p *pattern.Pattern, inputs []quantum.BasicState) (*measure.Results, error) {
	in := p.Inputs()
	if len(inputs) != len(in) {
		return nil, fmt.Errorf("run pattern: %d input states for %d inputs", len(inputs), len(in))
	}
	if err := b.AddNodes(in, inputs); err != nil {
		return nil, err
	}
	var aux []int
	for v := 0; v < p.Nodes(); v++ {
		if !p.IsInput(v) {
			aux = append(aux, v)
		}
	}
	plus := make([]quantum.BasicState, len(aux))
	if err := b.AddNodes(aux, plus); err != nil {
		return nil, err
	}

	results := measure.NewResults(p.Nodes())
	for _, c := range p.Commands() {
		switch c.Kind {
		case pattern.KindPrepare:
		case pattern.KindEntangle:
			if err := b.Entangle(c.Node, c.Partner); err != nil {
				return nil, err
			}
		case pattern.KindMeasure:
			s, err := results.Parity(c.Measure.SDomain)
			if err != nil {
				return nil, err
			}
			t, err := results.Parity(c.Measure.TDomain)
			if err != nil {
				return nil, err
			}
			corr := measure.Update(c.Measure.Plane, s, t)
			bit, err := b.Measure(c.Node, quantum.Description{Plane: corr.Plane, Angle: corr.Apply(c.Measure.Angle)})
			if err != nil {
				return nil, err
			}
			if err := results.Set(c.Node, bit); err != nil {
				return nil, err
			}
		case pattern.KindCorrectX, pattern.KindCorrectZ:
			apply, err := results.Parity(c.Domain)
			if err != nil {
				return nil, err
			}
			if !apply {
				continue
			}
			op := quantum.PauliX
			if c.Kind == pattern.KindCorrectZ {
				op = quantum.PauliZ
			}
			if err := b.ApplySingle(c.Node, op); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("run pattern: unknown command kind %s", c.Kind)
		}
	}
	return results, nil
}
