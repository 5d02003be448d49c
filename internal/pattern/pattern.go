package pattern

import (
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Pattern is a validated, immutable measurement pattern.
type Pattern struct {
	nodes    int
	inputs   []int
	outputs  []int
	commands []Command

	graph      *graph.Graph
	table      *Table
	byproducts ByProducts
	clean      *Clean
}

// New validates commands against the node roles and derives the resource
// graph, the folded measurement table, the output byproducts and the clean
// pattern.
func New(nodes int, inputs, outputs []int, commands []Command) (*Pattern, error) {
	if nodes <= 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidPattern, "pattern needs at least one node, got %d", nodes)
	}
	p := &Pattern{
		nodes:    nodes,
		inputs:   slices.Clone(inputs),
		outputs:  slices.Clone(outputs),
		commands: make([]Command, len(commands)),
	}
	for i, c := range commands {
		p.commands[i] = c.clone()
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	var edges []graph.Edge
	for _, c := range p.commands {
		if c.Kind == KindEntangle {
			edges = append(edges, graph.Edge{A: c.Node, B: c.Partner})
		}
	}
	g, err := graph.New(nodes, edges)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidPattern, err.Error())
	}
	p.graph = g
	p.table = p.foldMeasurements()
	p.byproducts = p.collectByProducts()
	p.clean = p.buildClean()
	return p, nil
}

func (p *Pattern) validate() error {
	inRange := func(v int) bool { return v >= 0 && v < p.nodes }
	checkSet := func(name string, ids []int) (map[int]bool, error) {
		set := make(map[int]bool, len(ids))
		for _, v := range ids {
			if !inRange(v) {
				return nil, errorsmod.Wrapf(types.ErrInvalidPattern, "%s node %d outside 0..%d", name, v, p.nodes-1)
			}
			if set[v] {
				return nil, errorsmod.Wrapf(types.ErrInvalidPattern, "%s node %d listed twice", name, v)
			}
			set[v] = true
		}
		return set, nil
	}
	inputs, err := checkSet("input", p.inputs)
	if err != nil {
		return err
	}
	outputs, err := checkSet("output", p.outputs)
	if err != nil {
		return err
	}

	prepared := make(map[int]bool)
	measured := make(map[int]bool)
	corrected := make(map[int]bool)
	checkDomain := func(i int, c Command, domain []int) error {
		for _, d := range domain {
			if !inRange(d) {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: domain node %d out of range", i, c, d)
			}
			if !measured[d] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: depends on node %d before it is measured", i, c, d)
			}
		}
		return nil
	}

	for i, c := range p.commands {
		if !inRange(c.Node) {
			return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: node out of range", i, c)
		}
		switch c.Kind {
		case KindPrepare:
			if inputs[c.Node] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: input node %d cannot be prepared", i, c.Node)
			}
			if prepared[c.Node] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: node %d prepared twice", i, c.Node)
			}
			prepared[c.Node] = true
		case KindEntangle:
			if !inRange(c.Partner) || c.Partner == c.Node {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: bad partner", i, c)
			}
			if measured[c.Node] || measured[c.Partner] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: entangles a measured node", i, c)
			}
			if corrected[c.Node] || corrected[c.Partner] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: entangles a node after its correction", i, c)
			}
		case KindMeasure:
			if outputs[c.Node] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: output node %d is measured", i, c.Node)
			}
			if measured[c.Node] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: node %d measured twice", i, c.Node)
			}
			if c.Measure.Plane > quantum.PlaneXZ {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: unknown plane %s", i, c.Measure.Plane)
			}
			if err := checkDomain(i, c, c.Measure.SDomain); err != nil {
				return err
			}
			if err := checkDomain(i, c, c.Measure.TDomain); err != nil {
				return err
			}
			measured[c.Node] = true
		case KindCorrectX, KindCorrectZ:
			if measured[c.Node] {
				return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d %s: corrects an already measured node", i, c)
			}
			if err := checkDomain(i, c, c.Domain); err != nil {
				return err
			}
			corrected[c.Node] = true
		default:
			return errorsmod.Wrapf(types.ErrInvalidPattern, "command %d: unknown kind %s", i, c.Kind)
		}
	}

	for v := 0; v < p.nodes; v++ {
		if !measured[v] && !outputs[v] {
			return errorsmod.Wrapf(types.ErrInvalidPattern, "node %d is neither measured nor an output", v)
		}
	}
	return nil
}

// Nodes returns the node count.
func (p *Pattern) Nodes() int { return p.nodes }

// Inputs returns a copy of the input node ids.
func (p *Pattern) Inputs() []int { return slices.Clone(p.inputs) }

// Outputs returns a copy of the output node ids.
func (p *Pattern) Outputs() []int { return slices.Clone(p.outputs) }

// Commands returns a deep copy of the command sequence.
func (p *Pattern) Commands() []Command {
	out := make([]Command, len(p.commands))
	for i, c := range p.commands {
		out[i] = c.clone()
	}
	return out
}

// Graph returns the resource graph induced by the Entangle commands.
func (p *Pattern) Graph() *graph.Graph { return p.graph }

func (p *Pattern) IsInput(v int) bool  { return slices.Contains(p.inputs, v) }
func (p *Pattern) IsOutput(v int) bool { return slices.Contains(p.outputs, v) }

// Measurements returns the folded measurement table.
func (p *Pattern) Measurements() *Table { return p.table }

// ByProducts returns the correction domains of the output nodes.
func (p *Pattern) ByProducts() ByProducts { return p.byproducts }

// Clean returns the executor-facing pattern.
func (p *Pattern) Clean() *Clean { return p.clean }
