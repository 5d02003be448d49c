package pattern

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
)

// Document is the on-disk JSON form of a pattern. Angles are in units of π,
// the convention of pattern compilers.
type Document struct {
	Version  int           `json:"version"`
	Nodes    int           `json:"nodes"`
	Inputs   []int         `json:"inputs"`
	Outputs  []int         `json:"outputs"`
	Commands []CommandSpec `json:"commands"`
}

// CommandSpec is one command of a Document.
type CommandSpec struct {
	Kind    string  `json:"kind"`
	Node    int     `json:"node"`
	Partner int     `json:"partner,omitempty"`
	Plane   string  `json:"plane,omitempty"`
	Angle   float64 `json:"angle,omitempty"`
	SDomain []int   `json:"s_domain,omitempty"`
	TDomain []int   `json:"t_domain,omitempty"`
	Domain  []int   `json:"domain,omitempty"`
}

// Load reads and validates a pattern from a JSON file.
func Load(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a pattern document.
func Parse(data []byte) (*Pattern, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pattern JSON: %w", err)
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("unsupported pattern version: %d", doc.Version)
	}
	return doc.Pattern()
}

// Pattern converts the document into a validated Pattern.
func (d *Document) Pattern() (*Pattern, error) {
	cmds := make([]Command, 0, len(d.Commands))
	for i, cs := range d.Commands {
		var c Command
		switch cs.Kind {
		case "N":
			c = Prepare(cs.Node)
		case "E":
			c = Entangle(cs.Node, cs.Partner)
		case "M":
			plane, err := quantum.ParsePlane(cs.Plane)
			if err != nil {
				return nil, fmt.Errorf("command %d: %w", i, err)
			}
			c = Measure(cs.Node, plane, cs.Angle*math.Pi, cs.SDomain, cs.TDomain)
		case "X":
			c = CorrectX(cs.Node, cs.Domain)
		case "Z":
			c = CorrectZ(cs.Node, cs.Domain)
		default:
			return nil, fmt.Errorf("command %d: unknown kind %q", i, cs.Kind)
		}
		cmds = append(cmds, c)
	}
	return New(d.Nodes, d.Inputs, d.Outputs, cmds)
}

// Document renders p back into its JSON form.
func (p *Pattern) Document() *Document {
	doc := &Document{Version: 1, Nodes: p.nodes, Inputs: p.Inputs(), Outputs: p.Outputs()}
	for _, c := range p.commands {
		cs := CommandSpec{Kind: c.Kind.String(), Node: c.Node}
		switch c.Kind {
		case KindEntangle:
			cs.Partner = c.Partner
		case KindMeasure:
			cs.Plane = c.Measure.Plane.String()
			cs.Angle = c.Measure.Angle / math.Pi
			cs.SDomain = c.Measure.SDomain
			cs.TDomain = c.Measure.TDomain
		case KindCorrectX, KindCorrectZ:
			cs.Domain = c.Domain
		case KindPrepare:
		}
		doc.Commands = append(doc.Commands, cs)
	}
	return doc
}
