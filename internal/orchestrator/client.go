package orchestrator

import (
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/backend"
	"github.com/AaronLay10/BlindEngine/internal/blind"
	"github.com/AaronLay10/BlindEngine/internal/canvas"
	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/graph"
	"github.com/AaronLay10/BlindEngine/internal/measure"
	"github.com/AaronLay10/BlindEngine/internal/pattern"
	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/rng"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Client is the trusted party of one delegation. It owns the pattern, the
// secrets of the current draw and the outcomes of the current run. A Client
// runs one delegation at a time.
type Client struct {
	pattern     *pattern.Pattern
	inputStates []quantum.BasicState
	flags       secrets.Flags
	src         rng.Source
	secrets     *secrets.Data
	results     *measure.Results
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithInputStates sets the states of the pattern's input nodes, in input
// order. The default is |+> on every input.
func WithInputStates(states []quantum.BasicState) ClientOption {
	return func(c *Client) { c.inputStates = slices.Clone(states) }
}

// WithSecrets selects which secret kinds are drawn. The default is all.
func WithSecrets(flags secrets.Flags) ClientOption {
	return func(c *Client) { c.flags = flags }
}

// WithSource sets the randomness for secrets and canvases.
func WithSource(src rng.Source) ClientOption {
	return func(c *Client) { c.src = src }
}

// WithSecretData pins the secret draw instead of generating one.
func WithSecretData(d *secrets.Data) ClientOption {
	return func(c *Client) {
		c.secrets = d
		c.flags = d.Flags()
	}
}

// NewClient prepares a client for p and draws its first secrets.
func NewClient(p *pattern.Pattern, opts ...ClientOption) (*Client, error) {
	c := &Client{
		pattern: p,
		flags:   secrets.All(),
		results: measure.NewResults(p.Nodes()),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.inputStates == nil {
		c.inputStates = make([]quantum.BasicState, len(p.Inputs()))
	}
	if len(c.inputStates) != len(p.Inputs()) {
		return nil, errorsmod.Wrapf(types.ErrInvalidPattern, "%d input states for %d inputs", len(c.inputStates), len(p.Inputs()))
	}
	if (c.flags.A || c.flags.Theta) && !p.Measurements().OnlyPlane(quantum.PlaneXY) {
		return nil, errorsmod.Wrap(types.ErrUnsupportedPlane, "a and theta secrets need every measurement in the XY plane")
	}
	if c.src == nil {
		c.src = rng.NewSecure()
	}

	if c.secrets == nil {
		if err := c.RefreshSecrets(); err != nil {
			return nil, err
		}
	} else if c.secrets.N() != p.Nodes() {
		return nil, errorsmod.Wrapf(types.ErrInvalidSecretRequest, "secrets cover %d nodes, pattern has %d", c.secrets.N(), p.Nodes())
	}
	return c, nil
}

// RefreshSecrets replaces the secret draw as a whole.
func (c *Client) RefreshSecrets() error {
	d, err := secrets.Generate(c.pattern.Graph(), c.roles(), c.flags, c.src)
	if err != nil {
		return err
	}
	c.secrets = d
	events.Emit("debug", "secrets.refreshed", "", map[string]interface{}{
		"nodes": d.N(),
		"r":     c.flags.R,
		"a":     c.flags.A,
		"theta": c.flags.Theta,
	})
	return nil
}

func (c *Client) roles() *secrets.Roles {
	return &secrets.Roles{Inputs: c.pattern.Inputs(), Outputs: c.pattern.Outputs()}
}

// Pattern returns the client's pattern.
func (c *Client) Pattern() *pattern.Pattern { return c.pattern }

// Secrets returns the current draw. It must never reach the executor.
func (c *Client) Secrets() *secrets.Data { return c.secrets }

// Results returns the logical outcomes of the last run.
func (c *Client) Results() *measure.Results { return c.results }

// Outcome is the client's view of a finished computation round.
type Outcome struct {
	// Classical holds the logical outcome of every measured node.
	Classical map[int]bool
	// State is the executor's remaining qubits after decoding.
	State backend.State
}

// DelegatePattern runs the real computation on b: prepare, disguise,
// execute the clean pattern through the adapter, then decode the outputs.
func (c *Client) DelegatePattern(b backend.Backend) (*Outcome, error) {
	c.results.Reset()
	p := c.pattern

	if err := addNodes(b, p.Inputs(), c.inputStates); err != nil {
		return nil, err
	}
	var aux, outs []int
	var auxStates, outStates []quantum.BasicState
	var inputOutputs []int
	for v := 0; v < p.Nodes(); v++ {
		switch {
		case p.IsInput(v):
			if p.IsOutput(v) {
				inputOutputs = append(inputOutputs, v)
			}
		case p.IsOutput(v):
			outs = append(outs, v)
			st := quantum.StatePlus
			if c.secrets.OutcomeFlip(v) == 1 {
				st = quantum.StateMinus
			}
			outStates = append(outStates, st)
		default:
			aux = append(aux, v)
			auxStates = append(auxStates, quantum.StatePlus)
		}
	}
	if err := addNodes(b, aux, auxStates); err != nil {
		return nil, err
	}
	if err := addNodes(b, outs, outStates); err != nil {
		return nil, err
	}
	// Outputs that are also inputs carry a client-supplied state, so the
	// neighbour flips are compensated by a gate instead of the preparation.
	for _, v := range inputOutputs {
		if c.secrets.AN(v) == 1 {
			if err := b.ApplySingle(v, quantum.PauliZ); err != nil {
				return nil, errorsmod.Wrapf(types.ErrBackend, "compensate node %d: %v", v, err)
			}
		}
	}

	if err := blind.Apply(b, allNodes(p.Nodes()), c.secrets); err != nil {
		return nil, err
	}

	adapter := measure.NewAdapter(c.secrets, c.results)
	table := p.Measurements()
	err := execute(b, p.Clean(), adapter, func(node int) pattern.Measurement {
		m, _ := table.Get(node)
		return m
	})
	if err != nil {
		return nil, err
	}

	if err := blind.Correct(b, p.Outputs(), c.results, p.ByProducts(), c.secrets); err != nil {
		return nil, err
	}
	st, err := b.ReadState()
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrBackend, "read state: %v", err)
	}
	return &Outcome{Classical: c.results.Recorded(), State: st}, nil
}

// DelegateTestRun runs a trap round on b and returns one parity per trap,
// in canvas trap order. Every parity of an honest executor is zero.
func (c *Client) DelegateTestRun(cv *canvas.Canvas, b backend.Backend) ([]int, error) {
	p := c.pattern
	if n := len(cv.States()); n != p.Nodes() {
		return nil, errorsmod.Wrapf(types.ErrInvalidTrapLayout, "canvas covers %d nodes, pattern has %d", n, p.Nodes())
	}
	for _, v := range cv.TrapNodes() {
		if v < 0 || v >= p.Nodes() {
			return nil, errorsmod.Wrapf(types.ErrInvalidTrapLayout, "trap node %d outside pattern", v)
		}
	}
	c.results.Reset()
	nodes := allNodes(p.Nodes())

	if err := addNodes(b, nodes, cv.States()); err != nil {
		return nil, err
	}
	if err := blind.Apply(b, nodes, c.secrets); err != nil {
		return nil, err
	}

	adapter := measure.NewAdapter(c.secrets, c.results)
	plain := func(int) pattern.Measurement { return pattern.Plain() }
	if err := execute(b, p.Clean(), adapter, plain); err != nil {
		return nil, err
	}

	// Quantum outputs are never measured by the pattern; traps on them are
	// read out here with the same plain measurement.
	for _, v := range cv.TrapNodes() {
		if c.results.Has(v) {
			continue
		}
		if err := measureNode(b, adapter, v, pattern.Plain()); err != nil {
			return nil, err
		}
	}

	parities := make([]int, 0, len(cv.Traps()))
	for _, t := range cv.Traps() {
		odd, err := c.results.Parity(t)
		if err != nil {
			return nil, err
		}
		if odd {
			parities = append(parities, 1)
		} else {
			parities = append(parities, 0)
		}
	}
	return parities, nil
}

// TestRuns builds one canvas per colour class of the colouring chosen by
// colorer.
func (c *Client) TestRuns(colorer graph.Colorer) ([]*canvas.Canvas, error) {
	g := c.pattern.Graph()
	return canvas.FromColoring(g, colorer.Color(g), c.src)
}

func execute(b backend.Backend, clean *pattern.Clean, adapter *measure.Adapter, measurement func(node int) pattern.Measurement) error {
	for _, cmd := range clean.Commands() {
		switch cmd.Kind {
		case pattern.CleanEntangle:
			if err := b.Entangle(cmd.A, cmd.B); err != nil {
				return errorsmod.Wrapf(types.ErrBackend, "entangle %d-%d: %v", cmd.A, cmd.B, err)
			}
		case pattern.CleanMeasure:
			if err := measureNode(b, adapter, cmd.A, measurement(cmd.A)); err != nil {
				return err
			}
		default:
			return errorsmod.Wrapf(types.ErrInvalidPattern, "unknown clean command kind %d", cmd.Kind)
		}
	}
	return nil
}

func measureNode(b backend.Backend, adapter *measure.Adapter, node int, m pattern.Measurement) error {
	desc, err := adapter.Describe(node, m)
	if err != nil {
		return err
	}
	raw, err := b.Measure(node, desc)
	if err != nil {
		return errorsmod.Wrapf(types.ErrBackend, "measure node %d: %v", node, err)
	}
	return adapter.SetResult(node, raw)
}

func addNodes(b backend.Backend, nodes []int, states []quantum.BasicState) error {
	if len(nodes) == 0 {
		return nil
	}
	if err := b.AddNodes(nodes, states); err != nil {
		return errorsmod.Wrapf(types.ErrBackend, "prepare nodes: %v", err)
	}
	return nil
}

func allNodes(n int) []int {
	nodes := make([]int, n)
	for i := range nodes {
		nodes[i] = i
	}
	return nodes
}
