// Package backend defines the executor capability the client delegates to.
package backend

import "github.com/AaronLay10/BlindEngine/internal/quantum"

// State is an opaque handle on an executor's remaining qubits.
type State interface {
	Nodes() []int
}

// Backend executes physical operations on node-labelled qubits. An
// implementation only ever sees node ids, gates and measurement descriptions.
type Backend interface {
	// AddNodes prepares each node in the matching basic state.
	AddNodes(nodes []int, states []quantum.BasicState) error
	ApplySingle(node int, op quantum.Operator) error
	Entangle(a, b int) error
	// Measure consumes node and returns the raw outcome bit.
	Measure(node int, desc quantum.Description) (bool, error)
	ReadState() (State, error)
}
