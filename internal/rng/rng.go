// Package rng supplies the randomness threaded through secret generation and
// canvas construction.
package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source is the only randomness capability the protocol needs.
// *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Bit draws a uniform bit.
func Bit(src Source) uint8 {
	return uint8(src.IntN(2))
}

// NewSecure returns a ChaCha8 generator keyed from the operating system.
// Use it for real sessions.
func NewSecure() *rand.Rand {
	var seed [32]byte
	// crypto/rand.Read always fills the buffer and never returns an error.
	cryptorand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeeded returns a reproducible generator for tests and replays.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Derive returns a child generator keyed by parent output. Children are safe
// to hand to separate goroutines; the parent is not.
func Derive(parent *rand.Rand) *rand.Rand {
	var seed [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(seed[i*8:], parent.Uint64())
	}
	return rand.New(rand.NewChaCha8(seed))
}
