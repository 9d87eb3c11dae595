package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator generates the same execution ID every time.
//
// This enables deterministic log and golden output: the same scenario with
// the same FixedIDGenerator produces byte-identical statement logs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed execution ID generator.
//
// If id is empty, Generate() returns "test-exec-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-exec-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements engine.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator hands out "<prefix>-1", "<prefix>-2", ... and can be
// reset so the same test can run twice with identical IDs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceIDGenerator creates a generator whose first ID is "<prefix>-1".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID in sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Issued returns how many IDs have been generated since the last Reset.
func (g *SequenceIDGenerator) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at 1.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
