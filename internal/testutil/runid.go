package testutil

import (
	"fmt"
	"sync"
)

// FixedRunGenerator produces deterministic run IDs for tests, replacing the
// store's UUID generator so golden files and replay checks are stable across
// runs.
type FixedRunGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunGenerator creates a generator yielding "run-<prefix>-0001",
// "run-<prefix>-0002", ...
func NewFixedRunGenerator(prefix string) *FixedRunGenerator {
	return &FixedRunGenerator{prefix: prefix}
}

// Next returns the next deterministic run ID.
func (g *FixedRunGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%s-%04d", g.prefix, g.n)
}
