// Package fake implements an in-memory mir.LazyGenFunc for tests:
// internal/driver and internal/jit link their modules against it instead
// of a real native backend (spec.md §1 places "the native code generator"
// explicitly out of scope; only the MIR construction API it consumes is
// modeled). Grounded on the same fake/in-memory producer idiom as
// internal/mdsource.InMemoryProducer: a recording stand-in for an external
// system, built for deterministic assertions in tests.
package fake

import (
	"fmt"
	"sort"
	"sync"

	"github.com/clrcore/clrcore/internal/mir"
)

// Generator is a recording mir.LazyGenFunc. Each linked module gets a
// monotonically increasing fake base address per function, so repeated
// runs against the same module set produce the same addresses — needed
// for spec.md §8 property 4's determinism claim to extend to driver-level
// tests that inspect resolved addresses.
type Generator struct {
	mu        sync.Mutex
	nextAddr  uintptr
	LinkOrder []string // module names, in the order Link was invoked
}

// NewGenerator returns a Generator whose fake addresses start at base.
func NewGenerator(base uintptr) *Generator {
	if base == 0 {
		base = 0x1000
	}
	return &Generator{nextAddr: base}
}

// Gen implements mir.LazyGenFunc: it assigns a fake address to every
// function in m, in lexical name order, and records the link call.
func (g *Generator) Gen(m *mir.Module) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.LinkOrder = append(g.LinkOrder, m.Name)

	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		names = append(names, name)
	}
	// Function declaration order isn't observable through Module's public
	// API (Go maps don't preserve insertion order); lexical order is good
	// enough for address assignment to be stable across repeated runs.
	sort.Strings(names)

	for _, name := range names {
		m.SetFunctionAddress(name, g.nextAddr)
		g.nextAddr += 0x40
	}
	return nil
}

// AddressOf is a convenience wrapper erroring with a fake-generator-specific
// message when a function was never linked.
func (g *Generator) AddressOf(m *mir.Module, name string) (uintptr, error) {
	addr, err := m.FunctionAddress(name)
	if err != nil {
		return 0, fmt.Errorf("fake: %w", err)
	}
	return addr, nil
}
