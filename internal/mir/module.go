package mir

import (
	"fmt"
	"sync"
)

// Proto is a function prototype: parameter/result types and a variadic
// flag, matching spec.md §6's "proto-arr typed protos".
type Proto struct {
	Params   []Type
	Results  []Type
	Variadic bool
}

// LazyGenFunc is the code generator's lazy-generation hook, invoked once
// per module at Link time. Real native backends resolve symbols and emit
// machine code here; internal/mir/fake supplies a recording
// implementation for driver tests. Matches spec.md §6: "module linking
// with lazy-gen interface".
type LazyGenFunc func(*Module) error

// Module is one MIR translation unit: the functions internal/driver emits
// for a single assembly, its bss (zero-initialized static-field) symbols,
// and its extern imports/exports. internal/driver creates exactly one
// Module per assembly without taking its process-wide mutex; the Module's
// own mutex serializes NewFunction and the other declaration calls, and
// the driver holds its process-wide mutex only around Link.
type Module struct {
	mu sync.Mutex

	Name      string
	Functions map[string]*Function
	Externs   map[string]*Proto // imported function symbols, resolved post-link
	ExternData map[string]Type   // imported data symbols (e.g. another module's static field)
	Exports   map[string]bool    // symbol names this module makes visible to others
	BSS       map[string]int64   // zero-init data symbol -> size in bytes

	linked    bool
	addresses map[string]uintptr

	nextFnID int
}

// NewModule creates an empty Module.
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Functions:  make(map[string]*Function),
		Externs:    make(map[string]*Proto),
		ExternData: make(map[string]Type),
		Exports:    make(map[string]bool),
		BSS:        make(map[string]int64),
		addresses:  make(map[string]uintptr),
	}
}

// NewFunction declares a function with the given name and prototype and
// returns it for a Builder to fill in. Calling NewFunction twice with the
// same name is a programmer error (duplicate MethodDef translation),
// reported as an error rather than silently overwriting.
func (m *Module) NewFunction(name string, proto *Proto) (*Function, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Functions[name]; exists {
		return nil, fmt.Errorf("mir: function %q already declared in module %q", name, m.Name)
	}
	m.nextFnID++
	fn := &Function{Name: name, Proto: proto, id: m.nextFnID}
	m.Functions[name] = fn
	return fn, nil
}

// DeclareExtern imports an external function symbol (another module's
// export, or a host intrinsic) with the given prototype.
func (m *Module) DeclareExtern(name string, proto *Proto) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Externs[name] = proto
}

// DeclareExternData imports an external data symbol (another module's
// static field).
func (m *Module) DeclareExternData(name string, ty Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExternData[name] = ty
}

// Export marks a module-local function or bss symbol visible to other
// modules once linked.
func (m *Module) Export(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exports[name] = true
}

// DefineBSS declares a zero-initialized data symbol of the given size,
// used for a type's static fields (spec.md §6's "bss (zero-init)
// definitions").
func (m *Module) DefineBSS(name string, sizeBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BSS[name] = sizeBytes
}

// Link finalizes the module by invoking gen, the code generator's
// lazy-generation hook, exactly once. After Link succeeds,
// FunctionAddress resolves real addresses; before Link it always errors.
func (m *Module) Link(gen LazyGenFunc) error {
	m.mu.Lock()
	if m.linked {
		m.mu.Unlock()
		return fmt.Errorf("mir: module %q already linked", m.Name)
	}
	m.mu.Unlock()

	if err := gen(m); err != nil {
		return fmt.Errorf("mir: link %q: %w", m.Name, err)
	}

	m.mu.Lock()
	m.linked = true
	m.mu.Unlock()
	return nil
}

// SetFunctionAddress records a function's resolved native entry point.
// Called by a LazyGenFunc implementation while it runs inside Link.
func (m *Module) SetFunctionAddress(name string, addr uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addresses == nil {
		m.addresses = make(map[string]uintptr)
	}
	m.addresses[name] = addr
}

// FunctionAddress resolves a linked function's native entry point
// (spec.md §6's "function address resolution post-link"). It returns an
// error if the module has not been linked yet or the symbol is unknown.
func (m *Module) FunctionAddress(name string) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.linked {
		return 0, fmt.Errorf("mir: module %q is not linked yet", m.Name)
	}
	addr, ok := m.addresses[name]
	if !ok {
		return 0, fmt.Errorf("mir: no resolved address for function %q in module %q", name, m.Name)
	}
	return addr, nil
}

// Linked reports whether Link has already completed successfully.
func (m *Module) Linked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linked
}
