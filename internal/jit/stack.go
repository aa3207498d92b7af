// Package jit implements the CIL-to-MIR JIT translator of spec.md §4.7-4.8:
// the hard core of this module. A single forward pass over one method's
// CIL walks an abstract evaluation stack, merging it at every branch
// target and handler entry, and emits MIR through internal/mir's
// block-parameter-based Builder. Grounded on the teacher's
// internal/vm/compiler_expressions.go, compiler_statements.go,
// compiler_loops.go and compiler_scope.go -- a single-pass AST-to-bytecode
// translator with its own evaluation stack and scope/spill logic --
// retargeted from "AST node -> vm.Chunk bytecode" to "CIL instruction ->
// mir.* construction calls", and on vm_ops.go/vm_exec.go for the
// operator-dispatch and conversion tables this package's binOp and
// narrowing tables generalize from the teacher's Value-tagged dynamic
// typing to CLI's fixed, statically-verified stack-type lattice.
package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

// entry is one abstract evaluation-stack slot (spec.md §4.7's "Polymorphic
// stack entries": a tagged variant carrying both the stack-type
// classification and the full type, for the verifier). For Kind ==
// StackTypeValueType, Reg holds the address of the value's stack-allocated
// backing buffer, not the value itself (spec.md §4.7).
type entry struct {
	Kind   mdmodel.StackType
	Type   *mdmodel.Type
	Reg    mir.Value
	IsF32  bool // meaningful only when Kind == StackTypeFloat
	IsNull bool // tracks a still-untyped `ldnull`, for verify.AssignableTo's isNull parameter
}

// mirType maps an abstract stack entry onto the MIR value type that
// actually carries it. Object references, byrefs, IntPtr, unmanaged
// pointers, and value-type backing-buffer addresses all lower to mir.Ptr
// (internal/mir's types.go documents this collapse).
func (e entry) mirType() mir.Type {
	switch e.Kind {
	case mdmodel.StackTypeInt32:
		return mir.I32
	case mdmodel.StackTypeInt64:
		return mir.I64
	case mdmodel.StackTypeFloat:
		if e.IsF32 {
			return mir.F32
		}
		return mir.F64
	default:
		return mir.Ptr
	}
}

// stackTypeOf implements spec.md §4.7's "Stack-type promotion rules":
// the classification a type pushes onto the evaluation stack as.
func stackTypeOf(t *mdmodel.Type) mdmodel.StackType {
	if t == nil {
		return mdmodel.StackTypeObject // ldnull: untyped null reference
	}
	if t.IsByRef() {
		return mdmodel.StackTypeByRef
	}
	if !t.IsValueType() {
		return mdmodel.StackTypeObject
	}
	if t.IsFilled() {
		if k := t.Layout().StackType; k == mdmodel.StackTypeInt64 || k == mdmodel.StackTypeIntPtr || k == mdmodel.StackTypeFloat {
			return k
		}
	}
	switch t.Name {
	case "Int64", "UInt64":
		return mdmodel.StackTypeInt64
	case "IntPtr", "UIntPtr":
		return mdmodel.StackTypeIntPtr
	case "Single", "Double":
		return mdmodel.StackTypeFloat
	case "SByte", "Byte", "Int16", "UInt16", "Boolean", "Char", "Int32", "UInt32":
		return mdmodel.StackTypeInt32
	default:
		return mdmodel.StackTypeValueType
	}
}

// frame is the translator's abstract evaluation stack for the instruction
// currently being translated.
type frame struct {
	entries []entry
}

func (f *frame) push(e entry) { f.entries = append(f.entries, e) }

func (f *frame) pop() (entry, error) {
	if len(f.entries) == 0 {
		return entry{}, fmt.Errorf("%w: pop on empty stack", ErrStackUnderflow)
	}
	e := f.entries[len(f.entries)-1]
	f.entries = f.entries[:len(f.entries)-1]
	return e, nil
}

func (f *frame) popN(n int) ([]entry, error) {
	if len(f.entries) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrStackUnderflow, n, len(f.entries))
	}
	out := append([]entry(nil), f.entries[len(f.entries)-n:]...)
	f.entries = f.entries[:len(f.entries)-n]
	return out, nil
}

func (f *frame) clone() []entry { return append([]entry(nil), f.entries...) }
