package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/config"
	"github.com/clrcore/clrcore/internal/layout"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
	"github.com/clrcore/clrcore/internal/rtabi"
)

// exitTarget is where a finally/fault handler body's `endfinally` branches,
// per spec.md §4.7's "chained... the last jumps to target" rule.
type exitTarget struct {
	label string
	args  []mir.Value
}

// Translator holds the per-method state of the CIL-to-MIR translation
// pass: the abstract evaluation stack's merge cache, the local/argument
// slot table, and the in-flight finally-chain exit stack. One Translator
// translates exactly one method body; internal/driver creates a fresh one
// per method.
type Translator struct {
	method   *mdmodel.MethodInfo
	resolver Resolver
	gc       rtabi.GC
	body     *mdmodel.MethodBody
	dec      *cil.Decoder

	b  *mir.Builder
	fn *mir.Function

	namer   func(string) *mdmodel.Type
	byRefOf func(*mdmodel.Type) *mdmodel.Type
	arrayOf func(*mdmodel.Type) *mdmodel.Type

	merges   map[int]*mergePoint
	curLabel string
	blockOpen bool

	slots       []slot // index 0..argCount-1 are arguments, then locals
	argCount    int
	retType     *mdmodel.Type
	retVoid     bool
	retLarge    bool
	retBlockPtr mir.Value

	finallyExit *exitTarget
	handlerOnce map[int]string // HandlerOffset -> canonical block label, for catch/fault-on-unwind bodies
	finallyLeaveClones map[finallyCloneKey]string

	// catchExcStack tracks the live exception object register for each
	// catch body currently being translated (innermost last), so a nested
	// `rethrow` finds the right one.
	catchExcStack []mir.Value

	curOffset int
	labelSeq  int
}

type finallyCloneKey struct {
	handlerOffset int
	exitLabel     string
}

// slot is one argument or local variable: always memory-backed (an Alloca
// address), a deliberate simplification from spec.md §4.7's register/
// memory split. ldloca/ldarga simply hand back an existing address;
// nothing needs a separate spill-detection pass.
type slot struct {
	typ   *mdmodel.Type
	kind  mdmodel.StackType
	isF32 bool
	addr  mir.Value
	size  int64
}

func (s slot) mirType() mir.Type {
	switch s.kind {
	case mdmodel.StackTypeInt32:
		return mir.I32
	case mdmodel.StackTypeInt64:
		return mir.I64
	case mdmodel.StackTypeFloat:
		if s.isF32 {
			return mir.F32
		}
		return mir.F64
	default:
		return mir.Ptr
	}
}

// NewModuleFunc is the signature internal/driver supplies to create a
// function within its MIR module; kept as a narrow function type rather
// than importing *mir.Module here so internal/jit stays a pure translator
// with no knowledge of module-level linking (spec.md §5's "single-writer
// phase per assembly" belongs to the driver, not the translator).
type NewModuleFunc func(name string, proto *mir.Proto) (*mir.Function, error)

// Translate JITs one method's CIL body into a MIR function, implementing
// spec.md §4.7 end to end: prologue, the instruction-by-instruction
// translation loop with branch-target/handler-entry merging, and the
// epilogue. newFn creates the backing mir.Function (internal/driver wires
// this to its mir.Module.NewFunction, which takes only that module's own
// mutex; the driver's process-wide lock is not held during translation).
func Translate(method *mdmodel.MethodInfo, resolver Resolver, gc rtabi.GC, newFn NewModuleFunc) (*mir.Function, error) {
	if method.Body == nil {
		return nil, clrerr.Wrap(clrerr.CheckFailed, fmt.Errorf("jit: method %s has no IL body to translate", method.Name))
	}
	body := method.Body
	if !body.InitLocals && config.InitLocalsRequired {
		return nil, clrerr.Wrap(clrerr.CheckFailed, fmt.Errorf("%w: %s", ErrInitLocalsRequired, method.Name))
	}
	for _, c := range body.ExceptionClauses {
		if c.Kind == mdmodel.ClauseFilter {
			return nil, clrerr.Wrap(clrerr.CheckFailed, fmt.Errorf("%w: %s", ErrUnsupportedFilter, method.Name))
		}
	}

	t := &Translator{
		method:      method,
		resolver:    resolver,
		gc:          gc,
		body:        body,
		dec:         cil.NewDecoder(),
		namer:       resolver.TypeNamer(),
		byRefOf:     resolver.ByRefMaker(),
		arrayOf:     resolver.ArrayMaker(),
		merges:      make(map[int]*mergePoint),
		handlerOnce: make(map[int]string),
		finallyLeaveClones: make(map[finallyCloneKey]string),
	}

	proto, argSlots := t.buildProto()
	fn, err := newFn(MethodSymbol(method), proto)
	if err != nil {
		return nil, err
	}
	t.fn = fn
	t.b = mir.NewBuilder(fn)

	params := t.b.Block("entry", proto.Params...)
	t.curLabel = "entry"
	t.blockOpen = true

	pi := 0
	if t.retLarge {
		t.retBlockPtr = params[0]
		pi = 1
	}
	t.slots = make([]slot, len(argSlots)+len(body.Locals))
	for i, as := range argSlots {
		s := as
		s.addr = t.b.Alloca(slotSize(as))
		if s.kind == mdmodel.StackTypeValueType {
			t.copyValue(s.addr, params[pi], s.typ)
		} else {
			t.b.Store(s.addr, params[pi])
		}
		t.slots[i] = s
		pi++
	}
	t.argCount = len(argSlots)
	for i, lv := range body.Locals {
		k := stackTypeOf(lv.Type)
		s := slot{typ: lv.Type, kind: k, isF32: isF32Type(lv.Type), size: sizeOf(lv.Type)}
		s.addr = t.b.Alloca(s.size)
		t.zeroSlot(s)
		t.slots[t.argCount+i] = s
	}

	// CIL offset 0 gets its own, argument-free block: a backward branch
	// targeting offset 0 (a loop spanning the whole method) re-enters here,
	// not "entry" -- "entry" carries the function's actual parameters and
	// is only ever reached once, at a call.
	t.b.Br("cil0")
	t.blockOpen = false
	t.b.Block("cil0")
	t.merges[0] = &mergePoint{label: "cil0", entries: nil, translated: false}

	if err := t.translateRegion(0, len(body.CIL), "cil0", nil, nil); err != nil {
		return nil, err
	}
	if err := t.b.Finish(); err != nil {
		return nil, err
	}
	return fn, nil
}

func slotSize(s slot) int64 {
	if s.kind == mdmodel.StackTypeValueType {
		return s.size
	}
	switch s.mirType() {
	case mir.I32, mir.F32:
		return 4
	default:
		return 8
	}
}

func sizeOf(t *mdmodel.Type) int64 {
	if t == nil || !t.IsFilled() {
		return layout.PointerSize
	}
	return int64(t.Layout().ManagedSize)
}

func isF32Type(t *mdmodel.Type) bool { return t != nil && t.Name == "Single" }

// zeroSlot implements spec.md §4.7's prologue "zero-fill initializable
// locals": a plain primitive gets a zero Const store, a value type gets
// its backing buffer cleared via the runtime's zero-fill helper.
func (t *Translator) zeroSlot(s slot) {
	if s.kind == mdmodel.StackTypeValueType {
		t.b.Call(externZeroMemory, mir.Void, s.addr, t.b.Const(mir.I64, s.size))
		return
	}
	mt := s.mirType()
	var z mir.Value
	if mt == mir.F32 || mt == mir.F64 {
		z = t.b.Const(mt, 0)
	} else {
		z = t.b.Const(mt, 0)
	}
	t.b.Store(s.addr, z)
}

// buildProto implements the argument/return half of spec.md §4.7's
// prologue/epilogue: `this` (implicitly a managed pointer for a value-type
// instance method, per ECMA-335), then each declared parameter, mapped to
// MIR's scalar-only type set (a value type parameter is passed as a Ptr to
// caller-owned, callee-copied storage, matching the "large value type"
// return convention's own hidden-pointer shape).
func (t *Translator) buildProto() (*mir.Proto, []slot) {
	var argSlots []slot
	var paramTypes []mir.Type

	if !t.method.IsStatic() {
		thisType := t.method.DeclaringType
		if thisType.IsValueType() {
			argSlots = append(argSlots, slot{typ: t.byRefOf(thisType), kind: mdmodel.StackTypeByRef})
		} else {
			argSlots = append(argSlots, slot{typ: thisType, kind: mdmodel.StackTypeObject})
		}
	}
	for _, p := range t.method.Params {
		k := stackTypeOf(p.Type)
		if p.ByRef {
			k = mdmodel.StackTypeByRef
		}
		s := slot{typ: p.Type, kind: k, isF32: isF32Type(p.Type), size: sizeOf(p.Type)}
		argSlots = append(argSlots, s)
	}
	for _, s := range argSlots {
		paramTypes = append(paramTypes, s.mirType())
	}

	retType := t.method.ReturnType
	t.retType = retType
	t.retVoid = retType == nil || (retType.Namespace == "System" && retType.Name == "Void")
	var results []mir.Type
	if t.retVoid {
		results = []mir.Type{mir.Ptr}
	} else if retType.IsValueType() && sizeOf(retType) > 2*layout.PointerSize {
		t.retLarge = true
		paramTypes = append([]mir.Type{mir.Ptr}, paramTypes...)
		results = []mir.Type{mir.Ptr}
	} else {
		results = []mir.Type{mir.Ptr, stackEntryMirType(retType)}
	}

	return &mir.Proto{Params: paramTypes, Results: results}, argSlots
}

func stackEntryMirType(t *mdmodel.Type) mir.Type {
	e := entry{Kind: stackTypeOf(t), Type: t, IsF32: isF32Type(t)}
	return e.mirType()
}

func (t *Translator) freshLabel(prefix string) string {
	t.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, t.labelSeq)
}

// zeroRetValue produces a zero value of the function's return MIR type, used
// when returning with the exception register set (spec.md §4.7's two-slot
// return, §4.8's "the function returns with ... the return slot zeroed").
func (t *Translator) zeroRetValue() mir.Value {
	if t.retVoid || t.retLarge {
		return mir.Value{}
	}
	return t.b.Const(stackEntryMirType(t.retType), 0)
}

func (t *Translator) retResults(exc mir.Value) []mir.Value {
	if t.retVoid || t.retLarge {
		return []mir.Value{exc}
	}
	return []mir.Value{exc, t.zeroRetValue()}
}
