package mdmodel

import "sync"

// StackType is the abstract-stack classification of a type, per spec.md
// §3/§4.7. It is cached on Type once layout is computed and is also what
// the JIT's evaluation-stack entries carry (internal/verify,
// internal/jit).
type StackType int

const (
	StackTypeUnknown StackType = iota
	StackTypeInt32
	StackTypeInt64
	StackTypeIntPtr
	StackTypeFloat
	StackTypeObject
	StackTypeByRef
	StackTypeValueType
)

func (s StackType) String() string {
	switch s {
	case StackTypeInt32:
		return "Int32"
	case StackTypeInt64:
		return "Int64"
	case StackTypeIntPtr:
		return "IntPtr"
	case StackTypeFloat:
		return "Float"
	case StackTypeObject:
		return "O"
	case StackTypeByRef:
		return "&"
	case StackTypeValueType:
		return "ValueType"
	default:
		return "?"
	}
}

// TypeFlags encodes the mutually-exclusive-by-invariant kind bits plus the
// orthogonal attribute bits from spec.md §3(a).
type TypeFlags uint32

const (
	FlagValueType TypeFlags = 1 << iota
	FlagByRef
	FlagArray
	FlagInterface
	FlagAbstract
	FlagGenericDefinition
	FlagGenericParameter
	FlagSealed
	FlagNestedType
	FlagEnum
	FlagPointer // unmanaged pointer (CLI PTR), distinct from a managed BYREF
)

// Has reports whether every bit in want is set.
func (f TypeFlags) Has(want TypeFlags) bool { return f&want == want }

// Visibility mirrors the CLI type-visibility attribute relevant to
// spec.md §4.5's accessibility rules.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityNotPublic
	VisibilityNestedPublic
	VisibilityNestedPrivate
	VisibilityNestedFamily
	VisibilityNestedAssembly
	VisibilityNestedFamANDAssem
	VisibilityNestedFamORAssem
)

// InterfaceImpl pairs an implemented interface with the vtable offset into
// the implementing type's vtable where that interface's slots begin
// (spec.md §3, invariant (c); §4.4).
type InterfaceImpl struct {
	Interface *Type
	Offset    int
}

// Layout holds the memory-layout-derived fields frozen once Type.IsFilled()
// is true (spec.md §3, invariant (b); §4.3).
type Layout struct {
	StackSize    int
	StackAlign   int
	ManagedSize  int
	ManagedAlign int
	StackType    StackType
	// ManagedPointerOffsets is the sorted set of byte offsets within the
	// layout that hold an object reference, directly or through an
	// embedded value-type field (spec.md §4.3).
	ManagedPointerOffsets []int
	// VTable is sized to fit base virtual slots plus every implemented
	// interface's slot run (spec.md §3, §4.4). nil until filled.
	VTable []uintptr
}

// Type is the central metadata entity (spec.md §3). Every Type is owned by
// its DeclaringAssembly; ArrayType/ByRefType/Instances derivatives are
// reached through it but owned by the element type / generic definition
// respectively, per spec.md §3's ownership rule.
type Type struct {
	Handle TypeHandle

	DeclaringAssembly *Assembly
	Module            *Module
	Namespace         string
	Name              string

	Flags      TypeFlags
	Visibility Visibility
	Parent     *Type

	Fields          []*FieldInfo
	Methods         []*MethodInfo
	VirtualMethods  []*MethodInfo // derived: inherited + overridden, in slot order
	Interfaces      []InterfaceImpl

	// GenericArgs is non-empty only for a generic instantiation; it is the
	// list of type arguments bound to GenericDefinition's parameters.
	GenericArgs       []*Type
	GenericDefinition *Type
	// GenericParamIndex is this type's position when Flags has
	// FlagGenericParameter set (VAR n from spec.md §4.1).
	GenericParamIndex int

	// ElementType is set for FlagArray and FlagByRef types.
	ElementType *Type
	// DeclaringType is set for nested types (FlagNestedType).
	DeclaringType *Type
	// EnumUnderlying is set for FlagEnum types: the integral type of its
	// single instance field (spec.md §4.5's underlying-type function).
	EnumUnderlying *Type

	layoutMu sync.Mutex
	filled   bool
	layout   Layout

	derivMu   sync.Mutex
	arrayType *Type
	byRefType *Type

	// instMu guards the generic-instantiation chain, per spec.md §5's
	// "monitor around the generic-instantiation chain" ordering guarantee.
	instMu    sync.Mutex
	instances []*Type
}

// IsFilled reports whether the fill pass (spec.md §4.2) has completed and
// Layout is safe to read. Readers must not inspect Layout before this
// returns true; an unfilled type is only usable for identity comparison
// (spec.md §9).
func (t *Type) IsFilled() bool {
	t.layoutMu.Lock()
	defer t.layoutMu.Unlock()
	return t.filled
}

// SetLayout publishes the computed layout and flips IsFilled to true. Called
// exactly once, at the end of the fill pass for this type.
func (t *Type) SetLayout(l Layout) {
	t.layoutMu.Lock()
	defer t.layoutMu.Unlock()
	t.layout = l
	t.filled = true
}

// Layout returns the frozen layout. Panics if called before IsFilled -
// callers in internal/jit and internal/layout always check IsFilled first
// (or rely on the loader having filled every type reachable from a method
// body before JIT starts, per spec.md §4.2's phase ordering).
func (t *Type) Layout() Layout {
	t.layoutMu.Lock()
	defer t.layoutMu.Unlock()
	if !t.filled {
		panic("mdmodel: Layout read before type is filled: " + t.Namespace + "." + t.Name)
	}
	return t.layout
}

// IsValueType, IsByRef, IsArray, IsInterface, IsGenericParameter implement
// spec.md §3 invariant (a): exactly one of these (or plain reference type)
// holds for any given Type.
func (t *Type) IsValueType() bool       { return t.Flags.Has(FlagValueType) }
func (t *Type) IsByRef() bool           { return t.Flags.Has(FlagByRef) }
func (t *Type) IsArray() bool           { return t.Flags.Has(FlagArray) }
func (t *Type) IsInterface() bool       { return t.Flags.Has(FlagInterface) }
func (t *Type) IsGenericParameter() bool { return t.Flags.Has(FlagGenericParameter) }
func (t *Type) IsGenericDefinition() bool { return t.Flags.Has(FlagGenericDefinition) }
func (t *Type) IsPointer() bool           { return t.Flags.Has(FlagPointer) }

// ArrayOf returns the unique SZARRAY derivative of t, creating it on first
// request under t's derivative monitor (spec.md §3, invariant (d)).
func (t *Type) ArrayOf(make func(elem *Type) *Type) *Type {
	t.derivMu.Lock()
	defer t.derivMu.Unlock()
	if t.arrayType == nil {
		t.arrayType = make(t)
	}
	return t.arrayType
}

// ByRefOf returns the unique T& derivative of t, creating it on first
// request under t's derivative monitor. By-ref types never nest (spec.md
// §4.3): callers must not call this on a type that IsByRef().
func (t *Type) ByRefOf(make func(elem *Type) *Type) *Type {
	if t.IsByRef() {
		panic("mdmodel: cannot take byref of a byref type")
	}
	t.derivMu.Lock()
	defer t.derivMu.Unlock()
	if t.byRefType == nil {
		t.byRefType = make(t)
	}
	return t.byRefType
}

// Instantiate returns an existing instantiation of t with the given type
// arguments if one was already created, or creates and appends one under
// t's instantiation monitor (spec.md §3's lifecycle: "created lazily on
// demand, appended to the generic-definition's instance chain under the
// definition's monitor").
func (t *Type) Instantiate(args []*Type, make func(def *Type, args []*Type) *Type) *Type {
	t.instMu.Lock()
	defer t.instMu.Unlock()
	for _, inst := range t.instances {
		if sameArgs(inst.GenericArgs, args) {
			return inst
		}
	}
	inst := make(t, args)
	t.instances = append(t.instances, inst)
	return inst
}

func sameArgs(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders a debug-friendly qualified name, used only in error
// messages and MIR pretty-printing (internal/mir), never in managed-visible
// output.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}
