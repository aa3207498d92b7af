package loader

import (
	"testing"

	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/verify"
)

// fieldSig builds a minimal FIELD signature blob: lead byte 0x06 followed
// by a single non-compound element-type tag (ECMA-335 §II.23.2.4).
func fieldSig(elementType byte) []byte {
	return []byte{0x06, elementType}
}

// instanceMethodSig builds a METHOD signature blob for an instance method
// (HASTHIS) taking no parameters and returning retType (ECMA-335
// §II.23.2.1): calling-convention byte, param count, return type tag.
func instanceMethodSig(retType byte) []byte {
	return []byte{0x20, 0x00, retType}
}

const (
	elemI4  = 0x08
	elemU1  = 0x05
	elemVoid = 0x01
)

// buildHierarchy returns a producer describing:
//
//	struct Demo.Point : System.ValueType { Int32 X; Int32 Y; }
//	class Demo.Base : System.Object { virtual void Greet(); }
//	class Demo.Derived : Demo.Base { virtual void Greet(); } // override
//
// which exercises the setup/fill two-phase pass, value-type auto layout,
// reference-type layout, and virtual-slot override/inheritance in one
// small fixture.
func buildHierarchy() *mdsource.InMemoryProducer {
	valueTypeRef := mdsource.NewToken(mdsource.TypeRef, 1)
	objectRef := mdsource.NewToken(mdsource.TypeRef, 2)

	fields := []mdsource.FieldRow{
		{Token: mdsource.NewToken(mdsource.Field, 1), Name: "X", Signature: fieldSig(elemI4)},
		{Token: mdsource.NewToken(mdsource.Field, 2), Name: "Y", Signature: fieldSig(elemI4)},
	}

	const methodPublicVirtual = 0x6 | 0x40 // public (access code 6) | virtual, per methodAttrFromFlags

	methods := []mdsource.MethodDefRow{
		{
			Token: mdsource.NewToken(mdsource.MethodDef, 1), Name: "Greet",
			Flags: methodPublicVirtual, Signature: instanceMethodSig(elemVoid),
		},
		{
			Token: mdsource.NewToken(mdsource.MethodDef, 2), Name: "Greet",
			Flags: methodPublicVirtual, Signature: instanceMethodSig(elemVoid),
		},
	}

	typeDefs := []mdsource.TypeDefRow{
		{ // row 1: Point
			Token: mdsource.NewToken(mdsource.TypeDef, 1),
			Namespace: "Demo", Name: "Point",
			Extends:    valueTypeRef,
			FieldList:  mdsource.NewToken(mdsource.Field, 1),
			FieldCount: 2,
			MethodList: mdsource.NewToken(mdsource.MethodDef, 1),
		},
		{ // row 2: Base
			Token: mdsource.NewToken(mdsource.TypeDef, 2),
			Namespace: "Demo", Name: "Base",
			Extends:     objectRef,
			MethodList:  mdsource.NewToken(mdsource.MethodDef, 1),
			MethodCount: 1,
		},
		{ // row 3: Derived
			Token: mdsource.NewToken(mdsource.TypeDef, 3),
			Namespace: "Demo", Name: "Derived",
			Extends:     mdsource.NewToken(mdsource.TypeDef, 2),
			MethodList:  mdsource.NewToken(mdsource.MethodDef, 2),
			MethodCount: 1,
		},
	}

	return &mdsource.InMemoryProducer{
		AssemblyRowV: mdsource.AssemblyRow{Name: "Demo"},
		TypeRefRows: []mdsource.TypeRefRow{
			{Token: valueTypeRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "ValueType"},
			{Token: objectRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "Object"},
		},
		TypeDefRows: typeDefs,
		FieldRows:   fields,
		MethodRows:  methods,
	}
}

func TestLoadMaterializesValueTypeLayout(t *testing.T) {
	asm, err := New(buildHierarchy()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	point := asm.Arena.Type(asm.DefinedTypes[0])
	if !point.IsValueType() {
		t.Fatalf("Point: expected value type, flags=%v", point.Flags)
	}
	if !point.IsFilled() {
		t.Fatal("Point: expected filled layout")
	}
	lay := point.Layout()
	if lay.ManagedSize != 8 || lay.StackType != point.Layout().StackType {
		t.Fatalf("Point layout = %+v, want 8-byte struct of two Int32s", lay)
	}
	if point.Fields[0].Offset != 0 || point.Fields[1].Offset != 4 {
		t.Fatalf("Point field offsets = %d,%d, want 0,4", point.Fields[0].Offset, point.Fields[1].Offset)
	}
}

func TestLoadBuildsVTableOverride(t *testing.T) {
	asm, err := New(buildHierarchy()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	base := asm.Arena.Type(asm.DefinedTypes[1])
	derived := asm.Arena.Type(asm.DefinedTypes[2])

	if len(base.VirtualMethods) != 1 || base.VirtualMethods[0].Name != "Greet" {
		t.Fatalf("Base.VirtualMethods = %+v, want one Greet slot", base.VirtualMethods)
	}
	if len(derived.VirtualMethods) != 1 {
		t.Fatalf("Derived.VirtualMethods = %+v, want one (overridden) slot", derived.VirtualMethods)
	}
	if derived.VirtualMethods[0] == base.VirtualMethods[0] {
		t.Fatal("Derived's Greet slot should hold Derived's own override, not Base's")
	}
	if derived.Methods[0].VTableOffset != base.Methods[0].VTableOffset {
		t.Fatalf("override slot = %d, base slot = %d, want equal", derived.Methods[0].VTableOffset, base.Methods[0].VTableOffset)
	}
}

func TestLoadVerifierAssignableToIsTransitiveAlongBaseChain(t *testing.T) {
	l := New(buildHierarchy())
	asm, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	object := l.Named("Object")
	base := asm.Arena.Type(asm.DefinedTypes[1])
	derived := asm.Arena.Type(asm.DefinedTypes[2])

	if !verify.VerifierAssignableTo(derived, derived, false, l.Named, l.byRef) {
		t.Error("a type should be verifier-assignable to itself (reflexive)")
	}
	if !verify.VerifierAssignableTo(derived, base, false, l.Named, l.byRef) {
		t.Error("Derived should be verifier-assignable to Base")
	}
	if !verify.VerifierAssignableTo(derived, object, false, l.Named, l.byRef) {
		t.Error("Derived should be verifier-assignable to Object transitively through Base")
	}
	if verify.VerifierAssignableTo(base, derived, false, l.Named, l.byRef) {
		t.Error("Base should not be verifier-assignable to Derived")
	}
}

func TestLoadArrayAndByRefDerivativesAreUniquePerElement(t *testing.T) {
	l := New(buildHierarchy())
	asm, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	point := asm.Arena.Type(asm.DefinedTypes[0])

	a1 := l.array(point)
	a2 := l.array(point)
	if a1 != a2 {
		t.Fatal("array(Point) should return the same derivative both times")
	}
	if !a1.IsArray() || a1.ElementType != point {
		t.Fatalf("array(Point) = %+v, want SZARRAY of Point", a1)
	}

	b1 := l.byRef(point)
	b2 := l.byRef(point)
	if b1 != b2 {
		t.Fatal("byRef(Point) should return the same derivative both times")
	}
	if !b1.IsByRef() || b1.ElementType != point {
		t.Fatalf("byRef(Point) = %+v, want BYREF of Point", b1)
	}
}

func TestResolveUnknownTypeRefIsNotFound(t *testing.T) {
	l := New(buildHierarchy())
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err := l.resolveWellKnown("System", "Nonexistent")
	if err == nil {
		t.Fatal("expected an error resolving an unknown well-known type name")
	}
}
