package driver

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/jit"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
	"github.com/clrcore/clrcore/internal/mir/fake"
	"github.com/clrcore/clrcore/internal/rtabi/fakegc"
	"github.com/clrcore/clrcore/internal/rtabi/fakethread"
)

// tokenBytes little-endian encodes tok the way the CIL stream itself carries
// a token operand (internal/cil/decoder.go's OperandToken case).
func tokenBytes(tok mdsource.Token) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(tok))
	return b
}

// methodSig builds a minimal static METHOD signature blob (ECMA-335
// §II.23.2.1): DEFAULT calling convention, no HASTHIS, the given parameter
// element-type tags, and a return type tag.
func methodSig(retType byte, paramTypes ...byte) []byte {
	b := []byte{0x00, byte(len(paramTypes)), retType}
	return append(b, paramTypes...)
}

const (
	elemVoid = 0x01
	elemI4   = 0x08
)

// oneTypeOneMethod returns a producer describing a single class
// Demo.Program : System.Object with one static method named methodName,
// whose body is cil and whose signature is sig.
func oneTypeOneMethod(methodName string, sig []byte, cilBytes []byte, maxStack int) *mdsource.InMemoryProducer {
	objectRef := mdsource.NewToken(mdsource.TypeRef, 1)
	const methodPublicStatic = 0x6 | 0x10 // public access code 6, static bit 0x10

	return &mdsource.InMemoryProducer{
		AssemblyRowV: mdsource.AssemblyRow{Name: "Demo"},
		TypeRefRows: []mdsource.TypeRefRow{
			{Token: objectRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "Object"},
		},
		MethodRows: []mdsource.MethodDefRow{
			{
				Token: mdsource.NewToken(mdsource.MethodDef, 1), Name: methodName,
				Flags: methodPublicStatic, Signature: sig,
				Body: &mdsource.MethodBodyRow{CIL: cilBytes, MaxStack: maxStack, InitLocals: true},
			},
		},
		TypeDefRows: []mdsource.TypeDefRow{
			{
				Token: mdsource.NewToken(mdsource.TypeDef, 1),
				Namespace: "Demo", Name: "Program",
				Extends:     objectRef,
				MethodList:  mdsource.NewToken(mdsource.MethodDef, 1),
				MethodCount: 1,
			},
		},
	}
}

func buildAndJIT(t *testing.T, producer *mdsource.InMemoryProducer) (*Driver, string) {
	t.Helper()
	d := New(fakegc.NewHeap(0), fakethread.NewRuntime())
	if _, err := d.Load(producer); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.DeclareExterns(); err != nil {
		t.Fatalf("DeclareExterns: %v", err)
	}
	if err := d.JITAssembly(); err != nil {
		t.Fatalf("JITAssembly: %v", err)
	}
	gen := fake.NewGenerator(0x1000)
	if err := d.Link(gen.Gen); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := d.PublishVTables(); err != nil {
		t.Fatalf("PublishVTables: %v", err)
	}
	return d, mir.NewPrinter().Print(d.Module())
}

func methodByName(d *Driver, name string) *mdsourceMethodLookupResult {
	for _, th := range d.Assembly().Arena.Types() {
		if th == nil {
			continue
		}
		for _, m := range th.Methods {
			if m.Name == name {
				return &mdsourceMethodLookupResult{symbol: jit.MethodSymbol(m)}
			}
		}
	}
	return nil
}

type mdsourceMethodLookupResult struct{ symbol string }

// TestS1AddReturnsFive exercises spec.md §8 scenario S1: `ldc.i4.2 ldc.i4.3
// add ret` on a method returning Int32 JITs to a function whose body adds
// two i32 constants 2 and 3 and returns (nil exception, that sum).
func TestS1AddReturnsFive(t *testing.T) {
	body := []byte{
		byte(cil.LdcI42), byte(cil.LdcI43), byte(cil.Add), byte(cil.Ret),
	}
	producer := oneTypeOneMethod("Add", methodSig(elemI4), body, 2)

	d, text := buildAndJIT(t, producer)

	m := methodByName(d, "Add")
	if m == nil {
		t.Fatalf("method Add not found")
	}
	addr, err := d.Module().FunctionAddress(m.symbol)
	if err != nil || addr == 0 {
		t.Fatalf("FunctionAddress(%s): addr=%v err=%v", m.symbol, addr, err)
	}

	if !strings.Contains(text, "= const i32 2") || !strings.Contains(text, "= const i32 3") {
		t.Fatalf("expected i32 constants 2 and 3 in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "= add i32") {
		t.Fatalf("expected an i32 add instruction in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "ret(") {
		t.Fatalf("expected a ret terminator in MIR text, got:\n%s", text)
	}
}

// TestS2DivByZeroGuard exercises spec.md §8 scenario S2: `ldc.i4.1 ldc.i4.0
// div ret` emits a divide-by-zero guard before the div, per spec.md §4.7's
// "division/modulo additionally emit a divide-by-zero guard on the
// denominator register at runtime".
func TestS2DivByZeroGuard(t *testing.T) {
	body := []byte{
		byte(cil.LdcI41), byte(cil.LdcI40), byte(cil.Div), byte(cil.Ret),
	}
	producer := oneTypeOneMethod("DivByZero", methodSig(elemI4), body, 2)

	_, text := buildAndJIT(t, producer)

	if !strings.Contains(text, "= div i32") {
		t.Fatalf("expected an i32 div instruction in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "condbr") {
		t.Fatalf("expected a divide-by-zero guard branch in MIR text, got:\n%s", text)
	}
}

// TestJITDeterministic exercises spec.md §8 property 4: JIT of the same
// method body twice (two independent Drivers) yields byte-identical MIR
// text; the printed text carries no addresses, so it is compared as is.
func TestJITDeterministic(t *testing.T) {
	body := []byte{byte(cil.LdcI42), byte(cil.LdcI43), byte(cil.Add), byte(cil.Ret)}

	_, text1 := buildAndJIT(t, oneTypeOneMethod("Add", methodSig(elemI4), body, 2))
	_, text2 := buildAndJIT(t, oneTypeOneMethod("Add", methodSig(elemI4), body, 2))

	if text1 != text2 {
		t.Fatalf("expected deterministic MIR text across independent JIT runs, got:\n%s\n---\n%s", text1, text2)
	}
}

// TestS3NewArrLdLen exercises spec.md §8 scenario S3: `newarr 5 ldlen ret`
// JITs to a clr_rt_newarr allocation followed by a load of the array's
// Length field (arrayLengthOffset, the object header's immediate
// successor).
func TestS3NewArrLdLen(t *testing.T) {
	objectRef := mdsource.NewToken(mdsource.TypeRef, 1)
	body := []byte{byte(cil.LdcI45), byte(cil.NewArr)}
	body = append(body, tokenBytes(objectRef)...)
	body = append(body, byte(cil.LdLen), byte(cil.Ret))
	producer := oneTypeOneMethod("NewArrLen", methodSig(elemI4), body, 3)

	_, text := buildAndJIT(t, producer)

	if !strings.Contains(text, "call clr_rt_newarr") {
		t.Fatalf("expected a clr_rt_newarr call in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "+8") {
		t.Fatalf("expected a GEP to the array Length field (offset 8) in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "= load i32") {
		t.Fatalf("expected an i32 load of the array length in MIR text, got:\n%s", text)
	}
}

// TestS4NullFieldLoadThrowsNullRef exercises spec.md §8 scenario S4:
// `ldnull ldfld X::f` on a non-static field emits a null-check guard that
// raises NullReferenceException before the field's GEP/load ever runs.
func TestS4NullFieldLoadThrowsNullRef(t *testing.T) {
	objectRef := mdsource.NewToken(mdsource.TypeRef, 1)
	fieldToken := mdsource.NewToken(mdsource.Field, 1)
	const methodPublicStatic = 0x6 | 0x10

	body := []byte{byte(cil.LdNull), byte(cil.LdFld)}
	body = append(body, tokenBytes(fieldToken)...)
	body = append(body, byte(cil.Ret))

	producer := &mdsource.InMemoryProducer{
		AssemblyRowV: mdsource.AssemblyRow{Name: "Demo"},
		TypeRefRows: []mdsource.TypeRefRow{
			{Token: objectRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "Object"},
		},
		FieldRows: []mdsource.FieldRow{
			{Token: fieldToken, Name: "F", Flags: 0x6, Signature: []byte{0x06, elemI4}},
		},
		MethodRows: []mdsource.MethodDefRow{
			{
				Token: mdsource.NewToken(mdsource.MethodDef, 1), Name: "LoadF",
				Flags: methodPublicStatic, Signature: methodSig(elemI4),
				Body: &mdsource.MethodBodyRow{CIL: body, MaxStack: 2, InitLocals: true},
			},
		},
		TypeDefRows: []mdsource.TypeDefRow{
			{
				Token:       mdsource.NewToken(mdsource.TypeDef, 1),
				Namespace:   "Demo", Name: "Program",
				Extends:     objectRef,
				FieldList:   fieldToken,
				FieldCount:  1,
				MethodList:  mdsource.NewToken(mdsource.MethodDef, 1),
				MethodCount: 1,
			},
		},
	}

	_, text := buildAndJIT(t, producer)

	if !strings.Contains(text, "condbr") {
		t.Fatalf("expected a null-check guard branch in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "nullref_") {
		t.Fatalf("expected a NullReferenceException guard label in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "call clr_gc_new") {
		t.Fatalf("expected a clr_gc_new allocation for the NullReferenceException instance, got:\n%s", text)
	}
}

// TestS5ConvU1Narrows exercises spec.md §8 scenario S5: `ldc.i4.m1 conv.u1
// ret` always re-narrows through the shift-left/shift-right-unsigned trick,
// even though -1 is already Int32-kinded on the abstract stack (the bug the
// old fast-path return skipped).
func TestS5ConvU1Narrows(t *testing.T) {
	body := []byte{byte(cil.LdcI4M1), byte(cil.ConvU1), byte(cil.Ret)}
	producer := oneTypeOneMethod("NarrowU1", methodSig(elemI4), body, 2)

	_, text := buildAndJIT(t, producer)

	if !strings.Contains(text, "= shl i32") {
		t.Fatalf("expected the narrowing shift-left in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "= shr.un i32") {
		t.Fatalf("expected the unsigned narrowing shift-right in MIR text, got:\n%s", text)
	}
}

// TestS6TryCatchInvalidCast exercises spec.md §8 scenario S6: a try region
// that newobj's and throws, caught by a catch clause whose body loads the
// constant 7. The catch match itself goes through clr_rt_isinst, the same
// extern searchFrom already reuses for every catch-type probe.
func TestS6TryCatchInvalidCast(t *testing.T) {
	objectRef := mdsource.NewToken(mdsource.TypeRef, 1)
	tryCatchToken := mdsource.NewToken(mdsource.MethodDef, 1)
	ctorToken := mdsource.NewToken(mdsource.MethodDef, 2)
	excTypeToken := mdsource.NewToken(mdsource.TypeDef, 2)
	const methodPublicStatic = 0x6 | 0x10
	const methodPublicInstance = 0x6

	// 0: newobj ctorToken (5 bytes)  -- try region [0,6)
	// 5: throw                       (1 byte)
	// 6: pop                         -- handler region [6,9)
	// 7: ldc.i4.7
	// 8: ret
	body := []byte{byte(cil.NewObj)}
	body = append(body, tokenBytes(ctorToken)...)
	body = append(body, byte(cil.Throw), byte(cil.Pop), byte(cil.LdcI47), byte(cil.Ret))

	producer := &mdsource.InMemoryProducer{
		AssemblyRowV: mdsource.AssemblyRow{Name: "Demo"},
		TypeRefRows: []mdsource.TypeRefRow{
			{Token: objectRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "Object"},
		},
		MethodRows: []mdsource.MethodDefRow{
			{
				Token: tryCatchToken, Name: "TryCatch",
				Flags: methodPublicStatic, Signature: methodSig(elemI4),
				Body: &mdsource.MethodBodyRow{
					CIL: body, MaxStack: 2, InitLocals: true,
					ExceptionClauses: []mdsource.ExceptionClauseRow{
						{Kind: 0, TryOffset: 0, TryLength: 6, HandlerOffset: 6, HandlerLength: 3, CatchType: excTypeToken},
					},
				},
			},
			{
				Token: ctorToken, Name: ".ctor",
				Flags: methodPublicInstance, Signature: []byte{0x20, 0x00, elemVoid},
				Body: &mdsource.MethodBodyRow{CIL: []byte{byte(cil.Ret)}, MaxStack: 0, InitLocals: true},
			},
		},
		TypeDefRows: []mdsource.TypeDefRow{
			{
				Token:       mdsource.NewToken(mdsource.TypeDef, 1),
				Namespace:   "Demo", Name: "Program",
				Extends:     objectRef,
				MethodList:  tryCatchToken,
				MethodCount: 1,
			},
			{
				Token:       excTypeToken,
				Namespace:   "Demo", Name: "InvalidCastException",
				Extends:     objectRef,
				MethodList:  ctorToken,
				MethodCount: 1,
			},
		},
	}

	_, text := buildAndJIT(t, producer)

	if !strings.Contains(text, "catch_") {
		t.Fatalf("expected a catch handler block label in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "call clr_rt_isinst") {
		t.Fatalf("expected a clr_rt_isinst catch-type match call in MIR text, got:\n%s", text)
	}
	if !strings.Contains(text, "= const i32 7") {
		t.Fatalf("expected the catch handler's constant 7 in MIR text, got:\n%s", text)
	}
}
