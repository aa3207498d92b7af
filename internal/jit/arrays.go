package jit

import (
	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/layout"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
)

// Array instance byte layout this core assumes, since
// layout.ComputeArrayLayout only gives an array type its fixed
// pointer-sized stack shape and has no opinion on the heap object's actual
// byte structure: an object header (the vtable pointer every reference type
// carries), an 8-byte Length field right after it, and element storage
// starting at the next pointer-aligned offset.
const (
	arrayLengthOffset = layout.ObjectHeaderSize
	arrayDataOffset   = layout.ObjectHeaderSize + 8
)

// elemStorageSize is the byte width newarr/ldelem/stelem use for both an
// element's address stride and its load/store width. MIR has no sub-word
// load/store, so byte and short elements deliberately use their
// MIR-representation width (4 bytes, same as Int32) rather than their
// managed-size width (1/2 bytes) -- using a narrower stride than the load
// width would corrupt neighboring elements, so the two must always agree.
func elemStorageSize(elemType *mdmodel.Type) int64 {
	if elemType == nil || !elemType.IsValueType() {
		return layout.PointerSize
	}
	switch stackTypeOf(elemType) {
	case mdmodel.StackTypeInt32:
		return 4
	case mdmodel.StackTypeFloat:
		if isF32Type(elemType) {
			return 4
		}
		return 8
	case mdmodel.StackTypeInt64, mdmodel.StackTypeIntPtr:
		return 8
	default:
		return sizeOf(elemType)
	}
}

// indexToI64 sign-extends an Int32-kinded array index to the I64 width
// elementAddr's address arithmetic and clr_rt_array_bounds_check both need.
func (t *Translator) indexToI64(idx entry) mir.Value {
	if idx.mirType() == mir.I64 {
		return idx.Reg
	}
	return t.b.UnOp(mir.OpSExt, mir.I64, idx.Reg)
}

// elementAddr computes arr + arrayDataOffset + index*elemSize. MIR's GEP
// only takes a compile-time-constant offset (internal/mir/function.go's Imm
// field), so a runtime index can't use it directly; this instead reuses the
// Ptr<->I64 bitcast-and-arithmetic idiom convert() already establishes for
// conv.i/conv.u, doing the byte-offset math in I64 and bitcasting back.
func (t *Translator) elementAddr(arr, index64 mir.Value, elemSize int64) mir.Value {
	byteOffset := t.b.BinOp(mir.OpMul, mir.I64, index64, t.b.Const(mir.I64, elemSize))
	byteOffset = t.b.BinOp(mir.OpAdd, mir.I64, byteOffset, t.b.Const(mir.I64, arrayDataOffset))
	base64 := t.b.UnOp(mir.OpBitcast, mir.I64, arr)
	addr64 := t.b.BinOp(mir.OpAdd, mir.I64, base64, byteOffset)
	return t.b.UnOp(mir.OpBitcast, mir.Ptr, addr64)
}

// checkArrayBounds null-checks the array reference, then calls
// clr_rt_array_bounds_check: a validation extern (spec.md §4.7's array
// access invariant), so its exc slot is real and routes through the normal
// handler search on an out-of-range index.
func (t *Translator) checkArrayBounds(arr entry, index64 mir.Value) error {
	if err := t.checkNotNull(arr); err != nil {
		return err
	}
	exc, _ := t.b.Call(externArrayBoundsCheck, mir.Void, arr.Reg, index64)
	return t.checkCallException(exc)
}

// newarr implements `newarr` (spec.md §4.7): allocates a new SZARRAY
// instance of the resolved element type's array derivative, sized by
// clr_rt_newarr itself (the helper takes an element count, not a byte
// size -- array sizing by element count plus header stays the runtime's
// concern, not the translator's). Allocation-only extern: a null result
// means out of memory, exactly like newobj's GCNew call.
func (t *Translator) newarr(f *frame, token uint32) error {
	elemType, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	lenEntry, err := f.pop()
	if err != nil {
		return err
	}
	arrType := t.arrayOf(elemType)
	len64 := t.indexToI64(lenEntry)

	_, arr := t.b.Call(externNewArray, mir.Ptr, t.typeIDConst(arrType), len64)
	if err := t.checkAllocOrOOM(arr); err != nil {
		return err
	}
	f.push(entry{Kind: mdmodel.StackTypeObject, Type: arrType, Reg: arr})
	return nil
}

// ldlen implements `ldlen` (spec.md §4.7): null-checks the array, then loads
// its Length field.
func (t *Translator) ldlen(f *frame) error {
	arr, err := f.pop()
	if err != nil {
		return err
	}
	if err := t.checkNotNull(arr); err != nil {
		return err
	}
	addr := t.b.GEP(arr.Reg, arrayLengthOffset)
	val := t.b.Load(mir.I32, addr)
	f.push(entry{Kind: mdmodel.StackTypeInt32, Type: t.namer("Int32"), Reg: val})
	return nil
}

// ldelema implements `ldelema` (spec.md §4.7): null-check, bounds-check,
// then the element's address as a managed byref.
func (t *Translator) ldelema(f *frame, token uint32) error {
	elemType, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	idx, err := f.pop()
	if err != nil {
		return err
	}
	arr, err := f.pop()
	if err != nil {
		return err
	}
	idx64 := t.indexToI64(idx)
	if err := t.checkArrayBounds(arr, idx64); err != nil {
		return err
	}
	addr := t.elementAddr(arr.Reg, idx64, elemStorageSize(elemType))
	f.push(entry{Kind: mdmodel.StackTypeByRef, Type: t.byRefOf(elemType), Reg: addr})
	return nil
}

// ldElemShape describes one ldelem.* opcode's pushed stack-entry shape:
// its stack-type classification, the MIR type and byte width its storage
// uses, a fallback type name (used only when the array's own static element
// type, carried on the array's stack entry, isn't available), and whether
// it is the single-precision float variant.
type ldElemShape struct {
	kind     mdmodel.StackType
	mirTy    mir.Type
	name     string
	isF32    bool
	storage  int64
}

func ldElemShapeFor(op cil.Opcode) ldElemShape {
	switch op {
	case cil.LdElemI1:
		return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "SByte", false, 4}
	case cil.LdElemU1:
		return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "Byte", false, 4}
	case cil.LdElemI2:
		return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "Int16", false, 4}
	case cil.LdElemU2:
		return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "UInt16", false, 4}
	case cil.LdElemI4, cil.LdElemU4:
		return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "Int32", false, 4}
	case cil.LdElemI8:
		return ldElemShape{mdmodel.StackTypeInt64, mir.I64, "Int64", false, 8}
	case cil.LdElemI:
		return ldElemShape{mdmodel.StackTypeIntPtr, mir.Ptr, "IntPtr", false, 8}
	case cil.LdElemR4:
		return ldElemShape{mdmodel.StackTypeFloat, mir.F32, "Single", true, 4}
	case cil.LdElemR8:
		return ldElemShape{mdmodel.StackTypeFloat, mir.F64, "Double", false, 8}
	case cil.LdElemRef:
		return ldElemShape{mdmodel.StackTypeObject, mir.Ptr, "Object", false, layout.PointerSize}
	}
	return ldElemShape{mdmodel.StackTypeInt32, mir.I32, "Int32", false, 4}
}

// ldelem implements the ldelem.* family (spec.md §4.7): null-check,
// bounds-check, then a typed load at the element's address. The element
// kind is implied entirely by the specific opcode (ECMA-335 III.3.42), not
// a token operand.
func (t *Translator) ldelem(f *frame, op cil.Opcode) error {
	idx, err := f.pop()
	if err != nil {
		return err
	}
	arr, err := f.pop()
	if err != nil {
		return err
	}
	idx64 := t.indexToI64(idx)
	if err := t.checkArrayBounds(arr, idx64); err != nil {
		return err
	}

	shape := ldElemShapeFor(op)
	addr := t.elementAddr(arr.Reg, idx64, shape.storage)
	val := t.b.Load(shape.mirTy, addr)

	elemType := t.namer(shape.name)
	if shape.kind == mdmodel.StackTypeObject && arr.Type != nil && arr.Type.ElementType != nil {
		elemType = arr.Type.ElementType
	}
	f.push(entry{Kind: shape.kind, Type: elemType, IsF32: shape.isF32, Reg: val})
	return nil
}

// stElemStorageFor mirrors ldElemShapeFor's storage-width table for the
// stelem.* family, which carries no type information beyond the opcode
// either.
func stElemStorageFor(op cil.Opcode) int64 {
	switch op {
	case cil.StElemI1, cil.StElemI2, cil.StElemI4, cil.StElemR4:
		return 4
	case cil.StElemI8, cil.StElemI, cil.StElemR8, cil.StElemRef:
		return 8
	}
	return 4
}

// stelem implements the stelem.* family (spec.md §4.7): pops value, index,
// array (value on top per ECMA-335 III.3.114's stack transition), then
// null-checks, bounds-checks, and stores -- through the GC write barrier
// for stelem.ref, a plain store otherwise.
func (t *Translator) stelem(f *frame, op cil.Opcode) error {
	triple, err := f.popN(3)
	if err != nil {
		return err
	}
	arr, idx, val := triple[0], triple[1], triple[2]

	idx64 := t.indexToI64(idx)
	if err := t.checkArrayBounds(arr, idx64); err != nil {
		return err
	}

	addr := t.elementAddr(arr.Reg, idx64, stElemStorageFor(op))
	if op == cil.StElemRef {
		t.b.GCBarrier(externGCUpdate, addr, val.Reg)
		return nil
	}
	t.b.Store(addr, val.Reg)
	return nil
}
