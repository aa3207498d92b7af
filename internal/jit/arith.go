package jit

import (
	"fmt"
	"math"

	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

func (t *Translator) constI32(v int64) entry {
	return entry{Kind: mdmodel.StackTypeInt32, Type: t.namer("Int32"), Reg: t.b.Const(mir.I32, v)}
}
func (t *Translator) constI64(v int64) entry {
	return entry{Kind: mdmodel.StackTypeInt64, Type: t.namer("Int64"), Reg: t.b.Const(mir.I64, v)}
}
func (t *Translator) constF32(v float64) entry {
	bits := math.Float32bits(float32(v))
	return entry{Kind: mdmodel.StackTypeFloat, Type: t.namer("Single"), IsF32: true, Reg: t.b.Const(mir.F32, int64(bits))}
}
func (t *Translator) constF64(v float64) entry {
	bits := math.Float64bits(v)
	return entry{Kind: mdmodel.StackTypeFloat, Type: t.namer("Double"), Reg: t.b.Const(mir.F64, int64(bits))}
}

// binOp lowers a binary arithmetic/bitwise opcode. Both operands must
// share one stack-type kind, and Float operands one width; any mix is a
// verification error. No implicit conversion is applied: Int32 with
// IntPtr is not sign-extended to IntPtr, and Single with Double is not
// widened to Double. Float operands are not rejected for the
// integer-only operators (and, or, xor, shifts, div.un, rem.un). The
// result takes the left operand's kind and MIR type.
func (t *Translator) binOp(f *frame, op cil.Opcode) error {
	rhs, err := f.pop()
	if err != nil {
		return err
	}
	lhs, err := f.pop()
	if err != nil {
		return err
	}
	if lhs.Kind != rhs.Kind {
		return fmt.Errorf("%w: binary op on mismatched kinds %v/%v", ErrVerification, lhs.Kind, rhs.Kind)
	}
	if lhs.Kind == mdmodel.StackTypeFloat && lhs.IsF32 != rhs.IsF32 {
		return fmt.Errorf("%w: binary op on mismatched float widths", ErrVerification)
	}

	mop, isDivRem := binMirOp(op)
	mt := lhs.mirType()
	if isDivRem && mt != mir.F32 && mt != mir.F64 {
		if err := t.checkDivisorNonZero(rhs); err != nil {
			return err
		}
	}
	res := t.b.BinOp(mop, mt, lhs.Reg, rhs.Reg)
	f.push(entry{Kind: lhs.Kind, Type: lhs.Type, IsF32: lhs.IsF32, Reg: res})
	return nil
}

func binMirOp(op cil.Opcode) (mir.Op, bool) {
	switch op {
	case cil.Add:
		return mir.OpAdd, false
	case cil.Sub:
		return mir.OpSub, false
	case cil.Mul:
		return mir.OpMul, false
	case cil.Div:
		return mir.OpDiv, true
	case cil.DivUn:
		return mir.OpDivUn, true
	case cil.Rem:
		return mir.OpRem, true
	case cil.RemUn:
		return mir.OpRemUn, true
	case cil.And:
		return mir.OpAnd, false
	case cil.Or:
		return mir.OpOr, false
	case cil.Xor:
		return mir.OpXor, false
	case cil.Shl:
		return mir.OpShl, false
	case cil.Shr:
		return mir.OpShr, false
	case cil.ShrUn:
		return mir.OpShrUn, false
	}
	return mir.OpAdd, false
}

// checkDivisorNonZero emits the divide-by-zero guard spec.md §4.7 requires
// around div/div.un/rem/rem.un on integer operands: a throw of
// DivideByZeroException when the divisor is zero, via the same handler-
// search pathway a `throw` opcode uses.
func (t *Translator) checkDivisorNonZero(divisor entry) error {
	okLabel := t.freshLabel("divok")
	zeroConst := t.b.Const(divisor.mirType(), 0)
	isZero := t.b.BinOp(mir.OpCmpEq, mir.I32, divisor.Reg, zeroConst)
	throwLabel := t.freshLabel("divzero")
	t.b.CondBr(isZero, throwLabel, nil, okLabel, nil)
	t.blockOpen = false

	t.b.Block(throwLabel)
	t.curLabel = throwLabel
	t.blockOpen = true
	excType := t.namer("DivideByZeroException")
	_, exc := t.b.Call(externGCNew, mir.Ptr, t.typeIDConst(excType), t.b.Const(mir.I64, 16))
	if err := t.raiseHandlerSearch(exc); err != nil {
		return err
	}

	t.b.Block(okLabel)
	t.curLabel = okLabel
	t.blockOpen = true
	return nil
}

func (t *Translator) unOpArith(f *frame, op mir.Op) error {
	e, err := f.pop()
	if err != nil {
		return err
	}
	res := t.b.UnOp(op, e.mirType(), e.Reg)
	f.push(entry{Kind: e.Kind, Type: e.Type, IsF32: e.IsF32, Reg: res})
	return nil
}

// cmpOp implements ceq/cgt/cgt.un/clt/clt.un, always pushing an Int32 (CIL's
// boolean-as-Int32 convention).
func (t *Translator) cmpOp(f *frame, op mir.Op) error {
	rhs, err := f.pop()
	if err != nil {
		return err
	}
	lhs, err := f.pop()
	if err != nil {
		return err
	}
	res := t.b.BinOp(op, mir.I32, lhs.Reg, rhs.Reg)
	f.push(entry{Kind: mdmodel.StackTypeInt32, Type: t.namer("Int32"), Reg: res})
	return nil
}

// convert implements the conv.* family's narrowing/widening table (spec.md
// §4.7): integer<->integer uses sext/zext/trunc by signedness and
// width, integer<->float uses i2f/f2i, and same-kind no-ops are elided.
func (t *Translator) convert(f *frame, op cil.Opcode) error {
	e, err := f.pop()
	if err != nil {
		return err
	}
	dstKind, dstMir, dstName, unsigned := convertTarget(op)

	// conv.i1/u1/i2/u2 always re-narrow, even when the source is already
	// Int32-kinded (the common case: byte/short all collapse to
	// StackTypeInt32/mir.I32, so there is no dedicated narrower MIR type to
	// Trunc into -- the shift-left-then-shift-right trick is how this core
	// synthesizes sub-word truncation on a 32-bit register).
	if shift, ok := narrowShift(op); ok {
		res := t.narrowInt32(t.toI32Value(e), shift, unsigned)
		f.push(entry{Kind: dstKind, Type: t.namer(dstName), Reg: res})
		return nil
	}

	if e.mirType() == dstMir && e.Kind == dstKind {
		f.push(entry{Kind: dstKind, Type: t.namer(dstName), IsF32: dstMir == mir.F32, Reg: e.Reg})
		return nil
	}

	var res mir.Value
	switch {
	case e.Kind == mdmodel.StackTypeFloat && (dstKind == mdmodel.StackTypeInt32 || dstKind == mdmodel.StackTypeInt64 || dstKind == mdmodel.StackTypeIntPtr):
		res = t.b.UnOp(mir.OpFloatToInt, dstMir, e.Reg)
	case dstKind == mdmodel.StackTypeFloat:
		res = t.b.UnOp(mir.OpIntToFloat, dstMir, e.Reg)
		if dstMir == mir.F32 && e.mirType() == mir.F64 {
			res = t.b.UnOp(mir.OpFPTrunc, mir.F32, res)
		}
	case e.mirType() == mir.I64 && dstMir == mir.I32:
		res = t.b.UnOp(mir.OpTrunc, mir.I32, e.Reg)
	case e.mirType() == mir.I32 && dstMir == mir.I64:
		if unsigned {
			res = t.b.UnOp(mir.OpZExt, mir.I64, e.Reg)
		} else {
			res = t.b.UnOp(mir.OpSExt, mir.I64, e.Reg)
		}
	case e.mirType() == mir.Ptr && dstMir == mir.I64:
		res = t.b.UnOp(mir.OpBitcast, mir.I64, e.Reg)
	case e.mirType() == mir.I64 && dstMir == mir.Ptr:
		res = t.b.UnOp(mir.OpBitcast, mir.Ptr, e.Reg)
	case e.mirType() == mir.I32 && dstMir == mir.Ptr:
		res = t.b.UnOp(mir.OpSExt, mir.I64, e.Reg)
		res = t.b.UnOp(mir.OpBitcast, mir.Ptr, res)
	case e.mirType() == mir.Ptr && dstMir == mir.I32:
		res = t.b.UnOp(mir.OpBitcast, mir.I64, e.Reg)
		res = t.b.UnOp(mir.OpTrunc, mir.I32, res)
	default:
		res = e.Reg
	}
	f.push(entry{Kind: dstKind, Type: t.namer(dstName), IsF32: dstMir == mir.F32, Reg: res})
	return nil
}

// narrowShift reports the conv.i1/u1/i2/u2 shift-trick amount (32 minus the
// target width in bits) and whether op is one of those four narrowing
// conversions.
func narrowShift(op cil.Opcode) (int64, bool) {
	switch op {
	case cil.ConvI1, cil.ConvU1:
		return 24, true
	case cil.ConvI2, cil.ConvU2:
		return 16, true
	}
	return 0, false
}

// narrowInt32 truncates val to a sub-word width by shifting the wanted bits
// up against the register's top and back down: an arithmetic shift for a
// signed target sign-extends the result, a logical shift for an unsigned
// target zero-extends it.
func (t *Translator) narrowInt32(val mir.Value, shift int64, unsigned bool) mir.Value {
	shiftConst := t.b.Const(mir.I32, shift)
	shifted := t.b.BinOp(mir.OpShl, mir.I32, val, shiftConst)
	if unsigned {
		return t.b.BinOp(mir.OpShrUn, mir.I32, shifted, shiftConst)
	}
	return t.b.BinOp(mir.OpShr, mir.I32, shifted, shiftConst)
}

// toI32Value coerces e to an I32 register, the common input the narrowing
// conversions and array-element helpers need regardless of e's original
// stack kind.
func (t *Translator) toI32Value(e entry) mir.Value {
	switch {
	case e.Kind == mdmodel.StackTypeFloat:
		return t.b.UnOp(mir.OpFloatToInt, mir.I32, e.Reg)
	case e.mirType() == mir.I64:
		return t.b.UnOp(mir.OpTrunc, mir.I32, e.Reg)
	case e.mirType() == mir.Ptr:
		tmp := t.b.UnOp(mir.OpBitcast, mir.I64, e.Reg)
		return t.b.UnOp(mir.OpTrunc, mir.I32, tmp)
	default:
		return e.Reg
	}
}

func convertTarget(op cil.Opcode) (mdmodel.StackType, mir.Type, string, bool) {
	switch op {
	case cil.ConvI1:
		return mdmodel.StackTypeInt32, mir.I32, "SByte", false
	case cil.ConvU1:
		return mdmodel.StackTypeInt32, mir.I32, "Byte", true
	case cil.ConvI2:
		return mdmodel.StackTypeInt32, mir.I32, "Int16", false
	case cil.ConvU2:
		return mdmodel.StackTypeInt32, mir.I32, "UInt16", true
	case cil.ConvI4:
		return mdmodel.StackTypeInt32, mir.I32, "Int32", false
	case cil.ConvU4:
		return mdmodel.StackTypeInt32, mir.I32, "UInt32", true
	case cil.ConvI8:
		return mdmodel.StackTypeInt64, mir.I64, "Int64", false
	case cil.ConvU8:
		return mdmodel.StackTypeInt64, mir.I64, "UInt64", true
	case cil.ConvR4:
		return mdmodel.StackTypeFloat, mir.F32, "Single", false
	case cil.ConvR8:
		return mdmodel.StackTypeFloat, mir.F64, "Double", false
	case cil.ConvI:
		return mdmodel.StackTypeIntPtr, mir.Ptr, "IntPtr", false
	case cil.ConvU:
		return mdmodel.StackTypeIntPtr, mir.Ptr, "UIntPtr", true
	}
	return mdmodel.StackTypeInt32, mir.I32, "Int32", false
}

// typeIDConst materializes a type's identity as a pointer-sized constant
// runtime helpers take to identify the class being allocated/checked
// against. A real runtime passes the live *mdmodel.Type's published handle
// value; the fake backend used in tests only needs a stable, type-distinct
// bit pattern.
func (t *Translator) typeIDConst(typ *mdmodel.Type) mir.Value {
	return t.b.Const(mir.Ptr, int64(typ.Handle))
}
