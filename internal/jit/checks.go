package jit

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

// checkNotNull implements the implicit null-check every instance field
// access and virtual/instance call carries in CIL (ECMA-335 III.4.10's
// "NullReferenceException... if objectref is null"): a guard-and-branch
// around obj.Reg, mirroring checkDivisorNonZero's throw-block shape
// exactly. Only StackTypeObject entries can ever hold a null reference --
// a ByRef "this" (a value-type instance method's receiver) or a ByRef
// field address can't, so this is a no-op for anything else.
func (t *Translator) checkNotNull(obj entry) error {
	if obj.Kind != mdmodel.StackTypeObject {
		return nil
	}
	okLabel := t.freshLabel("notnullok")
	isNull := t.b.BinOp(mir.OpCmpEq, mir.I32, obj.Reg, t.b.Const(mir.Ptr, 0))
	throwLabel := t.freshLabel("nullref")
	t.b.CondBr(isNull, throwLabel, nil, okLabel, nil)
	t.blockOpen = false

	t.b.Block(throwLabel)
	t.curLabel = throwLabel
	t.blockOpen = true
	excType := t.namer("NullReferenceException")
	_, exc := t.b.Call(externGCNew, mir.Ptr, t.typeIDConst(excType), t.b.Const(mir.I64, 16))
	if err := t.raiseHandlerSearch(exc); err != nil {
		return err
	}

	t.b.Block(okLabel)
	t.curLabel = okLabel
	t.blockOpen = true
	return nil
}

// checkAllocOrOOM guards an allocation-only extern's result (GCNew, Box,
// NewArray): these externs' own exception slot is never meaningful (spec.md
// §4's allocation path reports failure only through a null value, never a
// populated exception register -- the same convention checkDivisorNonZero's
// GCNew call and searchFrom's IsInstance call already establish by ignoring
// their own exc slot). A null result here means the allocator ran out of
// memory.
func (t *Translator) checkAllocOrOOM(val mir.Value) error {
	okLabel := t.freshLabel("allocok")
	isNull := t.b.BinOp(mir.OpCmpEq, mir.I32, val, t.b.Const(mir.Ptr, 0))
	throwLabel := t.freshLabel("oom")
	t.b.CondBr(isNull, throwLabel, nil, okLabel, nil)
	t.blockOpen = false

	t.b.Block(throwLabel)
	t.curLabel = throwLabel
	t.blockOpen = true
	excType := t.namer("OutOfMemoryException")
	_, exc := t.b.Call(externGCNew, mir.Ptr, t.typeIDConst(excType), t.b.Const(mir.I64, 16))
	if err := t.raiseHandlerSearch(exc); err != nil {
		return err
	}

	t.b.Block(okLabel)
	t.curLabel = okLabel
	t.blockOpen = true
	return nil
}

// checkCallException guards a managed call/newobj/castclass/unboxAny/
// array-bounds-check's exc slot, the "real" half of the exception-slot
// convention: a non-null exc means the callee itself raised, and control
// must enter this method's own handler search exactly as a `throw` would.
func (t *Translator) checkCallException(exc mir.Value) error {
	okLabel := t.freshLabel("callok")
	isExc := t.b.BinOp(mir.OpCmpNe, mir.I32, exc, t.b.Const(mir.Ptr, 0))
	throwLabel := t.freshLabel("callexc")
	t.b.CondBr(isExc, throwLabel, nil, okLabel, nil)
	t.blockOpen = false

	t.b.Block(throwLabel)
	t.curLabel = throwLabel
	t.blockOpen = true
	if err := t.raiseHandlerSearch(exc); err != nil {
		return err
	}

	t.b.Block(okLabel)
	t.curLabel = okLabel
	t.blockOpen = true
	return nil
}
