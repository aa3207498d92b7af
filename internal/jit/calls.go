package jit

import (
	"github.com/clrcore/clrcore/internal/layout"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
)

// methodIsVoid reports whether m's declared return type is System.Void (or
// absent), the same test buildProto uses for the translator's own method.
func methodIsVoid(m *mdmodel.MethodInfo) bool {
	return m.ReturnType == nil || (m.ReturnType.Namespace == "System" && m.ReturnType.Name == "Void")
}

// call implements `call` and `callvirt` (spec.md §4.7): call always
// dispatches statically to the resolved MethodInfo's own symbol; callvirt
// dispatches through the receiver's vtable when the resolved method is
// itself virtual, and falls back to a direct call otherwise (a callvirt on
// a non-virtual method -- a final or value-type instance method -- never
// needs indirection). Scoped to same-class virtual dispatch
// (interface_offset=0): a callvirt through an interface-typed receiver's
// fat-pointer slot run is not exercised here.
func (t *Translator) call(f *frame, token uint32, virtual bool) error {
	m, err := t.resolver.ResolveMethod(mdsource.Token(token))
	if err != nil {
		return err
	}

	argCount := len(m.Params)
	if !m.IsStatic() {
		argCount++
	}
	args, err := f.popN(argCount)
	if err != nil {
		return err
	}
	if !m.IsStatic() {
		if err := t.checkNotNull(args[0]); err != nil {
			return err
		}
	}
	regs := make([]mir.Value, len(args))
	for i, a := range args {
		regs[i] = a.Reg
	}

	isVoid := methodIsVoid(m)
	resultTy := mir.Void
	if !isVoid {
		resultTy = stackEntryMirType(m.ReturnType)
	}

	var exc, val mir.Value
	if virtual && m.IsVirtual() {
		vtableHeader := t.b.Load(mir.Ptr, regs[0])
		slotAddr := t.b.GEP(vtableHeader, int64(layout.SlotOffset(0, m.VTableOffset)))
		fnPtr := t.b.Load(mir.Ptr, slotAddr)
		exc, val = t.b.CallIndirect(fnPtr, resultTy, regs...)
	} else {
		exc, val = t.b.Call(MethodSymbol(m), resultTy, regs...)
	}
	if err := t.checkCallException(exc); err != nil {
		return err
	}
	if !isVoid {
		f.push(entry{Kind: stackTypeOf(m.ReturnType), Type: m.ReturnType, IsF32: isF32Type(m.ReturnType), Reg: val})
	}
	return nil
}

// newobj implements `newobj` (spec.md §4.7): allocate a zeroed instance of
// the constructor's declaring type, then call the constructor against it
// exactly as a `call` would, and push the new instance. Allocation failure
// (GCNew returning null) raises OutOfMemoryException before the
// constructor ever runs; the constructor's own exception, if any, is
// handled like any other call's.
func (t *Translator) newobj(f *frame, token uint32) error {
	m, err := t.resolver.ResolveMethod(mdsource.Token(token))
	if err != nil {
		return err
	}
	typ := m.DeclaringType

	args, err := f.popN(len(m.Params))
	if err != nil {
		return err
	}

	_, obj := t.b.Call(externGCNew, mir.Ptr, t.typeIDConst(typ), t.b.Const(mir.I64, sizeOf(typ)))
	if err := t.checkAllocOrOOM(obj); err != nil {
		return err
	}

	callArgs := make([]mir.Value, len(args)+1)
	callArgs[0] = obj
	for i, a := range args {
		callArgs[i+1] = a.Reg
	}
	exc, _ := t.b.Call(MethodSymbol(m), mir.Void, callArgs...)
	if err := t.checkCallException(exc); err != nil {
		return err
	}

	f.push(entry{Kind: mdmodel.StackTypeObject, Type: typ, Reg: obj})
	return nil
}
