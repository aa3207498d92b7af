package jit

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
)

// addressOf returns an entry's backing address: a value-type entry already
// carries one (its Reg is the stack-allocated buffer, per copyValue's
// convention); anything else is spilled to a fresh buffer first, the same
// way ldarga/ldloca hand back an address for a slot that otherwise lives in
// a register.
func (t *Translator) addressOf(e entry) mir.Value {
	if e.Kind == mdmodel.StackTypeValueType {
		return e.Reg
	}
	addr := t.b.Alloca(sizeOf(e.Type))
	t.b.Store(addr, e.Reg)
	return addr
}

// box implements `box` (spec.md §4.7): copy a value type's bits into a
// freshly boxed heap instance. Grounded on the same allocation-only
// exception-slot convention as newarr/newobj's GCNew call: clr_rt_box never
// reports failure through its exc slot, only through a null result.
func (t *Translator) box(f *frame, token uint32) error {
	typ, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	e, err := f.pop()
	if err != nil {
		return err
	}
	_, boxed := t.b.Call(externBox, mir.Ptr, t.typeIDConst(typ), t.addressOf(e))
	if err := t.checkAllocOrOOM(boxed); err != nil {
		return err
	}
	f.push(entry{Kind: mdmodel.StackTypeObject, Type: typ, Reg: boxed})
	return nil
}

// unboxAny implements `unbox.any` (spec.md §4.7): a null check (ECMA-335
// III.4.32's NullReferenceException on a null operand), then the runtime's
// type-checked unbox (a real exc on type mismatch, per the validation-extern
// half of the exception-slot convention -- unlike box/newobj/newarr, this
// one can fail on the caller's own fault, not just on allocation), then
// loads the value out the same way a field load would.
func (t *Translator) unboxAny(f *frame, token uint32) error {
	typ, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	obj, err := f.pop()
	if err != nil {
		return err
	}
	if err := t.checkNotNull(obj); err != nil {
		return err
	}
	exc, addr := t.b.Call(externUnboxAny, mir.Ptr, t.typeIDConst(typ), obj.Reg)
	if err := t.checkCallException(exc); err != nil {
		return err
	}
	return t.pushFieldValue(f, addr, typ)
}

// castclass implements `castclass` (spec.md §4.7): a null reference always
// passes a castclass check (ECMA-335 III.4.6), and a type mismatch raises
// InvalidCastException. Rather than the translator replicating that
// null-vs-mismatch distinction itself with a separate isinst probe, this
// trusts clr_rt_castclass's own exc slot to report exactly the failure case
// and nothing else -- it is a validation extern, not an allocation one.
func (t *Translator) castclass(f *frame, token uint32) error {
	typ, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	obj, err := f.pop()
	if err != nil {
		return err
	}
	exc, val := t.b.Call(externCastClass, mir.Ptr, obj.Reg, t.typeIDConst(typ))
	if err := t.checkCallException(exc); err != nil {
		return err
	}
	f.push(entry{Kind: mdmodel.StackTypeObject, Type: typ, Reg: val})
	return nil
}

// isinst implements `isinst` (spec.md §4.7): pushes the operand back when it
// is an instance of typ (or a null reference), or a null reference
// otherwise -- it never throws, matching the one piece of pre-existing
// precedent for this extern, searchFrom's catch-clause-match probe, which
// also ignores clr_rt_isinst's exc slot entirely.
func (t *Translator) isinst(f *frame, token uint32) error {
	typ, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	obj, err := f.pop()
	if err != nil {
		return err
	}
	_, val := t.b.Call(externIsInstance, mir.Ptr, obj.Reg, t.typeIDConst(typ))
	f.push(entry{Kind: mdmodel.StackTypeObject, Type: typ, Reg: val})
	return nil
}

// initobj implements `init.obj` (spec.md §4.7): zero-fills the value type at
// the popped address, the same clr_rt_zeromemory helper zeroSlot uses for a
// method's own locals.
func (t *Translator) initobj(f *frame, token uint32) error {
	typ, err := t.resolver.Resolve(mdsource.Token(token))
	if err != nil {
		return err
	}
	addr, err := f.pop()
	if err != nil {
		return err
	}
	t.b.Call(externZeroMemory, mir.Void, addr.Reg, t.b.Const(mir.I64, sizeOf(typ)))
	return nil
}
