package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

// copyValue implements a value type's by-value copy: a whole-buffer memcpy
// followed by a GCBarrier-wrapped re-store of every managed-pointer field
// at its known offset, so the collector's write-barrier bookkeeping for the
// destination stays correct without the translator tracking per-field
// provenance (spec.md §4.3's ManagedPointerOffsets drives this directly).
func (t *Translator) copyValue(dst, src mir.Value, typ *mdmodel.Type) {
	size := sizeOf(typ)
	t.b.Call(externMemcpy, mir.Void, dst, src, t.b.Const(mir.I64, size))
	if typ == nil || !typ.IsFilled() {
		return
	}
	for _, off := range typ.Layout().ManagedPointerOffsets {
		fieldAddr := t.b.GEP(dst, int64(off))
		val := t.b.Load(mir.Ptr, t.b.GEP(src, int64(off)))
		t.b.GCBarrier(externGCUpdate, fieldAddr, val)
	}
}

func (t *Translator) slotAt(index int) (slot, error) {
	if index < 0 || index >= len(t.slots) {
		return slot{}, fmt.Errorf("%w: slot index %d out of range (have %d)", ErrVerification, index, len(t.slots))
	}
	return t.slots[index], nil
}

func (t *Translator) ldarg(f *frame, index int) error {
	s, err := t.slotAt(index)
	if err != nil {
		return err
	}
	return t.loadSlot(f, s)
}

func (t *Translator) ldloc(f *frame, index int) error {
	s, err := t.slotAt(t.argCount + index)
	if err != nil {
		return err
	}
	return t.loadSlot(f, s)
}

func (t *Translator) loadSlot(f *frame, s slot) error {
	if s.kind == mdmodel.StackTypeValueType {
		buf := t.b.Alloca(s.size)
		t.copyValue(buf, s.addr, s.typ)
		f.push(entry{Kind: s.kind, Type: s.typ, Reg: buf})
		return nil
	}
	val := t.b.Load(s.mirType(), s.addr)
	f.push(entry{Kind: s.kind, Type: s.typ, IsF32: s.isF32, Reg: val})
	return nil
}

func (t *Translator) starg(f *frame, index int) error {
	s, err := t.slotAt(index)
	if err != nil {
		return err
	}
	return t.storeSlot(f, s)
}

func (t *Translator) stloc(f *frame, index int) error {
	s, err := t.slotAt(t.argCount + index)
	if err != nil {
		return err
	}
	return t.storeSlot(f, s)
}

func (t *Translator) storeSlot(f *frame, s slot) error {
	e, err := f.pop()
	if err != nil {
		return err
	}
	if s.kind == mdmodel.StackTypeValueType {
		t.copyValue(s.addr, e.Reg, s.typ)
		return nil
	}
	t.b.Store(s.addr, e.Reg)
	return nil
}

func (t *Translator) ldarga(f *frame, index int) error {
	s, err := t.slotAt(index)
	if err != nil {
		return err
	}
	f.push(entry{Kind: mdmodel.StackTypeByRef, Type: t.byRefOf(s.typ), Reg: s.addr})
	return nil
}

func (t *Translator) ldloca(f *frame, index int) error {
	s, err := t.slotAt(t.argCount + index)
	if err != nil {
		return err
	}
	f.push(entry{Kind: mdmodel.StackTypeByRef, Type: t.byRefOf(s.typ), Reg: s.addr})
	return nil
}
