package jit

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
)

// fieldMirType maps a field's declared type onto the MIR type its load/
// store instructions use, reusing the same stack-type classification the
// abstract evaluation stack uses.
func fieldMirType(typ *mdmodel.Type) mir.Type {
	e := entry{Kind: stackTypeOf(typ), Type: typ, IsF32: isF32Type(typ)}
	return e.mirType()
}

func (t *Translator) ldfld(f *frame, token uint32, addrOnly bool) error {
	obj, err := f.pop()
	if err != nil {
		return err
	}
	if err := t.checkNotNull(obj); err != nil {
		return err
	}
	fld, err := t.resolver.ResolveField(mdsource.Token(token))
	if err != nil {
		return err
	}
	addr := t.b.GEP(obj.Reg, int64(fld.Offset))
	if addrOnly {
		f.push(entry{Kind: mdmodel.StackTypeByRef, Type: t.byRefOf(fld.Type), Reg: addr})
		return nil
	}
	return t.pushFieldValue(f, addr, fld.Type)
}

func (t *Translator) pushFieldValue(f *frame, addr mir.Value, typ *mdmodel.Type) error {
	k := stackTypeOf(typ)
	if k == mdmodel.StackTypeValueType {
		buf := t.b.Alloca(sizeOf(typ))
		t.copyValue(buf, addr, typ)
		f.push(entry{Kind: k, Type: typ, Reg: buf})
		return nil
	}
	val := t.b.Load(fieldMirType(typ), addr)
	f.push(entry{Kind: k, Type: typ, IsF32: isF32Type(typ), Reg: val})
	return nil
}

func (t *Translator) stfld(f *frame, token uint32) error {
	val, obj, err := t.popFieldAssignPair(f)
	if err != nil {
		return err
	}
	if err := t.checkNotNull(obj); err != nil {
		return err
	}
	fld, err := t.resolver.ResolveField(mdsource.Token(token))
	if err != nil {
		return err
	}
	addr := t.b.GEP(obj.Reg, int64(fld.Offset))
	return t.storeFieldValue(addr, val, fld.Type)
}

// popFieldAssignPair pops stfld/stsfld's two-operand shape: value on top,
// object reference (for stfld) beneath it.
func (t *Translator) popFieldAssignPair(f *frame) (val, obj entry, err error) {
	pair, err := f.popN(2)
	if err != nil {
		return entry{}, entry{}, err
	}
	return pair[1], pair[0], nil
}

func (t *Translator) ldsfld(f *frame, token uint32, addrOnly bool) error {
	fld, err := t.resolver.ResolveField(mdsource.Token(token))
	if err != nil {
		return err
	}
	addr := t.b.GlobalAddr(FieldSymbol(fld))
	if addrOnly {
		f.push(entry{Kind: mdmodel.StackTypeByRef, Type: t.byRefOf(fld.Type), Reg: addr})
		return nil
	}
	return t.pushFieldValue(f, addr, fld.Type)
}

func (t *Translator) stsfld(f *frame, token uint32) error {
	fld, err := t.resolver.ResolveField(mdsource.Token(token))
	if err != nil {
		return err
	}
	val, err := f.pop()
	if err != nil {
		return err
	}
	addr := t.b.GlobalAddr(FieldSymbol(fld))
	return t.storeFieldValue(addr, val, fld.Type)
}

func (t *Translator) storeFieldValue(addr mir.Value, val entry, typ *mdmodel.Type) error {
	if stackTypeOf(typ) == mdmodel.StackTypeValueType {
		t.copyValue(addr, val.Reg, typ)
		return nil
	}
	if stackTypeOf(typ) == mdmodel.StackTypeObject {
		t.b.GCBarrier(externGCUpdate, addr, val.Reg)
		return nil
	}
	t.b.Store(addr, val.Reg)
	return nil
}
