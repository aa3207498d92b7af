package loader

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/layout"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
)

// ensureTypeLayout computes and publishes t's Layout (spec.md §4.3-§4.4),
// recursing into any unfilled value-type field first -- a value type can
// only be sized once every value-typed field it embeds is sized, and
// metadata row order gives no such guarantee (spec.md §9's "deep mutation
// during fill" design note). visiting detects the illegal case of a value
// type embedding itself, directly or through another value type.
func (l *Loader) ensureTypeLayout(t *mdmodel.Type, visiting map[*mdmodel.Type]bool) error {
	if t.IsFilled() {
		return nil
	}
	if visiting[t] {
		return clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: value type %s embeds itself", t))
	}
	visiting[t] = true

	if t.IsInterface() {
		t.VirtualMethods = t.Methods
		t.SetLayout(mdmodel.Layout{
			StackType: mdmodel.StackTypeObject,
			StackSize: layout.PointerSize, StackAlign: layout.PointerSize,
		})
		return nil
	}

	var classLayout *mdsource.ClassLayoutRow
	if tok, ok := l.typeToToken[t]; ok {
		classLayout = l.typeDefRows[tok].ClassLayout
	}

	var inputs []layout.FieldLayoutInput
	for _, f := range t.Fields {
		if f.IsStatic() {
			continue
		}
		fi, err := l.fieldLayoutInput(f, visiting)
		if err != nil {
			return err
		}
		inputs = append(inputs, fi)
	}

	var body mdmodel.Layout
	var err error
	switch {
	case classLayout != nil:
		for i := range inputs {
			fr := l.fieldRowOf(inputs[i].Field)
			if off, ok := classLayout.FieldOffsets[fr.Token]; ok {
				inputs[i].ExplicitOffset = off
			}
		}
		body, err = layout.ComputeExplicitLayout(inputs, classLayout.PackingSize, classLayout.ClassSize)
	case t.IsValueType():
		body = layout.ComputeAutoLayout(inputs)
	default:
		body = layout.ComputeReferenceLayout(inputs)
	}
	if err != nil {
		return err
	}

	var parentVirtuals []*mdmodel.MethodInfo
	if t.Parent != nil {
		if err := l.ensureTypeLayout(t.Parent, visiting); err != nil {
			return err
		}
		parentVirtuals = t.Parent.VirtualMethods
	}
	vb := layout.NewVTableBuilder(parentVirtuals)
	for _, m := range t.Methods {
		if m.IsVirtual() {
			m.VTableOffset = vb.Override(m, sameSignature)
		}
	}
	for i := range t.Interfaces {
		iface := t.Interfaces[i].Interface
		if err := l.ensureTypeLayout(iface, visiting); err != nil {
			return err
		}
		offset := vb.ReserveInterface(len(iface.VirtualMethods))
		t.Interfaces[i].Offset = offset
		for k, im := range iface.VirtualMethods {
			for _, m := range t.Methods {
				if m.IsVirtual() && sameSignature(m, im) {
					vb.Fill(offset, k, m)
				}
			}
		}
	}
	t.VirtualMethods = vb.Slots()
	body.VTable = make([]uintptr, len(t.VirtualMethods))
	t.SetLayout(body)
	return nil
}

func (l *Loader) fieldLayoutInput(f *mdmodel.FieldInfo, visiting map[*mdmodel.Type]bool) (layout.FieldLayoutInput, error) {
	ft := f.Type

	if ft.Flags.Has(mdmodel.FlagEnum) {
		size, align, _ := layout.PrimitiveSizeAlign(ft.EnumUnderlying.Name)
		return layout.FieldLayoutInput{Field: f, Size: size, Align: align}, nil
	}

	if ft.IsValueType() {
		if size, align, ok := layout.PrimitiveSizeAlign(ft.Name); ok {
			return layout.FieldLayoutInput{Field: f, Size: size, Align: align}, nil
		}
		if !ft.IsFilled() {
			if err := l.ensureTypeLayout(ft, visiting); err != nil {
				return layout.FieldLayoutInput{}, err
			}
		}
		lay := ft.Layout()
		return layout.FieldLayoutInput{
			Field: f, Size: lay.ManagedSize, Align: lay.ManagedAlign,
			HasManagedPtrs:    len(lay.ManagedPointerOffsets) > 0,
			ManagedPtrOffsets: lay.ManagedPointerOffsets,
		}, nil
	}

	if ft.IsPointer() {
		return layout.FieldLayoutInput{Field: f, Size: layout.PointerSize, Align: layout.PointerSize}, nil
	}

	// Reference type, array, interface, by-ref, or generic-parameter field:
	// a single managed pointer-sized slot (spec.md §4.3).
	return layout.FieldLayoutInput{
		Field: f, Size: layout.PointerSize, Align: layout.PointerSize,
		HasManagedPtrs:    true,
		ManagedPtrOffsets: []int{0},
	}, nil
}

// sameSignature is the slot-matching rule VTableBuilder.Override needs:
// same name, same parameter types/by-ref-ness, same return type. Types
// compare by pointer identity, per spec.md §3's "same Type pointer"
// identity invariant.
func sameSignature(a, b *mdmodel.MethodInfo) bool {
	if a.Name != b.Name || len(a.Params) != len(b.Params) || a.ReturnType != b.ReturnType {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != b.Params[i].Type || a.Params[i].ByRef != b.Params[i].ByRef {
			return false
		}
	}
	return true
}
