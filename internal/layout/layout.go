// Package layout implements the object/layout model from spec.md §4.3-§4.4:
// primitive sizing, value-type auto/explicit layout, and vtable/interface
// fat-pointer shape. It is pure data computation — the only state it
// touches is the Layout it hands back to internal/loader to publish onto a
// mdmodel.Type via Type.SetLayout.
package layout

import (
	"fmt"
	"sort"

	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/mdmodel"
)

// PointerSize is the native pointer width of the target architecture.
// spec.md §4.3 fixes intptr at 8/8 "on 64-bit targets"; this core targets
// 64-bit only (consistent with MIR's own assumption that a code generator
// backend is a real machine target).
const PointerSize = 8

// FieldLayoutInput is one field as seen by the layout computation: its
// size/alignment (already resolved by the caller from a filled element
// Type, or from the primitive table below) and, for explicit layout, its
// declared offset.
type FieldLayoutInput struct {
	Field          *mdmodel.FieldInfo
	Size           int
	Align          int
	HasManagedPtrs bool
	// ManagedPtrOffsets are offsets *within this field's own layout* that
	// hold a reference (non-empty only when the field's type is itself a
	// value type with embedded references).
	ManagedPtrOffsets []int
	ExplicitOffset    int // meaningful only for ComputeExplicitLayout
}

// PrimitiveSizeAlign returns the fixed size/alignment for a CLI primitive
// value type (spec.md §4.3's table). ok is false for anything not in that
// table (reference types, arrays, generic parameters — those are sized by
// the rules below instead).
func PrimitiveSizeAlign(name string) (size, align int, ok bool) {
	switch name {
	case "Boolean", "Byte", "SByte":
		return 1, 1, true
	case "Char", "Int16", "UInt16":
		return 2, 2, true
	case "Int32", "UInt32", "Single":
		return 4, 4, true
	case "Int64", "UInt64", "Double", "IntPtr", "UIntPtr":
		return 8, 8, true
	default:
		return 0, 0, false
	}
}

func align(offset, a int) int {
	if a <= 1 {
		return offset
	}
	return (offset + a - 1) &^ (a - 1)
}

// ComputeAutoLayout places each field at the next aligned offset in
// declaration order and rounds the total size up to the type's own
// alignment, per spec.md §4.3's auto-layout rule.
func ComputeAutoLayout(fields []FieldLayoutInput) mdmodel.Layout {
	offset := 0
	typeAlign := 1
	var ptrOffsets []int

	for i := range fields {
		f := &fields[i]
		if f.Align > typeAlign {
			typeAlign = f.Align
		}
		offset = align(offset, f.Align)
		f.Field.Offset = offset
		for _, o := range f.ManagedPtrOffsets {
			ptrOffsets = append(ptrOffsets, offset+o)
		}
		offset += f.Size
	}
	size := align(offset, typeAlign)

	sort.Ints(ptrOffsets)
	return mdmodel.Layout{
		StackSize:             size,
		StackAlign:            typeAlign,
		ManagedSize:           size,
		ManagedAlign:          typeAlign,
		StackType:             mdmodel.StackTypeValueType,
		ManagedPointerOffsets: ptrOffsets,
	}
}

// ComputeExplicitLayout honors a ClassLayout metadata record's packing size
// and each field's declared offset, validating that no managed-pointer
// field overlaps a non-managed-pointer field (spec.md §4.3).
func ComputeExplicitLayout(fields []FieldLayoutInput, packingSize, classSize int) (mdmodel.Layout, error) {
	type span struct {
		start, end int
		managed    bool
	}
	var spans []span
	maxEnd := 0
	var ptrOffsets []int

	for i := range fields {
		f := &fields[i]
		f.Field.Offset = f.ExplicitOffset
		end := f.ExplicitOffset + f.Size
		if end > maxEnd {
			maxEnd = end
		}
		spans = append(spans, span{start: f.ExplicitOffset, end: end, managed: f.HasManagedPtrs})
		for _, o := range f.ManagedPtrOffsets {
			ptrOffsets = append(ptrOffsets, f.ExplicitOffset+o)
		}
	}

	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			if a.start >= b.end || b.start >= a.end {
				continue // disjoint
			}
			if a.managed != b.managed {
				return mdmodel.Layout{}, clrerr.Wrap(clrerr.CheckFailed,
					fmt.Errorf("layout: explicit field at [%d,%d) overlaps [%d,%d) across a managed/non-managed boundary", a.start, a.end, b.start, b.end))
			}
		}
	}

	size := classSize
	if size < maxEnd {
		size = maxEnd
	}
	if packingSize > 0 {
		size = align(size, packingSize)
	}

	sort.Ints(ptrOffsets)
	return mdmodel.Layout{
		StackSize:             size,
		StackAlign:            packingSize,
		ManagedSize:           size,
		ManagedAlign:          packingSize,
		StackType:             mdmodel.StackTypeValueType,
		ManagedPointerOffsets: ptrOffsets,
	}, nil
}

// ObjectHeaderSize is the size of the object header (a single vtable
// pointer) prefixing every reference-type instance, per spec.md §4.4.
const ObjectHeaderSize = PointerSize

// ComputeReferenceLayout lays out a reference type's instance fields after
// the object header, per spec.md §4.3: "the managed size is the header...
// plus the same auto-layout over instance fields; the stack size is one
// pointer; the stack type is STACK_TYPE_O."
func ComputeReferenceLayout(fields []FieldLayoutInput) mdmodel.Layout {
	body := ComputeAutoLayout(fields)
	offsetPtrs := make([]int, len(body.ManagedPointerOffsets))
	for i, o := range body.ManagedPointerOffsets {
		offsetPtrs[i] = o + ObjectHeaderSize
	}
	return mdmodel.Layout{
		StackSize:             PointerSize,
		StackAlign:            PointerSize,
		ManagedSize:           ObjectHeaderSize + body.ManagedSize,
		ManagedAlign:          max(body.ManagedAlign, PointerSize),
		StackType:             mdmodel.StackTypeObject,
		ManagedPointerOffsets: offsetPtrs,
	}
}

// ComputeArrayLayout gives an array type the fixed shape from spec.md
// §4.3: object-reference stack type and size, with GC-walked contents the
// layout model does not enumerate.
func ComputeArrayLayout() mdmodel.Layout {
	return mdmodel.Layout{
		StackSize:    PointerSize,
		StackAlign:   PointerSize,
		ManagedSize:  PointerSize,
		ManagedAlign: PointerSize,
		StackType:    mdmodel.StackTypeObject,
	}
}

// ComputeByRefLayout gives a by-ref type the fixed shape from spec.md
// §4.3: never nested, single-pointer stack entry, STACK_TYPE_REF.
func ComputeByRefLayout() mdmodel.Layout {
	return mdmodel.Layout{
		StackSize:  PointerSize,
		StackAlign: PointerSize,
		StackType:  mdmodel.StackTypeByRef,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
