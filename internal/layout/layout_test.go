package layout

import (
	"testing"

	"github.com/clrcore/clrcore/internal/mdmodel"
)

func TestComputeAutoLayoutAligns(t *testing.T) {
	// struct { byte b; int32 i; } -> b@0, pad, i@4, total size 8.
	b := &mdmodel.FieldInfo{Name: "b"}
	i := &mdmodel.FieldInfo{Name: "i"}
	fields := []FieldLayoutInput{
		{Field: b, Size: 1, Align: 1},
		{Field: i, Size: 4, Align: 4},
	}

	l := ComputeAutoLayout(fields)
	if b.Offset != 0 {
		t.Errorf("b.Offset = %d, want 0", b.Offset)
	}
	if i.Offset != 4 {
		t.Errorf("i.Offset = %d, want 4", i.Offset)
	}
	if l.ManagedSize != 8 {
		t.Errorf("ManagedSize = %d, want 8", l.ManagedSize)
	}
}

func TestComputeExplicitLayoutRejectsManagedOverlap(t *testing.T) {
	obj := &mdmodel.FieldInfo{Name: "o"}
	num := &mdmodel.FieldInfo{Name: "n"}
	fields := []FieldLayoutInput{
		{Field: obj, Size: 8, ExplicitOffset: 0, HasManagedPtrs: true, ManagedPtrOffsets: []int{0}},
		{Field: num, Size: 8, ExplicitOffset: 4}, // overlaps obj's [0,8)
	}

	_, err := ComputeExplicitLayout(fields, 0, 16)
	if err == nil {
		t.Fatalf("expected an overlap error, got nil")
	}
}

func TestComputeExplicitLayoutAcceptsDisjointFields(t *testing.T) {
	a := &mdmodel.FieldInfo{}
	bField := &mdmodel.FieldInfo{}
	fields := []FieldLayoutInput{
		{Field: a, Size: 4, ExplicitOffset: 0},
		{Field: bField, Size: 4, ExplicitOffset: 4},
	}
	l, err := ComputeExplicitLayout(fields, 0, 8)
	if err != nil {
		t.Fatalf("ComputeExplicitLayout: %v", err)
	}
	if l.ManagedSize != 8 {
		t.Errorf("ManagedSize = %d, want 8", l.ManagedSize)
	}
}

func TestVTableBuilderOverrideReplacesInheritedSlot(t *testing.T) {
	base := &mdmodel.MethodInfo{Name: "ToString"}
	b := NewVTableBuilder([]*mdmodel.MethodInfo{base})

	override := &mdmodel.MethodInfo{Name: "ToString"}
	sameSig := func(a, c *mdmodel.MethodInfo) bool { return true }
	slot := b.Override(override, sameSig)
	if slot != 0 {
		t.Fatalf("expected override to land in inherited slot 0, got %d", slot)
	}
	if b.Slots()[0] != override {
		t.Errorf("slot 0 was not replaced by the override")
	}
}

func TestVTableBuilderReservesContiguousInterfaceRun(t *testing.T) {
	b := NewVTableBuilder(nil)
	offset := b.ReserveInterface(3)
	if offset != 0 {
		t.Fatalf("first interface run should start at 0, got %d", offset)
	}
	m := &mdmodel.MethodInfo{Name: "Move"}
	b.Fill(offset, 1, m)
	if b.Slots()[1] != m {
		t.Errorf("Fill(offset,1,...) did not land at absolute slot 1")
	}
}

func TestSlotOffsetMatchesProperty8(t *testing.T) {
	// header + (interface_offset + method_vtable_offset) * pointer_size
	got := SlotOffset(2, 3)
	want := ObjectHeaderSize + (2+3)*PointerSize
	if got != want {
		t.Errorf("SlotOffset(2,3) = %d, want %d", got, want)
	}
}
