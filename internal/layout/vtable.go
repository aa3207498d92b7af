package layout

import "github.com/clrcore/clrcore/internal/mdmodel"

// VTableBuilder assigns vtable slots for a type, per spec.md §4.4: "Slot
// [0..N) contains virtual methods of the type itself and its ancestors... For
// each implemented interface I of size K, a run of K slots is reserved...
// filled with the methods that implement I on T."
type VTableBuilder struct {
	slots []*mdmodel.MethodInfo
}

// NewVTableBuilder seeds the builder with the parent's already-assigned
// virtual slots (in inheritance order), ready to have overrides applied and
// new virtuals/interface runs appended.
func NewVTableBuilder(parentVirtuals []*mdmodel.MethodInfo) *VTableBuilder {
	b := &VTableBuilder{slots: append([]*mdmodel.MethodInfo(nil), parentVirtuals...)}
	return b
}

// Override replaces the inherited slot implementing the same name+signature
// as m, or appends m as a new virtual slot if nothing inherited matches.
// sameSignature is supplied by the caller (internal/loader) because slot
// matching needs the verifier's signature-compatibility notion.
func (b *VTableBuilder) Override(m *mdmodel.MethodInfo, sameSignature func(a, b *mdmodel.MethodInfo) bool) int {
	for i, existing := range b.slots {
		if existing != nil && existing.Name == m.Name && sameSignature(existing, m) {
			b.slots[i] = m
			return i
		}
	}
	b.slots = append(b.slots, m)
	return len(b.slots) - 1
}

// ReserveInterface appends a K-slot run for an implemented interface and
// returns the offset at which it begins, implementing "a per-interface
// offset" from spec.md §4.4.
func (b *VTableBuilder) ReserveInterface(size int) int {
	offset := len(b.slots)
	for i := 0; i < size; i++ {
		b.slots = append(b.slots, nil)
	}
	return offset
}

// Fill sets the method implementing slot offset+k.
func (b *VTableBuilder) Fill(offset, k int, m *mdmodel.MethodInfo) {
	b.slots[offset+k] = m
}

// Slots returns the finished virtual-method slot list, suitable for
// mdmodel.Layout.VTable after resolving each MethodInfo to its JITted
// function address (internal/driver does that resolution at publish time).
func (b *VTableBuilder) Slots() []*mdmodel.MethodInfo {
	return b.slots
}

// SlotOffset computes the byte offset of vtable slot index within the
// function-pointer array that follows the object-vtable header's type
// pointer, per spec.md §4.4 / §8 property 8:
// "header + (interface_offset + method_vtable_offset) × pointer_size".
func SlotOffset(interfaceOffset, methodVTableOffset int) int {
	return ObjectHeaderSize + (interfaceOffset+methodVTableOffset)*PointerSize
}
