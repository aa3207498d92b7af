package layout

// FatPointer is the two-word representation of an interface-typed value
// from spec.md §4.4: "the address of the interface's vtable sub-range
// within the implementer's vtable; second, the underlying object
// pointer." internal/jit does not use this type: an interface-typed value
// on its evaluation stack is a single pointer register, and loads and
// stores of it move one word, not two.
type FatPointer struct {
	VTableSlice uintptr // address of the interface's K-slot run
	Object      uintptr // the underlying object pointer
}

// InterfaceVTableSlice computes the address of interface I's slot run
// within object's vtable, given the object's vtable base address and the
// byte offset of I's run (mdmodel.InterfaceImpl.Offset, converted to a byte
// offset via SlotOffset(offset, 0)).
func InterfaceVTableSlice(vtableBase uintptr, interfaceOffset int) uintptr {
	return vtableBase + uintptr(SlotOffset(interfaceOffset, 0))
}
