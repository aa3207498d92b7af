package mdmodel

import "testing"

func TestArenaHandlesAreStable(t *testing.T) {
	a := NewArena()

	object := &Type{Name: "Object"}
	objectH := a.NewType(object)

	vector := &Type{Name: "Vector", Flags: FlagValueType}
	vectorH := a.NewType(vector)

	if objectH == vectorH {
		t.Fatalf("distinct types got the same handle: %d", objectH)
	}
	if a.Type(objectH) != object {
		t.Errorf("Type(%d) = %v, want %v", objectH, a.Type(objectH), object)
	}
	if a.Type(vectorH) != vector {
		t.Errorf("Type(%d) = %v, want %v", vectorH, a.Type(vectorH), vector)
	}
	if a.Type(0) != nil {
		t.Errorf("Type(0) should be the reserved nil slot")
	}
}

func TestTypeFilledGatesLayout(t *testing.T) {
	typ := &Type{Name: "Point", Flags: FlagValueType}
	if typ.IsFilled() {
		t.Fatalf("freshly-constructed type must not be filled")
	}

	typ.SetLayout(Layout{StackSize: 8, ManagedSize: 8, StackType: StackTypeValueType})
	if !typ.IsFilled() {
		t.Fatalf("SetLayout must flip IsFilled to true")
	}
	if got := typ.Layout().ManagedSize; got != 8 {
		t.Errorf("ManagedSize = %d, want 8", got)
	}
}

func TestArrayOfIsUniquePerElementType(t *testing.T) {
	elem := &Type{Name: "Int32", Flags: FlagValueType}
	make := func(e *Type) *Type {
		return &Type{Name: e.Name + "[]", Flags: FlagArray, ElementType: e}
	}

	first := elem.ArrayOf(make)
	second := elem.ArrayOf(make)
	if first != second {
		t.Fatalf("ArrayOf must return the same instance on repeated calls")
	}
}

func TestInstantiateReusesExistingInstantiation(t *testing.T) {
	def := &Type{Name: "List`1", Flags: FlagGenericDefinition}
	intType := &Type{Name: "Int32", Flags: FlagValueType}
	strType := &Type{Name: "String"}

	makeFn := func(d *Type, args []*Type) *Type {
		return &Type{Name: d.Name, GenericDefinition: d, GenericArgs: args}
	}

	listOfInt := def.Instantiate([]*Type{intType}, makeFn)
	listOfIntAgain := def.Instantiate([]*Type{intType}, makeFn)
	listOfStr := def.Instantiate([]*Type{strType}, makeFn)

	if listOfInt != listOfIntAgain {
		t.Errorf("Instantiate with the same args must return the cached instance")
	}
	if listOfInt == listOfStr {
		t.Errorf("Instantiate with different args must not reuse the cache")
	}
}
