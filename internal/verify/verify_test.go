package verify

import "testing"

import "github.com/clrcore/clrcore/internal/mdmodel"

func namerFor(types map[string]*mdmodel.Type) TypeNamer {
	return func(name string) *mdmodel.Type {
		if t, ok := types[name]; ok {
			return t
		}
		t := &mdmodel.Type{Name: name, Flags: mdmodel.FlagValueType}
		types[name] = t
		return t
	}
}

func byRefMaker(cache map[*mdmodel.Type]*mdmodel.Type) ByRefMaker {
	return func(t *mdmodel.Type) *mdmodel.Type {
		if r, ok := cache[t]; ok {
			return r
		}
		r := &mdmodel.Type{Name: t.Name + "&", Flags: mdmodel.FlagByRef, ElementType: t}
		cache[t] = r
		return r
	}
}

func TestVerificationTypeCollapsesUnsignedAndSmallInts(t *testing.T) {
	types := map[string]*mdmodel.Type{}
	named := namerFor(types)
	byRefOf := byRefMaker(map[*mdmodel.Type]*mdmodel.Type{})

	byteT := named("Byte")
	want := named("SByte")
	if got := VerificationType(byteT, named, byRefOf); got != want {
		t.Errorf("VerificationType(Byte) = %v, want SByte", got)
	}

	boolT := named("Boolean")
	wantBool := named("SByte")
	if got := VerificationType(boolT, named, byRefOf); got != wantBool {
		t.Errorf("VerificationType(Boolean) = %v, want SByte", got)
	}

	charT := named("Char")
	wantChar := named("Int16")
	if got := VerificationType(charT, named, byRefOf); got != wantChar {
		t.Errorf("VerificationType(Char) = %v, want Int16", got)
	}
}

func TestIntermediateTypePromotesSmallInts(t *testing.T) {
	types := map[string]*mdmodel.Type{}
	named := namerFor(types)
	byRefOf := byRefMaker(map[*mdmodel.Type]*mdmodel.Type{})

	sbyte := named("SByte")
	want := named("Int32")
	if got := IntermediateType(sbyte, named, byRefOf); got != want {
		t.Errorf("IntermediateType(SByte) = %v, want Int32", got)
	}
}

// TestVerifierAssignableToIsReflexiveAndTransitive covers spec.md §8
// property 1 over a small fixed type universe.
func TestVerifierAssignableToIsReflexiveAndTransitive(t *testing.T) {
	types := map[string]*mdmodel.Type{}
	named := namerFor(types)
	byRefOf := byRefMaker(map[*mdmodel.Type]*mdmodel.Type{})

	object := &mdmodel.Type{Namespace: "System", Name: "Object"}
	animal := &mdmodel.Type{Name: "Animal", Parent: object}
	dog := &mdmodel.Type{Name: "Dog", Parent: animal}

	universe := []*mdmodel.Type{object, animal, dog, named("Int32")}

	for _, ty := range universe {
		if !VerifierAssignableTo(ty, ty, false, named, byRefOf) {
			t.Errorf("VerifierAssignableTo(%v, %v) should be reflexive", ty, ty)
		}
	}

	if !VerifierAssignableTo(dog, animal, false, named, byRefOf) {
		t.Fatalf("Dog should be assignable to Animal")
	}
	if !VerifierAssignableTo(animal, object, false, named, byRefOf) {
		t.Fatalf("Animal should be assignable to Object")
	}
	if !VerifierAssignableTo(dog, object, false, named, byRefOf) {
		t.Errorf("transitivity: Dog assignable to Animal and Animal to Object should imply Dog assignable to Object")
	}
}

func TestFieldAccessiblePrivateRequiresSameType(t *testing.T) {
	declaring := &mdmodel.Type{Name: "Account", Visibility: mdmodel.VisibilityPublic}
	other := &mdmodel.Type{Name: "Other", Visibility: mdmodel.VisibilityPublic}
	field := &mdmodel.FieldInfo{DeclaringType: declaring, Attr: mdmodel.FieldPrivate}

	if FieldAccessible(field, other) {
		t.Errorf("private field should not be accessible from an unrelated type")
	}
	if !FieldAccessible(field, declaring) {
		t.Errorf("private field should be accessible from its own declaring type")
	}
}

func TestFieldAccessibleFamilyAllowsSubclass(t *testing.T) {
	declaring := &mdmodel.Type{Name: "Base", Visibility: mdmodel.VisibilityPublic}
	derived := &mdmodel.Type{Name: "Derived", Visibility: mdmodel.VisibilityPublic, Parent: declaring}
	field := &mdmodel.FieldInfo{DeclaringType: declaring, Attr: mdmodel.FieldFamily}

	if !FieldAccessible(field, derived) {
		t.Errorf("family field should be accessible from a subclass")
	}
}
