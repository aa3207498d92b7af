package verify

import "github.com/clrcore/clrcore/internal/mdmodel"

// TypeNamer resolves canonical primitive names to their shared Type
// instance; every caller of the functions in this package supplies the
// same implementation internal/loader uses to build its Factory (spec.md
// §4.1's Factory, reused here so "Int32" always means the one materialized
// Int32 type).
type TypeNamer func(name string) *mdmodel.Type

// ByRefMaker returns the unique T& derivative of a type (mdmodel.Type.ByRefOf
// wired through a concrete maker function).
type ByRefMaker func(*mdmodel.Type) *mdmodel.Type

// ArrayElementCompatibleWith implements spec.md §4.5: underlying-types are
// either CompatibleWith or have equal VerificationType.
func ArrayElementCompatibleWith(t, u *mdmodel.Type, named TypeNamer, byRefOf ByRefMaker) bool {
	ut, uu := UnderlyingType(t), UnderlyingType(u)
	if CompatibleWith(ut, uu) {
		return true
	}
	return VerificationType(ut, named, byRefOf) == VerificationType(uu, named, byRefOf)
}

// PointerElementCompatibleWith implements spec.md §4.5: equal
// VerificationType.
func PointerElementCompatibleWith(t, u *mdmodel.Type, named TypeNamer, byRefOf ByRefMaker) bool {
	return VerificationType(t, named, byRefOf) == VerificationType(u, named, byRefOf)
}

// CompatibleWith implements spec.md §4.5's compatible-with relation:
//
//	T == U; or T is a reference and U is T's direct base (Array for arrays,
//	Object for interfaces/objects, ValueType for value types), or U is an
//	interface directly implemented by T, or T's base chain reaches U; or
//	both are arrays with array-element-compatible elements; or both are
//	byref with pointer-element-compatible referents.
//
// Array/byref recursion needs the same TypeNamer/ByRefMaker the canonical
// forms use, so that recursion lives in CompatibleWithCanonical;
// CompatibleWith itself only decides the non-recursive cases plus base-chain
// walking, which never needs canonicalization.
func CompatibleWith(t, u *mdmodel.Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil {
		return false
	}

	if t.IsArray() && u.Name == "Array" && u.Namespace == "System" {
		return true
	}
	if !t.IsValueType() && !t.IsByRef() && u.Name == "Object" && u.Namespace == "System" {
		return true
	}
	if t.IsValueType() && u.Name == "ValueType" && u.Namespace == "System" {
		return true
	}

	for _, impl := range t.Interfaces {
		if impl.Interface == u {
			return true
		}
	}

	for p := t.Parent; p != nil; p = p.Parent {
		if p == u {
			return true
		}
	}

	if t.IsArray() && u.IsArray() {
		return t.ElementType == u.ElementType
	}
	if t.IsByRef() && u.IsByRef() {
		return t.ElementType == u.ElementType
	}

	return false
}

// CompatibleWithCanonical is CompatibleWith extended with the array/byref
// element-compatibility recursion that needs a TypeNamer/ByRefMaker
// (spec.md §4.5's last two compatible-with clauses).
func CompatibleWithCanonical(t, u *mdmodel.Type, named TypeNamer, byRefOf ByRefMaker) bool {
	if CompatibleWith(t, u) {
		return true
	}
	if t != nil && u != nil && t.IsArray() && u.IsArray() {
		return ArrayElementCompatibleWith(t.ElementType, u.ElementType, named, byRefOf)
	}
	if t != nil && u != nil && t.IsByRef() && u.IsByRef() {
		return PointerElementCompatibleWith(t.ElementType, u.ElementType, named, byRefOf)
	}
	return false
}

// AssignableTo implements spec.md §4.5: T == U; or intermediate-types
// equal; or CompatibleWith; or T is null and U is an object reference.
// isNull lets callers signal a verifier-tracked `ldnull` stack entry, which
// mdmodel has no dedicated Type for.
func AssignableTo(t, u *mdmodel.Type, isNull bool, named TypeNamer, byRefOf ByRefMaker) bool {
	if t == u {
		return true
	}
	if IntermediateType(t, named, byRefOf) == IntermediateType(u, named, byRefOf) {
		return true
	}
	if CompatibleWithCanonical(t, u, named, byRefOf) {
		return true
	}
	if isNull && u != nil && !u.IsValueType() && !u.IsByRef() {
		return true
	}
	return false
}

// VerifierAssignableTo implements spec.md §4.5:
// assignable-to(verification-type(T), verification-type(U)).
func VerifierAssignableTo(t, u *mdmodel.Type, isNull bool, named TypeNamer, byRefOf ByRefMaker) bool {
	vt := VerificationType(t, named, byRefOf)
	vu := VerificationType(u, named, byRefOf)
	return AssignableTo(vt, vu, isNull, named, byRefOf)
}
