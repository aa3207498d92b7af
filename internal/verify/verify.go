// Package verify implements the pure type-relation functions of spec.md
// §4.5: the canonicalization chain (underlying/reduced/verification/
// intermediate type), array/pointer element compatibility, assignability,
// and accessibility. Every function here is grounded on the same shape the
// teacher stack uses for its own type-compatibility checks (a small closed
// kind enum walked by pure Type -> Type -> bool/Type functions), retargeted
// from Hindley-Milner unification to CLI's fixed nominal rules.
package verify

import "github.com/clrcore/clrcore/internal/mdmodel"

// UnderlyingType returns T's element type if T is an enum, else T itself.
func UnderlyingType(t *mdmodel.Type) *mdmodel.Type {
	if t != nil && t.Flags.Has(mdmodel.FlagEnum) && t.EnumUnderlying != nil {
		return t.EnumUnderlying
	}
	return t
}

// reducedPrimitiveName collapses an unsigned primitive name to its
// same-width signed counterpart, per spec.md §4.5's reduced-type rule.
func reducedPrimitiveName(name string) string {
	switch name {
	case "Byte":
		return "SByte"
	case "UInt16":
		return "Int16"
	case "UInt32":
		return "Int32"
	case "UInt64":
		return "Int64"
	case "UIntPtr":
		return "IntPtr"
	default:
		return name
	}
}

// ReducedType applies UnderlyingType, then collapses unsigned integrals to
// signed of the same width.
func ReducedType(t *mdmodel.Type, named func(name string) *mdmodel.Type) *mdmodel.Type {
	u := UnderlyingType(t)
	if u == nil {
		return u
	}
	reduced := reducedPrimitiveName(u.Name)
	if reduced == u.Name {
		return u
	}
	return named(reduced)
}

// verificationPrimitiveName applies spec.md §4.5's Boolean->SByte,
// Char->Int16 step on top of the reduced name.
func verificationPrimitiveName(name string) string {
	switch name {
	case "Boolean":
		return "SByte"
	case "Char":
		return "Int16"
	default:
		return name
	}
}

// VerificationType applies ReducedType, then Boolean->SByte, Char->Int16;
// byref(U) maps to byref(VerificationType(U)).
func VerificationType(t *mdmodel.Type, named func(string) *mdmodel.Type, byRefOf func(*mdmodel.Type) *mdmodel.Type) *mdmodel.Type {
	if t != nil && t.IsByRef() {
		return byRefOf(VerificationType(t.ElementType, named, byRefOf))
	}
	reduced := ReducedType(t, named)
	if reduced == nil {
		return reduced
	}
	v := verificationPrimitiveName(reduced.Name)
	if v == reduced.Name {
		return reduced
	}
	return named(v)
}

// intermediatePrimitiveName applies spec.md §4.5's small-int promotion:
// SByte->Int32, Int16->Int32.
func intermediatePrimitiveName(name string) string {
	switch name {
	case "SByte", "Int16":
		return "Int32"
	default:
		return name
	}
}

// IntermediateType applies VerificationType, then promotes small integers
// to Int32 for the evaluation stack (spec.md §4.7's stack-type promotion is
// this function applied at push time).
func IntermediateType(t *mdmodel.Type, named func(string) *mdmodel.Type, byRefOf func(*mdmodel.Type) *mdmodel.Type) *mdmodel.Type {
	v := VerificationType(t, named, byRefOf)
	if v == nil || v.IsByRef() {
		return v
	}
	p := intermediatePrimitiveName(v.Name)
	if p == v.Name {
		return v
	}
	return named(p)
}
