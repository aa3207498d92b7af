package verify

import "github.com/clrcore/clrcore/internal/mdmodel"

// TypeVisible implements spec.md §4.5: "public -> yes; not-public -> same
// assembly. Nested variants mirror the field/method rules with respect to
// the declaring type."
func TypeVisible(d, from *mdmodel.Type) bool {
	switch d.Visibility {
	case mdmodel.VisibilityPublic:
		return true
	case mdmodel.VisibilityNotPublic:
		return sameAssembly(d, from)
	case mdmodel.VisibilityNestedPublic:
		return TypeVisible(d.DeclaringType, from)
	case mdmodel.VisibilityNestedPrivate:
		return d.DeclaringType == from
	case mdmodel.VisibilityNestedFamily:
		return isOrSubclassOf(from, d.DeclaringType)
	case mdmodel.VisibilityNestedAssembly:
		return sameAssembly(d.DeclaringType, from) && TypeVisible(d.DeclaringType, from)
	case mdmodel.VisibilityNestedFamANDAssem:
		return sameAssembly(d.DeclaringType, from) && isOrSubclassOf(from, d.DeclaringType)
	case mdmodel.VisibilityNestedFamORAssem:
		return sameAssembly(d.DeclaringType, from) || isOrSubclassOf(from, d.DeclaringType)
	default:
		return false
	}
}

func sameAssembly(a, b *mdmodel.Type) bool {
	if a == nil || b == nil {
		return false
	}
	return a.DeclaringAssembly == b.DeclaringAssembly
}

func isOrSubclassOf(t, base *mdmodel.Type) bool {
	if t == base {
		return true
	}
	for p := t; p != nil; p = p.Parent {
		if p == base {
			return true
		}
	}
	return false
}

// FieldAccessible implements spec.md §4.5's field-access rule: visibility
// of the declaring type first, then the access-kind check.
func FieldAccessible(field *mdmodel.FieldInfo, from *mdmodel.Type) bool {
	d := field.DeclaringType
	if !TypeVisible(d, from) {
		return false
	}
	return accessKindAllows(fieldAccessKind(field.Attr.AccessOf()), d, from)
}

// MethodAccessible implements spec.md §4.5's method-access rule, identical
// in shape to FieldAccessible.
func MethodAccessible(m *mdmodel.MethodInfo, from *mdmodel.Type) bool {
	d := m.DeclaringType
	if !TypeVisible(d, from) {
		return false
	}
	return accessKindAllows(methodAccessKind(m.Attr.AccessOf()), d, from)
}

type accessKind int

const (
	accessPrivate accessKind = iota
	accessFamily
	accessAssembly
	accessFamANDAssem
	accessFamORAssem
	accessPublic
)

func fieldAccessKind(a mdmodel.FieldAttr) accessKind {
	switch {
	case a&mdmodel.FieldPrivate != 0:
		return accessPrivate
	case a&mdmodel.FieldFamily != 0:
		return accessFamily
	case a&mdmodel.FieldAssembly != 0:
		return accessAssembly
	case a&mdmodel.FieldFamANDAssem != 0:
		return accessFamANDAssem
	case a&mdmodel.FieldFamORAssem != 0:
		return accessFamORAssem
	default:
		return accessPublic
	}
}

func methodAccessKind(a mdmodel.MethodAttr) accessKind {
	switch {
	case a&mdmodel.MethodPrivate != 0:
		return accessPrivate
	case a&mdmodel.MethodFamily != 0:
		return accessFamily
	case a&mdmodel.MethodAssembly != 0:
		return accessAssembly
	case a&mdmodel.MethodFamANDAssem != 0:
		return accessFamANDAssem
	case a&mdmodel.MethodFamORAssem != 0:
		return accessFamORAssem
	default:
		return accessPublic
	}
}

// accessKindAllows implements spec.md §4.5's five access-kind checks:
// "private -> F==D; family -> F is D or a subclass; assembly -> same
// assembly; familyAndAssembly -> both; familyOrAssembly -> either;
// public -> yes."
func accessKindAllows(kind accessKind, d, from *mdmodel.Type) bool {
	switch kind {
	case accessPrivate:
		return from == d
	case accessFamily:
		return isOrSubclassOf(from, d)
	case accessAssembly:
		return sameAssembly(d, from)
	case accessFamANDAssem:
		return isOrSubclassOf(from, d) && sameAssembly(d, from)
	case accessFamORAssem:
		return isOrSubclassOf(from, d) || sameAssembly(d, from)
	case accessPublic:
		return true
	default:
		return false
	}
}
