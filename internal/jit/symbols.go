package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/mdmodel"
)

// MethodSymbol computes the MIR function symbol name for m, shared between
// the translator (as the callee of a call/callvirt/newobj) and
// internal/driver (as the name it hands to mir.Module.NewFunction). One
// name per declaring-type+name+arity keeps overloads distinct without a
// full mangled signature.
func MethodSymbol(m *mdmodel.MethodInfo) string {
	return fmt.Sprintf("%s::%s/%d", m.DeclaringType.String(), m.Name, len(m.Params))
}

// FieldSymbol computes the BSS/extern-data symbol name for a static field,
// per mdmodel.FieldInfo's doc comment: static fields are "keyed by field
// identity in a separate static-storage table (internal/jit,
// internal/driver)" rather than by an instance offset.
func FieldSymbol(f *mdmodel.FieldInfo) string {
	return fmt.Sprintf("%s::%s", f.DeclaringType.String(), f.Name)
}
