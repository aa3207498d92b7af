package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/mdmodel"
)

// userStringSymbol computes the BSS symbol name for an interned user
// string, independently of internal/driver's identical private helper of
// the same name (driver owns DefineBSS for these symbols; internal/jit
// cannot import internal/driver, so ldstr must agree on the format without
// sharing the function).
func userStringSymbol(token uint32) string {
	return fmt.Sprintf("us:%#08x", token)
}

// ldstr implements `ldstr` (spec.md §4.7): pushes the address of the
// interned user-string data internal/driver.DeclareExterns already laid out
// as a BSS symbol before any method body was translated.
func (t *Translator) ldstr(f *frame, token uint32) error {
	addr := t.b.GlobalAddr(userStringSymbol(token))
	f.push(entry{Kind: mdmodel.StackTypeObject, Type: t.namer("String"), Reg: addr})
	return nil
}
