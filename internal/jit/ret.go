package jit

import (
	"github.com/clrcore/clrcore/internal/mir"
)

// ret implements the `ret` opcode's happy-path epilogue: spec.md §4.7's
// two-slot (exception, value) calling convention returns a nil/zero
// exception register alongside the popped return value (or writes a large
// value type through the hidden return-block pointer instead).
func (t *Translator) ret(f *frame) error {
	nilExc := t.b.Const(mir.Ptr, 0)
	if t.retVoid {
		t.b.Ret(nilExc)
		t.blockOpen = false
		return nil
	}
	e, err := f.pop()
	if err != nil {
		return err
	}
	if t.retLarge {
		t.copyValue(t.retBlockPtr, e.Reg, t.retType)
		t.b.Ret(nilExc)
		t.blockOpen = false
		return nil
	}
	t.b.Ret(nilExc, e.Reg)
	t.blockOpen = false
	return nil
}
