package jit

import (
	"fmt"
	"sort"

	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

// enclosingClauses returns every exception-handling clause whose try region
// contains offset, innermost first. Nesting is derived from try-region
// containment/length rather than metadata row order, since spec.md's
// MethodBody does not otherwise record explicit nesting depth.
func (t *Translator) enclosingClauses(offset int) []mdmodel.ExceptionHandlingClause {
	var out []mdmodel.ExceptionHandlingClause
	for _, c := range t.body.ExceptionClauses {
		if c.Contains(offset) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TryLength < out[j].TryLength })
	return out
}

// raiseHandlerSearch implements spec.md §4.8's exception-handler search
// starting from the clause enclosing t.curOffset: each enclosing Finally/
// Fault clause's body always runs on the way out; each enclosing Catch
// clause's CatchType is tested with an isinst-shaped check, and control
// transfers into the first one that matches. If nothing matches, the
// function returns with the exception register set and the return slot
// zeroed (spec.md §4.8).
func (t *Translator) raiseHandlerSearch(excReg mir.Value) error {
	clauses := t.enclosingClauses(t.curOffset)
	return t.searchFrom(clauses, 0, excReg)
}

func (t *Translator) searchFrom(clauses []mdmodel.ExceptionHandlingClause, idx int, excReg mir.Value) error {
	if idx >= len(clauses) {
		t.b.Ret(t.retResults(excReg)...)
		t.blockOpen = false
		return nil
	}
	c := clauses[idx]

	switch c.Kind {
	case mdmodel.ClauseFinally, mdmodel.ClauseFault:
		label, ok := t.handlerOnce[c.HandlerOffset]
		if !ok {
			label = t.freshLabel("unwind")
			t.handlerOnce[c.HandlerOffset] = label
			params := t.b.Block(label, mir.Ptr)
			inflightExc := params[0]
			savedOffset := t.curOffset
			if err := t.translateRegionNoOpen(c.HandlerOffset, c.HandlerOffset+c.HandlerLength, label, nil, nil, func() error {
				return t.searchFrom(clauses, idx+1, inflightExc)
			}); err != nil {
				return err
			}
			t.curOffset = savedOffset
		}
		t.b.Br(label, excReg)
		t.blockOpen = false
		return nil

	case mdmodel.ClauseCatch:
		label, ok := t.handlerOnce[c.HandlerOffset]
		nextLabel := t.freshLabel("nomatch")
		_, matchedExc := t.b.Call(externIsInstance, mir.Ptr, excReg, t.typeIDConst(c.CatchType))
		isNull := t.b.BinOp(mir.OpCmpEq, mir.I32, matchedExc, t.b.Const(mir.Ptr, 0))

		if !ok {
			label = t.freshLabel("catch")
			t.handlerOnce[c.HandlerOffset] = label
			t.b.CondBr(isNull, nextLabel, nil, label, []mir.Value{matchedExc})
			t.blockOpen = false

			params := t.b.Block(label, mir.Ptr)
			t.catchExcStack = append(t.catchExcStack, params[0])
			init := []entry{{Kind: mdmodel.StackTypeObject, Type: c.CatchType, Reg: params[0]}}
			if err := t.translateRegion(c.HandlerOffset, c.HandlerOffset+c.HandlerLength, label, init, nil); err != nil {
				return err
			}
			t.catchExcStack = t.catchExcStack[:len(t.catchExcStack)-1]
		} else {
			t.b.CondBr(isNull, nextLabel, nil, label, []mir.Value{matchedExc})
			t.blockOpen = false
		}

		t.b.Block(nextLabel)
		t.curLabel = nextLabel
		t.blockOpen = true
		return t.searchFrom(clauses, idx+1, excReg)

	default:
		return fmt.Errorf("%w: unsupported clause kind in handler search", ErrVerification)
	}
}

// translateRegionNoOpen is translateRegion's sibling for a handler body
// reached only via exceptional unwind (never via a normal leave): its
// "endfinally"/fall-off destination calls onExit rather than branching to a
// statically known label, since the handler search may need to continue
// past this clause dynamically-but-once per translation.
func (t *Translator) translateRegionNoOpen(start, end int, label string, initialFrame []entry, finallyExit *exitTarget, onExit func() error) error {
	// A fault/finally body ends in `endfinally`; route it through a
	// synthetic continuation label so execEndFinally's normal branch
	// mechanism can still be used uniformly.
	contLabel := t.freshLabel("unwind_cont")
	if err := t.translateRegion(start, end, label, initialFrame, &exitTarget{label: contLabel}); err != nil {
		return err
	}
	t.b.Block(contLabel)
	t.curLabel = contLabel
	t.blockOpen = true
	return onExit()
}

func (t *Translator) execThrow(f *frame) error {
	e, err := f.pop()
	if err != nil {
		return err
	}
	return t.raiseHandlerSearch(e.Reg)
}

func (t *Translator) execRethrow(f *frame) error {
	if len(t.catchExcStack) == 0 {
		return fmt.Errorf("%w: rethrow outside a catch handler", ErrVerification)
	}
	exc := t.catchExcStack[len(t.catchExcStack)-1]
	return t.raiseHandlerSearch(exc)
}

// execEndFinally branches to the exit target established when this region
// was entered as a finally/fault handler body (spec.md §4.7/§4.8). Any
// other context is a verification error: CIL never emits `endfinally`
// outside a finally or fault handler.
func (t *Translator) execEndFinally(f *frame) error {
	if t.finallyExit == nil {
		return fmt.Errorf("%w: endfinally outside a finally/fault handler", ErrVerification)
	}
	t.b.Br(t.finallyExit.label, t.finallyExit.args...)
	t.blockOpen = false
	return nil
}

// execLeave implements spec.md §4.7's "chained... the last jumps to
// target" rule: every enclosing finally/fault whose try region is actually
// exited by this leave runs, innermost first, before control reaches
// targetOffset. `leave` requires an empty stack at the instruction (ECMA-
// 335 III.3.64), matching MIR's own each-finally-entered-with-no-params
// convention.
func (t *Translator) execLeave(f *frame, fromOffset, targetOffset int) error {
	var traversed []mdmodel.ExceptionHandlingClause
	for _, c := range t.body.ExceptionClauses {
		if (c.Kind == mdmodel.ClauseFinally || c.Kind == mdmodel.ClauseFault) && c.Contains(fromOffset) && !c.Contains(targetOffset) {
			traversed = append(traversed, c)
		}
	}
	sort.SliceStable(traversed, func(i, j int) bool { return traversed[i].TryLength < traversed[j].TryLength })

	destLabel, destArgs, err := t.ensureMergeBlock(targetOffset, nil)
	if err != nil {
		return err
	}

	nextLabel := destLabel
	nextArgs := destArgs
	for i := len(traversed) - 1; i >= 0; i-- {
		c := traversed[i]
		key := finallyCloneKey{handlerOffset: c.HandlerOffset, exitLabel: nextLabel}
		label, ok := t.finallyLeaveClones[key]
		if !ok {
			label = t.freshLabel("finally_leave")
			t.finallyLeaveClones[key] = label
			savedOffset := t.curOffset
			if err := t.translateRegion(c.HandlerOffset, c.HandlerOffset+c.HandlerLength, label, nil, &exitTarget{label: nextLabel, args: nextArgs}); err != nil {
				return err
			}
			t.curOffset = savedOffset
		}
		nextLabel = label
		nextArgs = nil
	}

	t.b.Br(nextLabel, nextArgs...)
	t.blockOpen = false
	return nil
}
