package jit

import (
	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/mir"
)

// branchTo terminates the current block with an unconditional branch to
// targetOffset, reconciling the live frame against that offset's merge
// point per spec.md §4.7.
func (t *Translator) branchTo(f *frame, targetOffset int) error {
	label, args, err := t.ensureMergeBlock(targetOffset, f.clone())
	if err != nil {
		return err
	}
	t.b.Br(label, args...)
	t.blockOpen = false
	return nil
}

func (t *Translator) brUnconditional(f *frame, target int) error {
	return t.branchTo(f, target)
}

// brBool implements brtrue/brfalse: pop one value, branch on whether it is
// the kind's zero/null value.
func (t *Translator) brBool(f *frame, target, fallthroughOffset int, wantTrue bool) error {
	e, err := f.pop()
	if err != nil {
		return err
	}
	zero := t.b.Const(e.mirType(), 0)
	cond := t.b.BinOp(mir.OpCmpNe, mir.I32, e.Reg, zero)
	if !wantTrue {
		cond = t.b.BinOp(mir.OpCmpEq, mir.I32, e.Reg, zero)
	}
	return t.condBranch(f, cond, target, fallthroughOffset)
}

// brCompare implements the two-operand comparison branches (beq/bge/bgt/
// ble/blt and their .un variants, plus bne.un).
func (t *Translator) brCompare(f *frame, target, fallthroughOffset int, op mir.Op) error {
	rhs, err := f.pop()
	if err != nil {
		return err
	}
	lhs, err := f.pop()
	if err != nil {
		return err
	}
	cond := t.b.BinOp(op, mir.I32, lhs.Reg, rhs.Reg)
	return t.condBranch(f, cond, target, fallthroughOffset)
}

// condBranch emits the merge-block reconciliation for both arms of a
// two-way conditional branch: the fallthrough arm lands at fallthroughOffset
// (registered as its own merge point so later backward branches to it, if
// any, and the unconditional pass-through both go through the same
// mechanism as an explicit branch target).
func (t *Translator) condBranch(f *frame, cond mir.Value, target, fallthroughOffset int) error {
	trueLabel, trueArgs, err := t.ensureMergeBlock(target, f.clone())
	if err != nil {
		return err
	}
	falseLabel, falseArgs, err := t.ensureMergeBlock(fallthroughOffset, f.clone())
	if err != nil {
		return err
	}
	t.b.CondBr(cond, trueLabel, trueArgs, falseLabel, falseArgs)
	t.blockOpen = false
	return nil
}

// brSwitch implements the `switch` opcode: an N-way branch on an Int32
// index, falling through to the instruction after the switch table when
// the index is out of range (ECMA-335 III.3.67). MIR has no N-way
// terminator, so this lowers to a cascade of equality checks, each its own
// block -- a straightforward, non-optimizing expansion consistent with
// this translator's single-pass, non-optimizing character.
func (t *Translator) brSwitch(f *frame, inst cil.Instruction, next int) error {
	idxEntry, err := f.pop()
	if err != nil {
		return err
	}
	idx := idxEntry.Reg
	saved := f.clone()

	for i, rel := range inst.SwitchTargets {
		target := inst.Offset + inst.Len + int(rel)
		checkFrame := &frame{entries: append([]entry(nil), saved...)}
		cond := t.b.BinOp(mir.OpCmpEq, mir.I32, idx, t.b.Const(mir.I32, int64(i)))
		targetLabel, targetArgs, err := t.ensureMergeBlock(target, checkFrame.clone())
		if err != nil {
			return err
		}
		var contLabel string
		var contArgs []mir.Value
		if i == len(inst.SwitchTargets)-1 {
			contLabel, contArgs, err = t.ensureMergeBlock(next, checkFrame.clone())
			if err != nil {
				return err
			}
		} else {
			contLabel = t.freshLabel("switch")
		}
		t.b.CondBr(cond, targetLabel, targetArgs, contLabel, contArgs)
		t.blockOpen = false
		if i != len(inst.SwitchTargets)-1 {
			t.b.Block(contLabel)
			t.curLabel = contLabel
			t.blockOpen = true
		}
	}
	if len(inst.SwitchTargets) == 0 {
		return t.branchTo(f, next)
	}
	return nil
}
