package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/cil"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
)

// translateRegion linearly decodes CIL in [start,end) and translates each
// instruction, starting at entryLabel with initialFrame already on the
// abstract stack. finallyExit, when non-nil, is where `endfinally` inside
// this region branches (spec.md §4.7) -- set only when this region is a
// finally/fault handler body; elsewhere an `endfinally` is a verification
// error. translateRegion is called once for the whole method body and
// again, independently, for every catch/finally/fault handler body and
// every leave-triggered finally clone (spec.md §4.7-4.8).
func (t *Translator) translateRegion(start, end int, entryLabel string, initialFrame []entry, finallyExit *exitTarget) error {
	t.b.Block(entryLabel)
	t.curLabel = entryLabel
	t.blockOpen = true

	prevExit := t.finallyExit
	t.finallyExit = finallyExit
	defer func() { t.finallyExit = prevExit }()

	f := &frame{entries: append([]entry(nil), initialFrame...)}

	offset := start
	for offset < end {
		if mp, ok := t.merges[offset]; ok {
			if !t.blockOpen {
				// Dead code leading into a known merge point: control only
				// reaches mp.label through edges already wired elsewhere: no
				// branch to emit from here, no reconciliation against this
				// unreachable frame's stale stack shape.
				t.b.Block(mp.label)
				t.curLabel = mp.label
				f = &frame{entries: paramFrame(mp)}
				t.blockOpen = true
			} else if t.curLabel != mp.label {
				label, args, err := t.ensureMergeBlock(offset, f.clone())
				if err != nil {
					return err
				}
				t.b.Br(label, args...)
				t.b.Block(label)
				t.curLabel = label
				f = &frame{entries: paramFrame(mp)}
			}
			t.markTranslated(offset)
		}

		inst, next, err := t.dec.Next(t.body.CIL, offset)
		if err != nil {
			return err
		}

		if !t.blockOpen {
			// Dead code after an unconditional terminator with no known
			// merge point reaching it: skip translation, just advance.
			offset = next
			continue
		}

		t.curOffset = offset
		if err := t.step(inst, f, next); err != nil {
			return fmt.Errorf("jit: offset %#x (%s): %w", offset, inst.Info.Mnemonic, err)
		}
		offset = next
	}
	return nil
}

// paramFrame rebinds a merge point's canonical stack-entry metadata to the
// live block-parameter registers, used both when a forward branch lands
// here and when the translator falls through into an already-registered
// merge point from the instruction immediately before it.
func paramFrame(mp *mergePoint) []entry {
	out := make([]entry, len(mp.entries))
	params := mp.params
	for i, e := range mp.entries {
		out[i] = e
		if i < len(params) {
			out[i].Reg = params[i]
		}
	}
	return out
}

// step translates one decoded instruction against the live frame f,
// dispatching to the category file that owns its opcode group. next is the
// CIL offset immediately following this instruction, needed by branch/leave
// opcodes (the merge target for fallthrough) and for multi-byte operand
// bookkeeping nowhere else records.
func (t *Translator) step(inst cil.Instruction, f *frame, next int) error {
	switch inst.Op {
	case cil.Nop, cil.Break:
		return nil

	case cil.Dup:
		e, err := f.pop()
		if err != nil {
			return err
		}
		f.push(e)
		f.push(e)
		return nil

	case cil.Pop:
		_, err := f.pop()
		return err

	case cil.LdNull:
		f.push(entry{Kind: mdmodel.StackTypeObject, IsNull: true})
		return nil

	case cil.LdcI4M1, cil.LdcI40, cil.LdcI41, cil.LdcI42, cil.LdcI43, cil.LdcI44, cil.LdcI45, cil.LdcI46, cil.LdcI47, cil.LdcI48:
		v := int64(inst.Op) - int64(cil.LdcI40)
		f.push(t.constI32(v))
		return nil
	case cil.LdcI4S, cil.LdcI4:
		f.push(t.constI32(inst.IntOperand))
		return nil
	case cil.LdcI8:
		f.push(t.constI64(inst.IntOperand))
		return nil
	case cil.LdcR4:
		f.push(t.constF32(inst.FloatOperand))
		return nil
	case cil.LdcR8:
		f.push(t.constF64(inst.FloatOperand))
		return nil

	case cil.LdArg0, cil.LdArg1, cil.LdArg2, cil.LdArg3:
		return t.ldarg(f, int(inst.Op-cil.LdArg0))
	case cil.LdArgS:
		return t.ldarg(f, int(inst.IntOperand))
	case cil.LdArgAS:
		return t.ldarga(f, int(inst.IntOperand))
	case cil.StArgS:
		return t.starg(f, int(inst.IntOperand))

	case cil.LdLoc0, cil.LdLoc1, cil.LdLoc2, cil.LdLoc3:
		return t.ldloc(f, int(inst.Op-cil.LdLoc0))
	case cil.LdLocS:
		return t.ldloc(f, int(inst.IntOperand))
	case cil.LdLocAS:
		return t.ldloca(f, int(inst.IntOperand))
	case cil.StLoc0, cil.StLoc1, cil.StLoc2, cil.StLoc3:
		return t.stloc(f, int(inst.Op-cil.StLoc0))
	case cil.StLocS:
		return t.stloc(f, int(inst.IntOperand))

	case cil.Add, cil.Sub, cil.Mul, cil.Div, cil.DivUn, cil.Rem, cil.RemUn,
		cil.And, cil.Or, cil.Xor, cil.Shl, cil.Shr, cil.ShrUn:
		return t.binOp(f, inst.Op)
	case cil.Neg:
		return t.unOpArith(f, mir.OpNeg)
	case cil.Not:
		return t.unOpArith(f, mir.OpNot)

	case cil.CEq:
		return t.cmpOp(f, mir.OpCmpEq)
	case cil.CGt:
		return t.cmpOp(f, mir.OpCmpGt)
	case cil.CGtUn:
		return t.cmpOp(f, mir.OpCmpGtUn)
	case cil.CLt:
		return t.cmpOp(f, mir.OpCmpLt)
	case cil.CLtUn:
		return t.cmpOp(f, mir.OpCmpLtUn)

	case cil.ConvI1, cil.ConvI2, cil.ConvI4, cil.ConvI8, cil.ConvR4, cil.ConvR8,
		cil.ConvU4, cil.ConvU8, cil.ConvU2, cil.ConvU1, cil.ConvI, cil.ConvU:
		return t.convert(f, inst.Op)

	case cil.BrS, cil.Br:
		return t.brUnconditional(f, inst.BranchTarget)
	case cil.BrFalseS, cil.BrFalse:
		return t.brBool(f, inst.BranchTarget, next, false)
	case cil.BrTrueS, cil.BrTrue:
		return t.brBool(f, inst.BranchTarget, next, true)
	case cil.BeqS, cil.Beq:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpEq)
	case cil.BgeS, cil.Bge:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpGe)
	case cil.BgtS, cil.Bgt:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpGt)
	case cil.BleS, cil.Ble:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpLe)
	case cil.BltS, cil.Blt:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpLt)
	case cil.BneUnS, cil.BneUn:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpNe)
	case cil.BgeUnS, cil.BgeUn:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpGeUn)
	case cil.BgtUnS, cil.BgtUn:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpGtUn)
	case cil.BleUnS, cil.BleUn:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpLeUn)
	case cil.BltUnS, cil.BltUn:
		return t.brCompare(f, inst.BranchTarget, next, mir.OpCmpLtUn)
	case cil.Switch:
		return t.brSwitch(f, inst, next)

	case cil.Ret:
		return t.ret(f)

	case cil.Call:
		return t.call(f, inst.Token, false)
	case cil.CallVirt:
		return t.call(f, inst.Token, true)
	case cil.NewObj:
		return t.newobj(f, inst.Token)

	case cil.LdFld:
		return t.ldfld(f, inst.Token, false)
	case cil.LdFldA:
		return t.ldfld(f, inst.Token, true)
	case cil.StFld:
		return t.stfld(f, inst.Token)
	case cil.LdSFld:
		return t.ldsfld(f, inst.Token, false)
	case cil.LdSFldA:
		return t.ldsfld(f, inst.Token, true)
	case cil.StSFld:
		return t.stsfld(f, inst.Token)

	case cil.Box:
		return t.box(f, inst.Token)
	case cil.UnboxAny:
		return t.unboxAny(f, inst.Token)
	case cil.CastClass:
		return t.castclass(f, inst.Token)
	case cil.IsInst:
		return t.isinst(f, inst.Token)
	case cil.InitObj:
		return t.initobj(f, inst.Token)

	case cil.NewArr:
		return t.newarr(f, inst.Token)
	case cil.LdLen:
		return t.ldlen(f)
	case cil.LdElemA:
		return t.ldelema(f, inst.Token)
	case cil.LdElemI1, cil.LdElemU1, cil.LdElemI2, cil.LdElemU2, cil.LdElemI4, cil.LdElemU4,
		cil.LdElemI8, cil.LdElemI, cil.LdElemR4, cil.LdElemR8, cil.LdElemRef:
		return t.ldelem(f, inst.Op)
	case cil.StElemI, cil.StElemI1, cil.StElemI2, cil.StElemI4, cil.StElemI8,
		cil.StElemR4, cil.StElemR8, cil.StElemRef:
		return t.stelem(f, inst.Op)

	case cil.LdStr:
		return t.ldstr(f, inst.Token)

	case cil.Throw:
		return t.execThrow(f)
	case cil.Rethrow:
		return t.execRethrow(f)
	case cil.Leave, cil.LeaveS:
		return t.execLeave(f, inst.Offset, inst.BranchTarget)
	case cil.EndFinally:
		return t.execEndFinally(f)

	default:
		return fmt.Errorf("jit: unsupported opcode %s", inst.Info.Mnemonic)
	}
}
