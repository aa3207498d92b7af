package jit

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mir"
	"github.com/clrcore/clrcore/internal/verify"
)

// mergePoint is the recorded snapshot for one CIL offset that is a branch
// target or handler entry (spec.md §4.7). Its MIR block parameter types
// are fixed at creation, matching the teacher's mir.Block design ("block
// parameters instead of phi nodes"): entries reaching this point are
// reconciled against these fixed types at every incoming edge rather than
// by ever widening the MIR block signature itself.
type mergePoint struct {
	label      string
	entries    []entry    // canonical (possibly CLI-type-widened) snapshot
	params     []mir.Value // this block's own parameter registers, in the same order as entries
	translated bool        // true once the translator has emitted this block's own body
}

// ensureMergeBlock registers (or reconciles against) the merge point at
// targetOffset, given the stack shape at the edge reaching it. It returns
// the block label and, for each slot, the MIR value to pass as that
// block's argument -- which may be `from[i].Reg` unchanged, or a converted
// register when a float sub-kind needs widening to the block's fixed F64
// parameter (spec.md §4.7: "a double never implicitly narrows to float").
func (t *Translator) ensureMergeBlock(targetOffset int, from []entry) (string, []mir.Value, error) {
	mp, ok := t.merges[targetOffset]
	if !ok {
		label := fmt.Sprintf("L_%04x", targetOffset)
		paramTypes := make([]mir.Type, len(from))
		for i, e := range from {
			paramTypes[i] = e.mirType()
		}
		params := t.b.Block(label, paramTypes...)
		mp = &mergePoint{label: label, entries: append([]entry(nil), from...), params: params}
		t.merges[targetOffset] = mp
		args := make([]mir.Value, len(from))
		for i, e := range from {
			args[i] = e.Reg
		}
		return label, args, nil
	}

	if len(mp.entries) != len(from) {
		return "", nil, fmt.Errorf("%w: offset %#x expects %d stack entries, got %d", ErrStackMismatch, targetOffset, len(mp.entries), len(from))
	}

	args := make([]mir.Value, len(from))
	for i := range from {
		want := mp.entries[i]
		got := from[i]

		if mp.translated {
			// Backward edge into an already-translated block: exact match
			// required, no merging (spec.md §4.7).
			if want.Kind != got.Kind || want.Type != got.Type {
				return "", nil, fmt.Errorf("%w: offset %#x slot %d: recorded %v/%v, incoming %v/%v",
					ErrStackMismatch, targetOffset, i, want.Kind, want.Type, got.Kind, got.Type)
			}
			args[i] = got.Reg
			continue
		}

		reg, err := t.reconcileSlot(want, got)
		if err != nil {
			return "", nil, fmt.Errorf("offset %#x slot %d: %w", targetOffset, i, err)
		}
		args[i] = reg
	}
	return mp.label, args, nil
}

// reconcileSlot matches one incoming stack entry against a forward merge
// point's already-fixed MIR parameter kind. CLI-level widening (picking a
// common verifier-assignable supertype) never changes the MIR
// representation except across a Float sub-kind mismatch, which is
// resolved here with an explicit fpext at the branch site rather than by
// mutating the target block's signature.
func (t *Translator) reconcileSlot(want, got entry) (mir.Value, error) {
	if want.Kind != got.Kind {
		return mir.Value{}, fmt.Errorf("%w: kind %v vs %v", ErrStackMismatch, want.Kind, got.Kind)
	}
	if want.Kind == mdmodel.StackTypeFloat && want.IsF32 != got.IsF32 {
		if !want.IsF32 && got.IsF32 {
			return t.b.UnOp(mir.OpFPExt, mir.F64, got.Reg), nil
		}
		return mir.Value{}, fmt.Errorf("%w: cannot narrow f64 to f32 at a merge", ErrStackMismatch)
	}
	if want.Type == got.Type {
		return got.Reg, nil
	}
	u := verify.VerifierAssignableTo(got.Type, want.Type, got.IsNull, t.namer, t.byRefOf)
	v := verify.VerifierAssignableTo(want.Type, got.Type, want.IsNull, t.namer, t.byRefOf)
	if !u && !v {
		return mir.Value{}, fmt.Errorf("%w: %v not verifier-assignable either way with %v", ErrStackMismatch, got.Type, want.Type)
	}
	// Widened CLI type changes only bookkeeping for later instructions at
	// this merge point's own body (already fixed when first recorded);
	// the register itself needs no conversion since both sides share the
	// same MIR representation (mirType only depends on Kind/IsF32).
	return got.Reg, nil
}

// markTranslated flags a merge point as having had its body emitted, so
// later backward edges into it are checked for an exact match per spec.md
// §4.7.
func (t *Translator) markTranslated(offset int) {
	if mp, ok := t.merges[offset]; ok {
		mp.translated = true
	}
}
