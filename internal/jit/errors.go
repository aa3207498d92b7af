package jit

import "errors"

// ErrUnsupportedFilter marks a `filter` exception clause. Filter semantics
// are deferred for v1 per spec.md §4.8 / §9's open question; the
// translator rejects any method body containing one with a clrerr.CheckFailed
// wrapping this sentinel rather than attempting a best-effort lowering.
var ErrUnsupportedFilter = errors.New("jit: filter clauses are not supported")

// ErrInitLocalsRequired marks a method body whose header does not set the
// localsinit bit. spec.md §4.7's prologue "zero-fill initializable locals
// (InitLocals bit required -- methods without it are rejected)"; spec.md §9
// leaves relaxing this as an open question this core does not guess at
// (see DESIGN.md).
var ErrInitLocalsRequired = errors.New("jit: method body is missing InitLocals")

// ErrStackUnderflow marks an instruction that pops more entries than the
// abstract stack currently holds -- a verification failure, not a decode
// failure.
var ErrStackUnderflow = errors.New("jit: evaluation stack underflow")

// ErrStackMismatch marks two control-flow edges into the same offset whose
// abstract stacks cannot be reconciled: different length, or a pair of
// entries with no common verifier-assignable supertype (forward edges), or
// an exact mismatch against an already-translated backward-edge snapshot
// (spec.md §4.7's snapshot/merge rule).
var ErrStackMismatch = errors.New("jit: incompatible evaluation stacks at merge point")

// ErrVerification marks any other spec.md §4.5/§4.7 type-safety violation
// (bad implicit conversion, disallowed operand combination, region-crossing
// branch, etc).
var ErrVerification = errors.New("jit: verification failure")
