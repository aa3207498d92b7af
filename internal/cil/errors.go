package cil

import "errors"

// ErrUnsupportedOpcode is wrapped by clrerr.CheckFailed when Decoder.Next
// meets an opcode byte sequence absent from the table (spec.md §4.6: the
// translator's opcode coverage is scoped to what its worked scenarios and
// stated edge cases exercise, not the entire ECMA-335 instruction set).
var ErrUnsupportedOpcode = errors.New("cil: unsupported opcode")
