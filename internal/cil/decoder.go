package cil

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/clrcore/clrcore/internal/clrerr"
)

// Instruction is one decoded CIL instruction. Exactly one operand field is
// meaningful, selected by Info.Operand; OperandNone instructions use none.
type Instruction struct {
	Op     Opcode
	Info   OpInfo
	Offset int // byte offset of the opcode within the method body
	Len    int // total bytes consumed, including prefix/opcode bytes

	IntOperand    int64   // Int8/Int32/Int64/BranchShort/BranchLong/VarShort/VarLong
	FloatOperand  float64 // Float32/Float64
	Token         uint32  // Token/String/Sig
	SwitchTargets []int32 // relative offsets, valid only for OperandSwitch

	// BranchTarget is the absolute target offset for branch operands,
	// computed as Offset + Len + IntOperand per ECMA-335's "relative to the
	// instruction following the branch" rule.
	BranchTarget int
}

// Decoder decodes one CIL instruction at a time from a method body's IL
// byte stream.
type Decoder struct{}

// NewDecoder returns a Decoder. It carries no state; CIL has no decode-time
// context beyond the byte stream itself, unlike a disassembler that must
// track label names (the teacher's internal/vm/disasm.go tracks source
// line numbers for exactly that reason; CIL has no equivalent concept).
func NewDecoder() *Decoder { return &Decoder{} }

// Next decodes one instruction starting at code[offset] and returns it plus
// the offset of the following instruction. It returns a clrerr.BadFormat
// error if the stream is truncated, and clrerr.CheckFailed wrapping
// ErrUnsupportedOpcode if the opcode byte(s) decode to nothing in Lookup's
// table.
func (d *Decoder) Next(code []byte, offset int) (Instruction, int, error) {
	if offset < 0 || offset >= len(code) {
		return Instruction{}, offset, clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("cil: offset %d out of range (len %d)", offset, len(code)))
	}

	start := offset
	b := code[offset]
	var op Opcode
	cur := offset + 1
	if b == prefixByte {
		if cur >= len(code) {
			return Instruction{}, offset, clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("cil: truncated prefix byte at offset %d", offset))
		}
		op = prefixed(code[cur])
		cur++
	} else {
		op = unprefixed(b)
	}

	info, ok := Lookup(op)
	if !ok {
		return Instruction{}, offset, clrerr.Wrap(clrerr.CheckFailed, fmt.Errorf("%w: opcode 0x%04X at offset %d", ErrUnsupportedOpcode, op, offset))
	}

	inst := Instruction{Op: op, Info: info, Offset: start}

	need := func(n int) error {
		if cur+n > len(code) {
			return clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("cil: truncated operand for %s at offset %d", info.Mnemonic, start))
		}
		return nil
	}

	switch info.Operand {
	case OperandNone:
		// no operand bytes

	case OperandInt8:
		if err := need(1); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(int8(code[cur]))
		cur++

	case OperandInt32:
		if err := need(4); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(int32(binary.LittleEndian.Uint32(code[cur:])))
		cur += 4

	case OperandInt64:
		if err := need(8); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(binary.LittleEndian.Uint64(code[cur:]))
		cur += 8

	case OperandFloat32:
		if err := need(4); err != nil {
			return Instruction{}, offset, err
		}
		inst.FloatOperand = float64(math.Float32frombits(binary.LittleEndian.Uint32(code[cur:])))
		cur += 4

	case OperandFloat64:
		if err := need(8); err != nil {
			return Instruction{}, offset, err
		}
		inst.FloatOperand = math.Float64frombits(binary.LittleEndian.Uint64(code[cur:]))
		cur += 8

	case OperandBranchShort:
		if err := need(1); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(int8(code[cur]))
		cur++

	case OperandBranchLong:
		if err := need(4); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(int32(binary.LittleEndian.Uint32(code[cur:])))
		cur += 4

	case OperandVarShort:
		if err := need(1); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(code[cur])
		cur++

	case OperandVarLong:
		if err := need(2); err != nil {
			return Instruction{}, offset, err
		}
		inst.IntOperand = int64(binary.LittleEndian.Uint16(code[cur:]))
		cur += 2

	case OperandToken, OperandString, OperandSig:
		if err := need(4); err != nil {
			return Instruction{}, offset, err
		}
		inst.Token = binary.LittleEndian.Uint32(code[cur:])
		cur += 4

	case OperandSwitch:
		if err := need(4); err != nil {
			return Instruction{}, offset, err
		}
		count := binary.LittleEndian.Uint32(code[cur:])
		cur += 4
		targets := make([]int32, count)
		for i := range targets {
			if err := need(4); err != nil {
				return Instruction{}, offset, err
			}
			targets[i] = int32(binary.LittleEndian.Uint32(code[cur:]))
			cur += 4
		}
		inst.SwitchTargets = targets

	default:
		return Instruction{}, offset, clrerr.Wrap(clrerr.CheckFailed, fmt.Errorf("cil: unhandled operand kind %d for %s", info.Operand, info.Mnemonic))
	}

	inst.Len = cur - start
	if info.Operand == OperandBranchShort || info.Operand == OperandBranchLong {
		inst.BranchTarget = start + inst.Len + int(inst.IntOperand)
	}

	return inst, cur, nil
}
