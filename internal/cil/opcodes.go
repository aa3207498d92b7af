// Package cil implements the CIL instruction decoder from spec.md §4.6: an
// opcode lookup table plus a single-instruction decode step that folds the
// 0xFE prefix byte and decodes each opcode's inline operand. Grounded on
// the teacher's own bytecode opcode table and disassembler
// (internal/vm/opcodes.go, internal/vm/disasm.go in the funxy stack this
// module was adapted from), retargeted from the teacher's small stack-VM
// instruction set to the CIL opcode set including its prefix byte and
// switch operand.
package cil

// Opcode is a 16-bit decoded CIL opcode value: the high byte is 0 for an
// unprefixed opcode (whose low byte is the single instruction byte) or 0xFE
// for a two-byte opcode (whose low byte follows the 0xFE prefix byte),
// matching spec.md §4.6 exactly.
type Opcode uint16

const prefixByte = 0xFE

func unprefixed(b byte) Opcode { return Opcode(b) }
func prefixed(b byte) Opcode   { return Opcode(prefixByte)<<8 | Opcode(b) }

// Single-byte opcodes.
const (
	Nop    Opcode = 0x00
	Break  Opcode = 0x01
	LdArg0 Opcode = 0x02
	LdArg1 Opcode = 0x03
	LdArg2 Opcode = 0x04
	LdArg3 Opcode = 0x05
	LdLoc0 Opcode = 0x06
	LdLoc1 Opcode = 0x07
	LdLoc2 Opcode = 0x08
	LdLoc3 Opcode = 0x09
	StLoc0 Opcode = 0x0A
	StLoc1 Opcode = 0x0B
	StLoc2 Opcode = 0x0C
	StLoc3 Opcode = 0x0D
	LdArgS  Opcode = 0x0E
	LdArgAS Opcode = 0x0F
	StArgS  Opcode = 0x10
	LdLocS  Opcode = 0x11
	LdLocAS Opcode = 0x12
	StLocS  Opcode = 0x13
	LdNull  Opcode = 0x14
	LdcI4M1 Opcode = 0x15
	LdcI40  Opcode = 0x16
	LdcI41  Opcode = 0x17
	LdcI42  Opcode = 0x18
	LdcI43  Opcode = 0x19
	LdcI44  Opcode = 0x1A
	LdcI45  Opcode = 0x1B
	LdcI46  Opcode = 0x1C
	LdcI47  Opcode = 0x1D
	LdcI48  Opcode = 0x1E
	LdcI4S  Opcode = 0x1F
	LdcI4   Opcode = 0x20
	LdcI8   Opcode = 0x21
	LdcR4   Opcode = 0x22
	LdcR8   Opcode = 0x23
	Dup     Opcode = 0x25
	Pop     Opcode = 0x26
	Call    Opcode = 0x28
	Calli   Opcode = 0x29
	Ret     Opcode = 0x2A
	BrS     Opcode = 0x2B
	BrFalseS Opcode = 0x2C
	BrTrueS  Opcode = 0x2D
	BeqS     Opcode = 0x2E
	BgeS     Opcode = 0x2F
	BgtS     Opcode = 0x30
	BleS     Opcode = 0x31
	BltS     Opcode = 0x32
	BneUnS   Opcode = 0x33
	BgeUnS   Opcode = 0x34
	BgtUnS   Opcode = 0x35
	BleUnS   Opcode = 0x36
	BltUnS   Opcode = 0x37
	Br       Opcode = 0x38
	BrFalse  Opcode = 0x39
	BrTrue   Opcode = 0x3A
	Beq      Opcode = 0x3B
	Bge      Opcode = 0x3C
	Bgt      Opcode = 0x3D
	Ble      Opcode = 0x3E
	Blt      Opcode = 0x3F
	BneUn    Opcode = 0x40
	BgeUn    Opcode = 0x41
	BgtUn    Opcode = 0x42
	BleUn    Opcode = 0x43
	BltUn    Opcode = 0x44
	Switch   Opcode = 0x45
	Add      Opcode = 0x58
	Sub      Opcode = 0x59
	Mul      Opcode = 0x5A
	Div      Opcode = 0x5B
	DivUn    Opcode = 0x5C
	Rem      Opcode = 0x5D
	RemUn    Opcode = 0x5E
	And      Opcode = 0x5F
	Or       Opcode = 0x60
	Xor      Opcode = 0x61
	Shl      Opcode = 0x62
	Shr      Opcode = 0x63
	ShrUn    Opcode = 0x64
	Neg      Opcode = 0x65
	Not      Opcode = 0x66
	ConvI1   Opcode = 0x67
	ConvI2   Opcode = 0x68
	ConvI4   Opcode = 0x69
	ConvI8   Opcode = 0x6A
	ConvR4   Opcode = 0x6B
	ConvR8   Opcode = 0x6C
	ConvU4   Opcode = 0x6D
	ConvU8   Opcode = 0x6E
	CallVirt Opcode = 0x6F
	LdStr    Opcode = 0x72
	NewObj   Opcode = 0x73
	CastClass Opcode = 0x74
	IsInst   Opcode = 0x75
	Throw    Opcode = 0x7A
	LdFld    Opcode = 0x7B
	LdFldA   Opcode = 0x7C
	StFld    Opcode = 0x7D
	LdSFld   Opcode = 0x7E
	LdSFldA  Opcode = 0x7F
	StSFld   Opcode = 0x80
	Box      Opcode = 0x8C
	NewArr   Opcode = 0x8D
	LdLen    Opcode = 0x8E
	LdElemA  Opcode = 0x8F
	LdElemI1 Opcode = 0x90
	LdElemU1 Opcode = 0x91
	LdElemI2 Opcode = 0x92
	LdElemU2 Opcode = 0x93
	LdElemI4 Opcode = 0x94
	LdElemU4 Opcode = 0x95
	LdElemI8 Opcode = 0x96
	LdElemI  Opcode = 0x97
	LdElemR4 Opcode = 0x98
	LdElemR8 Opcode = 0x99
	LdElemRef Opcode = 0x9A
	StElemI  Opcode = 0x9B
	StElemI1 Opcode = 0x9C
	StElemI2 Opcode = 0x9D
	StElemI4 Opcode = 0x9E
	StElemI8 Opcode = 0x9F
	StElemR4 Opcode = 0xA0
	StElemR8 Opcode = 0xA1
	StElemRef Opcode = 0xA2
	UnboxAny Opcode = 0xA5
	ConvU2   Opcode = 0xD1
	ConvU1   Opcode = 0xD2
	ConvI    Opcode = 0xD3
	ConvU    Opcode = 0xE0
	EndFinally Opcode = 0xDC
	Leave    Opcode = 0xDD
	LeaveS   Opcode = 0xDE
)

// Two-byte (0xFE-prefixed) opcodes. Declared as vars, not consts, since they
// are built from the prefixed() helper rather than literal values.
var (
	CEq       = prefixed(0x01)
	CGt       = prefixed(0x02)
	CGtUn     = prefixed(0x03)
	CLt       = prefixed(0x04)
	CLtUn     = prefixed(0x05)
	InitObj   = prefixed(0x15)
	EndFilter = prefixed(0x11)
	Rethrow   = prefixed(0x1A)
)

// OperandKind enumerates spec.md §4.6's inline operand kinds.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandInt8
	OperandInt32
	OperandInt64
	OperandFloat32
	OperandFloat64
	OperandBranchShort
	OperandBranchLong
	OperandVarShort
	OperandVarLong
	OperandToken    // method/field/type token
	OperandString   // string token (#US heap)
	OperandSig      // standalone signature token
	OperandSwitch   // count-prefixed array of int32 relative offsets
)

// ControlFlow classifies an opcode's effect on the instruction pointer, per
// spec.md §4.6.
type ControlFlow int

const (
	FlowNext ControlFlow = iota
	FlowBranch
	FlowCondBranch
	FlowCall
	FlowReturn
	FlowThrow
	FlowMeta
)

// StackBehavior describes how many entries an opcode pops/pushes in the
// common case; opcodes whose arity depends on the resolved method
// signature (call, calli, callvirt pops and pushes, newobj pops, ret pops)
// report -1 and the translator (internal/jit) computes the real arity from
// the signature. Field opcodes (ld/stfld, ld/stsfld) have fixed counts.
type StackBehavior int

const (
	StackFixed0 StackBehavior = 0
	StackFixed1 StackBehavior = 1
	StackFixed2 StackBehavior = 2
	StackFixed3 StackBehavior = 3
	StackVariable StackBehavior = -1
)

// OpInfo is one opcode's decode/verify metadata.
type OpInfo struct {
	Mnemonic string
	Operand  OperandKind
	Flow     ControlFlow
	Pop      StackBehavior
	Push     StackBehavior
}
