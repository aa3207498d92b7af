package cil

// table maps every opcode this decoder understands to its OpInfo. Opcodes
// whose real-world arity depends on a resolved signature (Call, Calli,
// CallVirt, NewObj's pop count, Ret's pop count) are marked StackVariable;
// the translator in internal/jit computes their true arity once it has
// resolved the token against internal/mdmodel. Field opcodes carry fixed
// counts.
var table = map[Opcode]OpInfo{
	Nop:    {"nop", OperandNone, FlowNext, StackFixed0, StackFixed0},
	Break:  {"break", OperandNone, FlowMeta, StackFixed0, StackFixed0},
	LdArg0: {"ldarg.0", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdArg1: {"ldarg.1", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdArg2: {"ldarg.2", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdArg3: {"ldarg.3", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdLoc0: {"ldloc.0", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdLoc1: {"ldloc.1", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdLoc2: {"ldloc.2", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdLoc3: {"ldloc.3", OperandNone, FlowNext, StackFixed0, StackFixed1},
	StLoc0: {"stloc.0", OperandNone, FlowNext, StackFixed1, StackFixed0},
	StLoc1: {"stloc.1", OperandNone, FlowNext, StackFixed1, StackFixed0},
	StLoc2: {"stloc.2", OperandNone, FlowNext, StackFixed1, StackFixed0},
	StLoc3: {"stloc.3", OperandNone, FlowNext, StackFixed1, StackFixed0},

	LdArgS:  {"ldarg.s", OperandInt8, FlowNext, StackFixed0, StackFixed1},
	LdArgAS: {"ldarga.s", OperandInt8, FlowNext, StackFixed0, StackFixed1},
	StArgS:  {"starg.s", OperandInt8, FlowNext, StackFixed1, StackFixed0},
	LdLocS:  {"ldloc.s", OperandInt8, FlowNext, StackFixed0, StackFixed1},
	LdLocAS: {"ldloca.s", OperandInt8, FlowNext, StackFixed0, StackFixed1},
	StLocS:  {"stloc.s", OperandInt8, FlowNext, StackFixed1, StackFixed0},

	LdNull: {"ldnull", OperandNone, FlowNext, StackFixed0, StackFixed1},

	LdcI4M1: {"ldc.i4.m1", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI40:  {"ldc.i4.0", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI41:  {"ldc.i4.1", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI42:  {"ldc.i4.2", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI43:  {"ldc.i4.3", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI44:  {"ldc.i4.4", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI45:  {"ldc.i4.5", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI46:  {"ldc.i4.6", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI47:  {"ldc.i4.7", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI48:  {"ldc.i4.8", OperandNone, FlowNext, StackFixed0, StackFixed1},
	LdcI4S:  {"ldc.i4.s", OperandInt8, FlowNext, StackFixed0, StackFixed1},
	LdcI4:   {"ldc.i4", OperandInt32, FlowNext, StackFixed0, StackFixed1},
	LdcI8:   {"ldc.i8", OperandInt64, FlowNext, StackFixed0, StackFixed1},
	LdcR4:   {"ldc.r4", OperandFloat32, FlowNext, StackFixed0, StackFixed1},
	LdcR8:   {"ldc.r8", OperandFloat64, FlowNext, StackFixed0, StackFixed1},

	Dup: {"dup", OperandNone, FlowNext, StackFixed1, StackFixed2},
	Pop: {"pop", OperandNone, FlowNext, StackFixed1, StackFixed0},

	Call:  {"call", OperandToken, FlowCall, StackVariable, StackVariable},
	Calli: {"calli", OperandSig, FlowCall, StackVariable, StackVariable},
	Ret:   {"ret", OperandNone, FlowReturn, StackVariable, StackFixed0},

	BrS:      {"br.s", OperandBranchShort, FlowBranch, StackFixed0, StackFixed0},
	BrFalseS: {"brfalse.s", OperandBranchShort, FlowCondBranch, StackFixed1, StackFixed0},
	BrTrueS:  {"brtrue.s", OperandBranchShort, FlowCondBranch, StackFixed1, StackFixed0},
	BeqS:     {"beq.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BgeS:     {"bge.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BgtS:     {"bgt.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BleS:     {"ble.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BltS:     {"blt.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BneUnS:   {"bne.un.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BgeUnS:   {"bge.un.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BgtUnS:   {"bgt.un.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BleUnS:   {"ble.un.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},
	BltUnS:   {"blt.un.s", OperandBranchShort, FlowCondBranch, StackFixed2, StackFixed0},

	Br:      {"br", OperandBranchLong, FlowBranch, StackFixed0, StackFixed0},
	BrFalse: {"brfalse", OperandBranchLong, FlowCondBranch, StackFixed1, StackFixed0},
	BrTrue:  {"brtrue", OperandBranchLong, FlowCondBranch, StackFixed1, StackFixed0},
	Beq:     {"beq", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	Bge:     {"bge", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	Bgt:     {"bgt", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	Ble:     {"ble", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	Blt:     {"blt", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	BneUn:   {"bne.un", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	BgeUn:   {"bge.un", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	BgtUn:   {"bgt.un", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	BleUn:   {"ble.un", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},
	BltUn:   {"blt.un", OperandBranchLong, FlowCondBranch, StackFixed2, StackFixed0},

	Switch: {"switch", OperandSwitch, FlowCondBranch, StackFixed1, StackFixed0},

	Add:   {"add", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Sub:   {"sub", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Mul:   {"mul", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Div:   {"div", OperandNone, FlowNext, StackFixed2, StackFixed1},
	DivUn: {"div.un", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Rem:   {"rem", OperandNone, FlowNext, StackFixed2, StackFixed1},
	RemUn: {"rem.un", OperandNone, FlowNext, StackFixed2, StackFixed1},
	And:   {"and", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Or:    {"or", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Xor:   {"xor", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Shl:   {"shl", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Shr:   {"shr", OperandNone, FlowNext, StackFixed2, StackFixed1},
	ShrUn: {"shr.un", OperandNone, FlowNext, StackFixed2, StackFixed1},
	Neg:   {"neg", OperandNone, FlowNext, StackFixed1, StackFixed1},
	Not:   {"not", OperandNone, FlowNext, StackFixed1, StackFixed1},

	ConvI1: {"conv.i1", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvI2: {"conv.i2", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvI4: {"conv.i4", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvI8: {"conv.i8", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvR4: {"conv.r4", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvR8: {"conv.r8", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvU4: {"conv.u4", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvU8: {"conv.u8", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvU2: {"conv.u2", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvU1: {"conv.u1", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvI:  {"conv.i", OperandNone, FlowNext, StackFixed1, StackFixed1},
	ConvU:  {"conv.u", OperandNone, FlowNext, StackFixed1, StackFixed1},

	CallVirt:  {"callvirt", OperandToken, FlowCall, StackVariable, StackVariable},
	LdStr:     {"ldstr", OperandString, FlowNext, StackFixed0, StackFixed1},
	NewObj:    {"newobj", OperandToken, FlowCall, StackVariable, StackFixed1},
	CastClass: {"castclass", OperandToken, FlowNext, StackFixed1, StackFixed1},
	IsInst:    {"isinst", OperandToken, FlowNext, StackFixed1, StackFixed1},
	Throw:     {"throw", OperandNone, FlowThrow, StackFixed1, StackFixed0},

	LdFld:   {"ldfld", OperandToken, FlowNext, StackFixed1, StackFixed1},
	LdFldA:  {"ldflda", OperandToken, FlowNext, StackFixed1, StackFixed1},
	StFld:   {"stfld", OperandToken, FlowNext, StackFixed2, StackFixed0},
	LdSFld:  {"ldsfld", OperandToken, FlowNext, StackFixed0, StackFixed1},
	LdSFldA: {"ldsflda", OperandToken, FlowNext, StackFixed0, StackFixed1},
	StSFld:  {"stsfld", OperandToken, FlowNext, StackFixed1, StackFixed0},

	Box:      {"box", OperandToken, FlowNext, StackFixed1, StackFixed1},
	NewArr:   {"newarr", OperandToken, FlowNext, StackFixed1, StackFixed1},
	LdLen:    {"ldlen", OperandNone, FlowNext, StackFixed1, StackFixed1},
	LdElemA:  {"ldelema", OperandToken, FlowNext, StackFixed2, StackFixed1},
	LdElemI1: {"ldelem.i1", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemU1: {"ldelem.u1", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemI2: {"ldelem.i2", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemU2: {"ldelem.u2", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemI4: {"ldelem.i4", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemU4: {"ldelem.u4", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemI8: {"ldelem.i8", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemI:  {"ldelem.i", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemR4: {"ldelem.r4", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemR8: {"ldelem.r8", OperandNone, FlowNext, StackFixed2, StackFixed1},
	LdElemRef: {"ldelem.ref", OperandNone, FlowNext, StackFixed2, StackFixed1},

	StElemI:  {"stelem.i", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemI1: {"stelem.i1", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemI2: {"stelem.i2", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemI4: {"stelem.i4", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemI8: {"stelem.i8", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemR4: {"stelem.r4", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemR8: {"stelem.r8", OperandNone, FlowNext, StackFixed3, StackFixed0},
	StElemRef: {"stelem.ref", OperandNone, FlowNext, StackFixed3, StackFixed0},

	UnboxAny: {"unbox.any", OperandToken, FlowNext, StackFixed1, StackFixed1},

	Leave:  {"leave", OperandBranchLong, FlowBranch, StackFixed0, StackFixed0},
	LeaveS: {"leave.s", OperandBranchShort, FlowBranch, StackFixed0, StackFixed0},
	EndFinally: {"endfinally", OperandNone, FlowMeta, StackFixed0, StackFixed0},

	CEq:       {"ceq", OperandNone, FlowNext, StackFixed2, StackFixed1},
	CGt:       {"cgt", OperandNone, FlowNext, StackFixed2, StackFixed1},
	CGtUn:     {"cgt.un", OperandNone, FlowNext, StackFixed2, StackFixed1},
	CLt:       {"clt", OperandNone, FlowNext, StackFixed2, StackFixed1},
	CLtUn:     {"clt.un", OperandNone, FlowNext, StackFixed2, StackFixed1},
	InitObj:   {"initobj", OperandToken, FlowNext, StackFixed1, StackFixed0},
	EndFilter: {"endfilter", OperandNone, FlowMeta, StackFixed1, StackFixed0},
	Rethrow:   {"rethrow", OperandNone, FlowThrow, StackFixed0, StackFixed0},
}

// Lookup returns an opcode's metadata. ok is false for any byte sequence
// this decoder does not recognize (spec.md §4.6 scopes the JIT translator
// to the opcodes its six worked scenarios and stated edge cases exercise;
// anything else is an ErrUnsupportedOpcode at decode time, not a panic).
func Lookup(op Opcode) (OpInfo, bool) {
	info, ok := table[op]
	return info, ok
}
