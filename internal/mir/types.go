// Package mir models the "code generator ABI" spec.md §6 describes and
// treats as an external collaborator: module/function/prototype creation,
// instruction appending, bss definitions, external symbol import/export,
// module linking through a lazy-gen interface, and function address
// resolution post-link. internal/jit is the only consumer of this API; a
// real native backend would implement the same shape. Grounded on the
// teacher's internal/vm.Chunk (an append-only instruction buffer addressed
// by monotonically increasing indices) generalized from untyped bytecode
// bytes to typed SSA-style values and terminator-ending basic blocks, since
// spec.md's abstract-stack merge requirement (§4.7) needs block parameters
// a flat byte buffer cannot express.
package mir

// Type is a MIR value type. The JIT translator maps every CLI stack-type
// classification (spec.md §4.7's Int32/Int64/IntPtr/Float/Object/ByRef/
// ValueType) onto one of these before emitting an instruction.
type Type int

const (
	I32 Type = iota
	I64
	F32
	F64
	Ptr  // object references, byrefs, IntPtr, and managed pointers all lower to Ptr
	Void
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ptr:
		return "ptr"
	case Void:
		return "void"
	default:
		return "?"
	}
}

// Value is an opaque reference to a single SSA-form definition: a block
// parameter or an instruction result. The zero Value is invalid; Builder
// methods never return it on success.
type Value struct {
	fn  int
	id  int
}

// Valid reports whether v was produced by a Builder (as opposed to the
// zero Value).
func (v Value) Valid() bool { return v.fn != 0 || v.id != 0 }

// Op is a MIR instruction opcode. The set covers exactly what
// internal/jit's translation rules from spec.md §4.7 need: arithmetic,
// comparison, conversion, memory, and call/barrier operations.
type Op int

const (
	OpConst Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpDivUn
	OpRem
	OpRemUn
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpShrUn
	OpNeg
	OpNot
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLtUn
	OpCmpLe
	OpCmpLeUn
	OpCmpGt
	OpCmpGtUn
	OpCmpGe
	OpCmpGeUn
	OpSExt
	OpZExt
	OpTrunc
	OpIntToFloat
	OpFloatToInt
	OpBitcast
	OpAlloca
	OpLoad
	OpStore
	OpGEP     // pointer + byte offset (constant or value)
	OpCall    // direct call through a Proto symbol
	OpCallInd // indirect call through a Ptr value (vtable/delegate dispatch)
	OpGCNew
	OpGCBarrier  // write-barrier call wrapping a Store to a managed-pointer field
	OpFPExt      // widen F32 -> F64 (spec.md §4.7: a double never implicitly narrows from a float merge)
	OpFPTrunc    // narrow F64 -> F32
	OpGlobalAddr // address of a BSS or extern-data symbol, resolved at link time
)

func (op Op) String() string {
	names := [...]string{
		"const", "add", "sub", "mul", "div", "div.un", "rem", "rem.un",
		"and", "or", "xor", "shl", "shr", "shr.un", "neg", "not",
		"cmp.eq", "cmp.ne", "cmp.lt", "cmp.lt.un", "cmp.le", "cmp.le.un",
		"cmp.gt", "cmp.gt.un", "cmp.ge", "cmp.ge.un",
		"sext", "zext", "trunc", "i2f", "f2i", "bitcast",
		"alloca", "load", "store", "gep", "call", "call.ind",
		"gc.new", "gc.barrier", "fpext", "fptrunc", "global.addr",
	}
	if int(op) < 0 || int(op) >= len(names) {
		return "?"
	}
	return names[op]
}
