package mdsource

// The row shapes below are the already-decoded form of the CLI metadata
// tables spec.md §3/§6 names. A real producer decodes these out of a PE
// file's #~ stream; that decoding is out of scope here (spec.md §1) so
// every *Row is plain data, never byte offsets.

// TypeDefRow is one row of the TypeDef table (spec.md §4.2's setup pass
// input).
type TypeDefRow struct {
	Token           Token
	Namespace       string
	Name            string
	Flags           uint32
	Extends         Token // TypeDefOrRef coded index, 0 if none (e.g. Object)
	FieldList       Token // first Field row owned by this type
	FieldCount      int
	MethodList      Token // first MethodDef row owned by this type
	MethodCount     int
	InterfaceImpls  []InterfaceImplRow
	ClassLayout     *ClassLayoutRow
	NestedIn        Token // 0 if not nested
}

// TypeRefRow is one row of the TypeRef table.
type TypeRefRow struct {
	Token            Token
	ResolutionScope  string // assembly-ref name, or "" for same-module
	Namespace        string
	Name             string
}

// FieldRow is one row of the Field table.
type FieldRow struct {
	Token     Token
	Name      string
	Flags     uint32
	Signature []byte // field signature blob, decoded by internal/sig
}

// ParamRow is one row of the Param table.
type ParamRow struct {
	Token    Token
	Sequence int // 0 = return value
	Name     string
	Flags    uint32
}

// MethodDefRow is one row of the MethodDef table.
type MethodDefRow struct {
	Token     Token
	Name      string
	Flags     uint32
	ImplFlags uint32
	Signature []byte // method signature blob, decoded by internal/sig
	Params    []ParamRow
	Body      *MethodBodyRow // nil for abstract/internal-call methods
}

// MethodBodyRow is the decoded method-body stream (CIL bytes + EH table +
// local signature), the producer's decoding of the method body format
// (spec.md §3).
type MethodBodyRow struct {
	CIL              []byte
	MaxStack         int
	InitLocals       bool
	LocalSignature   []byte // local-var signature blob, decoded by internal/sig
	ExceptionClauses []ExceptionClauseRow
}

// ExceptionClauseRow is one entry of a method body's exception-handling
// table.
type ExceptionClauseRow struct {
	Kind          int // 0=catch 1=filter 2=finally 4=fault, per ECMA-335 §II.25.4.6
	TryOffset     int
	TryLength     int
	HandlerOffset int
	HandlerLength int
	CatchType     Token // valid only when Kind == catch
	FilterOffset  int   // valid only when Kind == filter
}

// InterfaceImplRow is one row of the InterfaceImpl table.
type InterfaceImplRow struct {
	Interface Token
}

// ClassLayoutRow is one row of the ClassLayout table (explicit layout,
// spec.md §4.3).
type ClassLayoutRow struct {
	PackingSize  int
	ClassSize    int
	FieldOffsets map[Token]int // Field token -> explicit byte offset
}

// AssemblyRow is the single row of the Assembly table (this module's own
// identity).
type AssemblyRow struct {
	Name string
}
