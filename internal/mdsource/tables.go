// Package mdsource models the metadata-reader producer boundary from
// spec.md §6: "Integer table identifiers... are preserved because tokens
// carry them in their high byte." The real producer — a PE/portable-
// executable byte parser — is explicitly out of scope (spec.md §1); this
// package only defines the row shapes and token encoding the rest of the
// core consumes, plus an in-memory fake used by tests and by
// cmd/clrjit's -dump-tables tool.
//
// Table identifiers are grounded on the real ECMA-335 table layout, cross-
// checked against a PE parser's own metadata-table constants (the same
// numbers spec.md §6 lists).
package mdsource

// TableID is the metadata table identifier carried in a token's high byte.
type TableID byte

const (
	Module        TableID = 0x00
	TypeRef       TableID = 0x01
	TypeDef       TableID = 0x02
	FieldPtr      TableID = 0x03
	Field         TableID = 0x04
	MethodPtr     TableID = 0x05
	MethodDef     TableID = 0x06
	ParamPtr      TableID = 0x07
	Param         TableID = 0x08
	InterfaceImpl TableID = 0x09
	MemberRef     TableID = 0x0A
	Constant      TableID = 0x0B
	CustomAttribute TableID = 0x0C
	FieldMarshal  TableID = 0x0D
	DeclSecurity  TableID = 0x0E
	ClassLayout   TableID = 0x0F
	FieldLayout   TableID = 0x10
	StandAloneSig TableID = 0x11
	EventMap      TableID = 0x12
	Event         TableID = 0x14
	PropertyMap   TableID = 0x15
	Property      TableID = 0x17
	MethodSemantics TableID = 0x18
	MethodImpl    TableID = 0x19
	ModuleRef     TableID = 0x1A
	TypeSpec      TableID = 0x1B
	ImplMap       TableID = 0x1C
	FieldRVA      TableID = 0x1D
	Assembly      TableID = 0x20
	AssemblyRef   TableID = 0x23
	NestedClass   TableID = 0x29
	GenericParam  TableID = 0x2A
	MethodSpec    TableID = 0x2B
	GenericParamConstraint TableID = 0x2C

	UserString TableID = 0x70
)

// Token is a metadata token: table id in the high byte, 1-based row index
// in the low three bytes (spec.md §6).
type Token uint32

// NewToken packs a table id and row index into a token.
func NewToken(table TableID, row uint32) Token {
	return Token(uint32(table)<<24 | (row & 0x00FFFFFF))
}

// Table extracts the table id from a token.
func (t Token) Table() TableID { return TableID(t >> 24) }

// Row extracts the 1-based row index from a token.
func (t Token) Row() uint32 { return uint32(t) & 0x00FFFFFF }
