package mdmodel

import "github.com/google/uuid"

// Module holds a module name and MVID, mirroring the single module an
// Assembly references per spec.md §3.
type Module struct {
	Name string
	MVID uuid.UUID
}

// NewSyntheticModule mints a fresh MVID for an assembly assembled entirely
// in-memory (tests, the fake mdsource producer). Real assemblies carry their
// MVID straight from the Module metadata table row instead of calling this.
func NewSyntheticModule(name string) Module {
	return Module{Name: name, MVID: uuid.New()}
}

// UserString is a single entry of an assembly's #US heap, keyed by the low
// 24 bits of its metadata token (spec.md §3, §6).
type UserString struct {
	Token uint32
	Value string
}

// Member references a method or a field; MemberRef rows (table id 0x0A) that
// are not yet resolved to a concrete defining assembly use this to carry
// either kind uniformly.
type Member struct {
	Method *MethodInfo
	Field  *FieldInfo
}

// Assembly is the top-level unit of the loaded type universe: one module,
// plus the ordered defined/imported tables spec.md §3 calls out. Types,
// methods and fields are allocated out of Arena and referenced by handle so
// the graph among them can be cyclic.
type Assembly struct {
	Name   string
	Module Module

	Arena *Arena

	// DefinedTypes holds one handle per TypeDef row in metadata-row order,
	// 0-based: index i holds row i+1, so the loader's two-phase setup/fill
	// pass can address rows directly, per spec.md §4.2.
	DefinedTypes []TypeHandle
	// ImportedTypes holds TypeRef rows resolved to their defining assembly's
	// exported type, or left unresolved (nil Type, non-nil placeholder) until
	// that assembly is loaded.
	ImportedTypes []*TypeRef

	DefinedMethods []MethodHandle
	DefinedFields  []FieldHandle

	// ImportedMembers holds MemberRef rows.
	ImportedMembers []Member

	// DefinedTypeSpecs holds raw TypeSpec blobs (table id 0x1B), decoded
	// lazily by the signature decoder when first referenced by a token.
	DefinedTypeSpecs [][]byte

	UserStrings map[uint32]string
}

// TypeRef is an unresolved or resolved reference to a type defined in
// another assembly (TypeRef metadata row, table id 0x01).
type TypeRef struct {
	AssemblyName string
	Namespace    string
	Name         string
	Resolved     *Type
}

// NewAssembly creates an empty assembly ready for the loader's setup pass.
func NewAssembly(name string, module Module) *Assembly {
	return &Assembly{
		Name:        name,
		Module:      module,
		Arena:       NewArena(),
		UserStrings: make(map[uint32]string),
	}
}
