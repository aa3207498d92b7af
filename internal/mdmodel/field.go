package mdmodel

// FieldAttr mirrors the CLI FieldAttributes bits relevant to spec.md §3/§4.5.
type FieldAttr uint32

const (
	FieldStatic FieldAttr = 1 << iota
	FieldInitOnly
	FieldPublic
	FieldPrivate
	FieldFamily
	FieldAssembly
	FieldFamANDAssem
	FieldFamORAssem
)

// AccessOf extracts the access-kind subset of Attr, mirroring
// MethodAttr.AccessOf for the same §4.5 accessibility table.
func (a FieldAttr) AccessOf() FieldAttr {
	return a & (FieldPublic | FieldPrivate | FieldFamily | FieldAssembly | FieldFamANDAssem | FieldFamORAssem)
}

// FieldInfo is the field entity from spec.md §3.
type FieldInfo struct {
	Handle FieldHandle

	DeclaringType *Type
	Module        *Module
	Name          string
	Type          *Type
	Attr          FieldAttr

	// Offset is the byte offset of an instance field within its declaring
	// type's layout (spec.md §3, §4.3). Meaningless for static fields,
	// which are instead keyed by field identity in a separate static-storage
	// table (internal/jit, internal/driver), per spec.md §4.7's
	// stsfld/ldsfld description.
	Offset int
}

func (f *FieldInfo) IsStatic() bool   { return f.Attr&FieldStatic != 0 }
func (f *FieldInfo) IsInitOnly() bool { return f.Attr&FieldInitOnly != 0 }
