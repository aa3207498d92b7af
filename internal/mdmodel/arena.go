// Package mdmodel is the in-memory representation of the CLI metadata and
// type universe described in spec.md §3: assemblies, modules, types,
// methods, fields, signatures, and exception-handling clauses.
//
// Types form a cycle-capable DAG (class A can hold a field of type B which
// extends A), so mdmodel never expresses ownership as Go pointers-as-edges
// between arbitrary types. Every Type, MethodInfo and FieldInfo is allocated
// out of the owning Assembly's Arena and referenced everywhere else by a
// stable integer handle, per the "cyclic type graph" design note in
// spec.md §9.
package mdmodel

// TypeHandle is a stable, arena-relative identity for a Type. Handles never
// change once minted, even while the type they name is still in the setup
// phase (spec.md §4.2) and therefore incomplete.
type TypeHandle int32

// MethodHandle is a stable, arena-relative identity for a MethodInfo.
type MethodHandle int32

// FieldHandle is a stable, arena-relative identity for a FieldInfo.
type FieldHandle int32

// Arena owns every Type, MethodInfo and FieldInfo created while loading one
// assembly. Index 0 is reserved (the zero handle means "no type"/"none").
type Arena struct {
	types   []*Type
	methods []*MethodInfo
	fields  []*FieldInfo
}

// NewArena returns an empty arena with the reserved zero slot pre-filled.
func NewArena() *Arena {
	return &Arena{
		types:   make([]*Type, 1, 256),
		methods: make([]*MethodInfo, 1, 512),
		fields:  make([]*FieldInfo, 1, 512),
	}
}

// NewType allocates a forward-declared Type and returns its handle.
func (a *Arena) NewType(t *Type) TypeHandle {
	h := TypeHandle(len(a.types))
	t.Handle = h
	a.types = append(a.types, t)
	return h
}

// Type resolves a handle to its Type. Returns nil for the zero handle.
func (a *Arena) Type(h TypeHandle) *Type {
	if h <= 0 || int(h) >= len(a.types) {
		return nil
	}
	return a.types[h]
}

// NewMethod allocates a forward-declared MethodInfo and returns its handle.
func (a *Arena) NewMethod(m *MethodInfo) MethodHandle {
	h := MethodHandle(len(a.methods))
	m.Handle = h
	a.methods = append(a.methods, m)
	return h
}

// Method resolves a handle to its MethodInfo. Returns nil for the zero handle.
func (a *Arena) Method(h MethodHandle) *MethodInfo {
	if h <= 0 || int(h) >= len(a.methods) {
		return nil
	}
	return a.methods[h]
}

// NewField allocates a forward-declared FieldInfo and returns its handle.
func (a *Arena) NewField(f *FieldInfo) FieldHandle {
	h := FieldHandle(len(a.fields))
	f.Handle = h
	a.fields = append(a.fields, f)
	return h
}

// Field resolves a handle to its FieldInfo. Returns nil for the zero handle.
func (a *Arena) Field(h FieldHandle) *FieldInfo {
	if h <= 0 || int(h) >= len(a.fields) {
		return nil
	}
	return a.fields[h]
}

// Types returns every type allocated so far, in handle order (index 0 is the
// reserved slot and is always nil).
func (a *Arena) Types() []*Type { return a.types }
