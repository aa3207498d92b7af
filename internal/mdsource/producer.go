package mdsource

// Producer is the boundary interface spec.md §6 describes: "supplies
// decoded rows for the tables the core consumes." internal/loader depends
// only on this interface, never on a concrete PE parser, keeping the actual
// byte-level CLI loader (out of scope per spec.md §1) swappable.
type Producer interface {
	Assembly() AssemblyRow
	TypeDefs() []TypeDefRow
	TypeRefs() []TypeRefRow
	Fields() []FieldRow
	Methods() []MethodDefRow
	UserStrings() map[uint32]string
}

// InMemoryProducer is a Producer built directly from in-memory rows. It is
// the fake used by every test in this module and by cmd/clrjit's
// -dump-tables developer tool; it stands in for the real PE/metadata byte
// parser the same way internal/mir/fake stands in for the real code
// generator and internal/rtabi's fakes stand in for the real GC/threading
// host.
type InMemoryProducer struct {
	AssemblyRowV AssemblyRow
	TypeDefRows  []TypeDefRow
	TypeRefRows  []TypeRefRow
	FieldRows    []FieldRow
	MethodRows   []MethodDefRow
	Strings      map[uint32]string
}

func (p *InMemoryProducer) Assembly() AssemblyRow       { return p.AssemblyRowV }
func (p *InMemoryProducer) TypeDefs() []TypeDefRow      { return p.TypeDefRows }
func (p *InMemoryProducer) TypeRefs() []TypeRefRow      { return p.TypeRefRows }
func (p *InMemoryProducer) Fields() []FieldRow          { return p.FieldRows }
func (p *InMemoryProducer) Methods() []MethodDefRow     { return p.MethodRows }
func (p *InMemoryProducer) UserStrings() map[uint32]string {
	if p.Strings == nil {
		return map[uint32]string{}
	}
	return p.Strings
}
