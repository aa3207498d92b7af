package sig

import (
	"testing"

	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
)

// fakeFactory is a minimal Factory for decoder tests: one shared Type per
// primitive code, structural-dedup arrays/byrefs, no real resolution.
type fakeFactory struct {
	primitives map[ElementType]*mdmodel.Type
	arrays     map[*mdmodel.Type]*mdmodel.Type
	byrefs     map[*mdmodel.Type]*mdmodel.Type
	resolved   map[mdsource.Token]*mdmodel.Type
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		primitives: map[ElementType]*mdmodel.Type{},
		arrays:     map[*mdmodel.Type]*mdmodel.Type{},
		byrefs:     map[*mdmodel.Type]*mdmodel.Type{},
		resolved:   map[mdsource.Token]*mdmodel.Type{},
	}
}

func (f *fakeFactory) Primitive(e ElementType) *mdmodel.Type {
	if t, ok := f.primitives[e]; ok {
		return t
	}
	t := &mdmodel.Type{Name: primitiveName(e), Flags: mdmodel.FlagValueType}
	f.primitives[e] = t
	return t
}

func primitiveName(e ElementType) string {
	switch e {
	case ElementI4:
		return "Int32"
	case ElementI8:
		return "Int64"
	case ElementBoolean:
		return "Boolean"
	default:
		return "Prim"
	}
}

func (f *fakeFactory) Object() *mdmodel.Type { return f.Primitive(ElementObject) }
func (f *fakeFactory) String() *mdmodel.Type { return f.Primitive(ElementString) }

func (f *fakeFactory) Array(elem *mdmodel.Type) *mdmodel.Type {
	if t, ok := f.arrays[elem]; ok {
		return t
	}
	t := &mdmodel.Type{Name: elem.Name + "[]", Flags: mdmodel.FlagArray, ElementType: elem}
	f.arrays[elem] = t
	return t
}

func (f *fakeFactory) Pointer(elem *mdmodel.Type) *mdmodel.Type {
	return &mdmodel.Type{Name: elem.Name + "*", ElementType: elem}
}

func (f *fakeFactory) ByRef(elem *mdmodel.Type) *mdmodel.Type {
	if t, ok := f.byrefs[elem]; ok {
		return t
	}
	t := &mdmodel.Type{Name: elem.Name + "&", Flags: mdmodel.FlagByRef, ElementType: elem}
	f.byrefs[elem] = t
	return t
}

func (f *fakeFactory) Instantiate(def *mdmodel.Type, args []*mdmodel.Type) *mdmodel.Type {
	return &mdmodel.Type{Name: def.Name, GenericDefinition: def, GenericArgs: args}
}

func (f *fakeFactory) Resolve(tok mdsource.Token) (*mdmodel.Type, error) {
	if t, ok := f.resolved[tok]; ok {
		return t, nil
	}
	t := &mdmodel.Type{Name: "Resolved"}
	f.resolved[tok] = t
	return t, nil
}

func TestDecodeFieldSigPrimitive(t *testing.T) {
	f := newFakeFactory()
	d := NewDecoder(Context{Factory: f})

	// field sig: 0x06 (FIELD) 0x08 (I4)
	blob := []byte{0x06, byte(ElementI4)}
	typ, err := d.DecodeFieldSig(blob)
	if err != nil {
		t.Fatalf("DecodeFieldSig: %v", err)
	}
	if typ != f.Primitive(ElementI4) {
		t.Errorf("got %v, want shared Int32 type", typ)
	}
}

func TestDecodeFieldSigSzArrayIsUnique(t *testing.T) {
	f := newFakeFactory()
	d := NewDecoder(Context{Factory: f})

	// SZARRAY I4
	blob := []byte{0x06, byte(ElementSzArray), byte(ElementI4)}
	first, err := d.DecodeFieldSig(blob)
	if err != nil {
		t.Fatalf("DecodeFieldSig: %v", err)
	}
	second, err := d.DecodeFieldSig(blob)
	if err != nil {
		t.Fatalf("DecodeFieldSig: %v", err)
	}
	if first != second {
		t.Errorf("SZARRAY of the same element must dedup to one Type, per spec.md §8 property 2")
	}
}

func TestDecodeMethodSigStaticTwoArgs(t *testing.T) {
	f := newFakeFactory()
	d := NewDecoder(Context{Factory: f})

	// DEFAULT (no HASTHIS), 2 params, returns I4, params (I4, BOOLEAN)
	blob := []byte{
		byte(CallDefault), 0x02,
		byte(ElementI4),
		byte(ElementI4),
		byte(ElementBoolean),
	}
	sig, err := d.DecodeMethodSig(blob)
	if err != nil {
		t.Fatalf("DecodeMethodSig: %v", err)
	}
	if sig.HasThis {
		t.Errorf("HasThis = true, want false")
	}
	if len(sig.Params) != 2 {
		t.Fatalf("len(Params) = %d, want 2", len(sig.Params))
	}
	if sig.ReturnType != f.Primitive(ElementI4) {
		t.Errorf("ReturnType = %v, want Int32", sig.ReturnType)
	}
	if sig.Params[1].Type != f.Primitive(ElementBoolean) {
		t.Errorf("Params[1].Type = %v, want Boolean", sig.Params[1].Type)
	}
}

func TestDecodeMethodSigByRefParam(t *testing.T) {
	f := newFakeFactory()
	d := NewDecoder(Context{Factory: f})

	blob := []byte{
		byte(CallHasThis) | byte(CallDefault), 0x01,
		byte(ElementVoid),
		byte(ElementByRef), byte(ElementI4),
	}
	sig, err := d.DecodeMethodSig(blob)
	if err != nil {
		t.Fatalf("DecodeMethodSig: %v", err)
	}
	if !sig.HasThis {
		t.Errorf("HasThis = false, want true")
	}
	if !sig.Params[0].ByRef {
		t.Errorf("Params[0].ByRef = false, want true")
	}
}

func TestDecodeTypeTruncatedBlobIsBadFormat(t *testing.T) {
	f := newFakeFactory()
	d := NewDecoder(Context{Factory: f})

	pos := 0
	_, err := d.DecodeType([]byte{byte(ElementSzArray)}, &pos)
	if err == nil {
		t.Fatalf("expected an error decoding a truncated SZARRAY")
	}
	if !clrerr.Is(err, clrerr.BadFormat) {
		t.Errorf("error must be ErrBadFormat, got %v", err)
	}
}
