package sig

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
)

// MethodSig is the decoded form of a method signature blob (spec.md §4.1):
// calling convention, parameter types, return type, and (for CallGeneric)
// the generic parameter count.
type MethodSig struct {
	Convention     CallingConvention
	HasThis        bool
	ExplicitThis   bool
	GenericParamCount int
	ReturnType     *mdmodel.Type
	ByRefReturn    bool
	Params         []ParamSig
}

// ParamSig is one parameter of a decoded method signature.
type ParamSig struct {
	Type  *mdmodel.Type
	ByRef bool
}

// ArrayShape is the decoded shape clause of an ARRAY (not SZARRAY) type,
// ECMA-335 §II.23.2.13.
type ArrayShape struct {
	Rank      int
	Sizes     []int
	LoBounds  []int
}

// Decoder decodes signature blobs against a fixed Context. It never
// mutates metadata (spec.md §4.1).
type Decoder struct {
	ctx Context
}

// NewDecoder returns a Decoder bound to ctx.
func NewDecoder(ctx Context) *Decoder {
	return &Decoder{ctx: ctx}
}

// DecodeType decodes one TYPE production (ECMA-335 §II.23.2.12) starting at
// *pos within blob, advancing *pos past it.
func (d *Decoder) DecodeType(blob []byte, pos *int) (*mdmodel.Type, error) {
	tag, err := readByte(blob, pos)
	if err != nil {
		return nil, err
	}

	// CMOD_REQD/CMOD_OPT carry a following TypeDefOrRef token and then the
	// real type; the core has no use for custom modifiers so they are
	// skipped rather than represented in mdmodel.
	for ElementType(tag) == ElementCModReqd || ElementType(tag) == ElementCModOpt {
		if _, err := readCompressedUint(blob, pos); err != nil {
			return nil, err
		}
		tag, err = readByte(blob, pos)
		if err != nil {
			return nil, err
		}
	}

	switch ElementType(tag) {
	case ElementVoid, ElementBoolean, ElementChar, ElementI1, ElementU1,
		ElementI2, ElementU2, ElementI4, ElementU4, ElementI8, ElementU8,
		ElementR4, ElementR8, ElementI, ElementU, ElementTypedByRef:
		return d.ctx.Factory.Primitive(ElementType(tag)), nil

	case ElementString:
		return d.ctx.Factory.String(), nil

	case ElementObject:
		return d.ctx.Factory.Object(), nil

	case ElementValueType, ElementClass:
		tok, err := d.decodeTypeDefOrRefToken(blob, pos)
		if err != nil {
			return nil, err
		}
		return d.ctx.Factory.Resolve(tok)

	case ElementVar:
		n, err := readCompressedUint(blob, pos)
		if err != nil {
			return nil, err
		}
		return d.ctx.classArg(int(n))

	case ElementMVar:
		n, err := readCompressedUint(blob, pos)
		if err != nil {
			return nil, err
		}
		return d.ctx.methodArg(int(n))

	case ElementSzArray:
		elem, err := d.DecodeType(blob, pos)
		if err != nil {
			return nil, err
		}
		return d.ctx.Factory.Array(elem), nil

	case ElementArray:
		elem, err := d.DecodeType(blob, pos)
		if err != nil {
			return nil, err
		}
		if _, err := d.decodeArrayShape(blob, pos); err != nil {
			return nil, err
		}
		// Multi-dimensional arrays share the same element-type identity as
		// SZARRAY for our purposes; rank/bounds live only in the shape,
		// which the loader discards once the array Type is materialized
		// (spec.md §4.3 gives ARRAY the same layout rule as SZARRAY).
		return d.ctx.Factory.Array(elem), nil

	case ElementPtr:
		elem, err := d.DecodeType(blob, pos)
		if err != nil {
			return nil, err
		}
		return d.ctx.Factory.Pointer(elem), nil

	case ElementByRef:
		elem, err := d.DecodeType(blob, pos)
		if err != nil {
			return nil, err
		}
		if elem.IsByRef() {
			return nil, badFormat("sig: BYREF of BYREF is invalid")
		}
		return d.ctx.Factory.ByRef(elem), nil

	case ElementGenericInst:
		return d.decodeGenericInst(blob, pos)

	default:
		return nil, badFormat("sig: illegal element type tag 0x%02x", tag)
	}
}

func (d *Decoder) decodeGenericInst(blob []byte, pos *int) (*mdmodel.Type, error) {
	kind, err := readByte(blob, pos)
	if err != nil {
		return nil, err
	}
	if ElementType(kind) != ElementValueType && ElementType(kind) != ElementClass {
		return nil, badFormat("sig: GENERICINST must be preceded by CLASS or VALUETYPE, got 0x%02x", kind)
	}
	tok, err := d.decodeTypeDefOrRefToken(blob, pos)
	if err != nil {
		return nil, err
	}
	def, err := d.ctx.Factory.Resolve(tok)
	if err != nil {
		return nil, err
	}
	argc, err := readCompressedUint(blob, pos)
	if err != nil {
		return nil, err
	}
	args := make([]*mdmodel.Type, argc)
	for i := range args {
		args[i], err = d.DecodeType(blob, pos)
		if err != nil {
			return nil, err
		}
	}
	return d.ctx.Factory.Instantiate(def, args), nil
}

func (d *Decoder) decodeArrayShape(blob []byte, pos *int) (ArrayShape, error) {
	rank, err := readCompressedUint(blob, pos)
	if err != nil {
		return ArrayShape{}, err
	}
	numSizes, err := readCompressedUint(blob, pos)
	if err != nil {
		return ArrayShape{}, err
	}
	sizes := make([]int, numSizes)
	for i := range sizes {
		v, err := readCompressedUint(blob, pos)
		if err != nil {
			return ArrayShape{}, err
		}
		sizes[i] = int(v)
	}
	numLoBounds, err := readCompressedUint(blob, pos)
	if err != nil {
		return ArrayShape{}, err
	}
	loBounds := make([]int, numLoBounds)
	for i := range loBounds {
		v, err := readCompressedInt(blob, pos)
		if err != nil {
			return ArrayShape{}, err
		}
		loBounds[i] = int(v)
	}
	return ArrayShape{Rank: int(rank), Sizes: sizes, LoBounds: loBounds}, nil
}

// decodeTypeDefOrRefToken decodes a compressed TypeDefOrRef coded index
// (ECMA-335 §II.23.2.8) into a real metadata token: the low 2 bits select
// the table (TypeDef/TypeRef/TypeSpec), the rest is the 1-based row index.
func (d *Decoder) decodeTypeDefOrRefToken(blob []byte, pos *int) (mdsource.Token, error) {
	coded, err := readCompressedUint(blob, pos)
	if err != nil {
		return 0, err
	}
	var table mdsource.TableID
	switch coded & 0x3 {
	case 0:
		table = mdsource.TypeDef
	case 1:
		table = mdsource.TypeRef
	case 2:
		table = mdsource.TypeSpec
	default:
		return 0, badFormat("sig: illegal TypeDefOrRef coded-index tag %d", coded&0x3)
	}
	return mdsource.NewToken(table, coded>>2), nil
}

// DecodeFieldSig decodes a FIELD signature blob (ECMA-335 §II.23.2.4): a
// lead byte 0x06 followed by one TYPE.
func (d *Decoder) DecodeFieldSig(blob []byte) (*mdmodel.Type, error) {
	pos := 0
	lead, err := readByte(blob, &pos)
	if err != nil {
		return nil, err
	}
	const fieldLead = 0x06
	if lead != fieldLead {
		return nil, badFormat("sig: field signature must start with 0x06, got 0x%02x", lead)
	}
	return d.DecodeType(blob, &pos)
}

// DecodeMethodSig decodes a METHOD signature blob (ECMA-335 §II.23.2.1).
func (d *Decoder) DecodeMethodSig(blob []byte) (*MethodSig, error) {
	pos := 0
	lead, err := readByte(blob, &pos)
	if err != nil {
		return nil, err
	}

	sig := &MethodSig{
		Convention:   CallingConvention(lead & 0x0F),
		HasThis:      lead&byte(CallHasThis) != 0,
		ExplicitThis: lead&byte(CallExplicitThis) != 0,
	}

	if lead&byte(CallGeneric) != 0 {
		gc, err := readCompressedUint(blob, &pos)
		if err != nil {
			return nil, err
		}
		sig.GenericParamCount = int(gc)
	}

	paramCount, err := readCompressedUint(blob, &pos)
	if err != nil {
		return nil, err
	}

	sig.ReturnType, sig.ByRefReturn, err = d.decodeRetOrParamType(blob, &pos)
	if err != nil {
		return nil, err
	}

	sig.Params = make([]ParamSig, paramCount)
	for i := range sig.Params {
		typ, byRef, err := d.decodeRetOrParamType(blob, &pos)
		if err != nil {
			return nil, err
		}
		sig.Params[i] = ParamSig{Type: typ, ByRef: byRef}
	}

	return sig, nil
}

// decodeRetOrParamType handles the BYREF-or-plain-TYPE production shared by
// RetType and Param (ECMA-335 §II.23.2.11 and §II.23.2.10). VOID is only
// legal for a return type, but this decoder does not reject it for a
// parameter: DecodeType returns the Void primitive in either position.
func (d *Decoder) decodeRetOrParamType(blob []byte, pos *int) (*mdmodel.Type, bool, error) {
	if *pos < len(blob) && ElementType(blob[*pos]) == ElementByRef {
		*pos++
		t, err := d.DecodeType(blob, pos)
		return t, true, err
	}
	t, err := d.DecodeType(blob, pos)
	return t, false, err
}

// DecodeLocalsSig decodes a LOCAL_VAR signature blob (ECMA-335 §II.23.2.6):
// lead byte 0x07 followed by a count and that many TYPEs.
func (d *Decoder) DecodeLocalsSig(blob []byte) ([]*mdmodel.Type, error) {
	pos := 0
	lead, err := readByte(blob, &pos)
	if err != nil {
		return nil, err
	}
	const localsLead = 0x07
	if lead != localsLead {
		return nil, badFormat("sig: locals signature must start with 0x07, got 0x%02x", lead)
	}
	count, err := readCompressedUint(blob, &pos)
	if err != nil {
		return nil, err
	}
	locals := make([]*mdmodel.Type, count)
	for i := range locals {
		locals[i], err = d.DecodeType(blob, &pos)
		if err != nil {
			return nil, err
		}
	}
	return locals, nil
}
