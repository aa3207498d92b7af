// Package loader implements the two-phase type materializer from spec.md
// §4.2: a setup pass that allocates forward-declared Type/MethodInfo/
// FieldInfo entries in metadata row order (so a cyclic type graph never
// needs a type that does not exist yet), followed by a fill pass that
// resolves signatures, computes layout, builds vtables, and publishes each
// type as filled.
//
// Grounded on the teacher's internal/analyzer two-pass walker
// (declarations.go's ModeNaming/ModeHeaders/ModeBodies dance: forward-
// declare every top-level name before resolving any body against it) --
// generalized from a source-driven AST walk with "Pending" placeholder
// symbols to a metadata-row-driven pass with "unfilled" placeholder types.
package loader

import (
	"fmt"
	"sort"

	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/sig"
)

// Loader materializes one assembly from a mdsource.Producer into a fully
// filled mdmodel.Assembly.
type Loader struct {
	producer mdsource.Producer
	assembly *mdmodel.Assembly

	typeByToken   map[mdsource.Token]*mdmodel.Type
	typeToToken   map[*mdmodel.Type]mdsource.Token
	fieldByToken  map[mdsource.Token]*mdmodel.FieldInfo
	methodByToken map[mdsource.Token]*mdmodel.MethodInfo
	typeDefRows   map[mdsource.Token]mdsource.TypeDefRow

	fieldRowByHandle  map[mdmodel.FieldHandle]mdsource.FieldRow
	methodRowByHandle map[mdmodel.MethodHandle]mdsource.MethodDefRow

	typeRefRows map[mdsource.Token]mdsource.TypeRefRow

	named     map[string]*mdmodel.Type
	pointerOf map[*mdmodel.Type]*mdmodel.Type
}

// New returns a Loader ready to load one assembly out of producer.
func New(producer mdsource.Producer) *Loader {
	return &Loader{
		producer:      producer,
		typeByToken:   make(map[mdsource.Token]*mdmodel.Type),
		typeToToken:   make(map[*mdmodel.Type]mdsource.Token),
		fieldByToken:  make(map[mdsource.Token]*mdmodel.FieldInfo),
		methodByToken: make(map[mdsource.Token]*mdmodel.MethodInfo),
		typeDefRows:   make(map[mdsource.Token]mdsource.TypeDefRow),
		fieldRowByHandle:  make(map[mdmodel.FieldHandle]mdsource.FieldRow),
		methodRowByHandle: make(map[mdmodel.MethodHandle]mdsource.MethodDefRow),
		typeRefRows:   make(map[mdsource.Token]mdsource.TypeRefRow),
		named:         make(map[string]*mdmodel.Type),
		pointerOf:     make(map[*mdmodel.Type]*mdmodel.Type),
	}
}

// Load runs the full setup-then-fill pass and returns the materialized
// assembly.
func (l *Loader) Load() (*mdmodel.Assembly, error) {
	row := l.producer.Assembly()
	l.assembly = mdmodel.NewAssembly(row.Name, mdmodel.NewSyntheticModule(row.Name))
	l.assembly.UserStrings = l.producer.UserStrings()

	for i, ref := range l.producer.TypeRefs() {
		tok := mdsource.NewToken(mdsource.TypeRef, uint32(i+1))
		l.typeRefRows[tok] = ref
		l.assembly.ImportedTypes = append(l.assembly.ImportedTypes, &mdmodel.TypeRef{
			AssemblyName: ref.ResolutionScope,
			Namespace:    ref.Namespace,
			Name:         ref.Name,
		})
	}

	if err := l.setupPass(); err != nil {
		return nil, err
	}
	if err := l.fillPass(); err != nil {
		return nil, err
	}
	return l.assembly, nil
}

// setupPass allocates a forward-declared Type for every TypeDef row, then
// a forward-declared FieldInfo/MethodInfo for every Field/MethodDef row
// owned by that type, all addressed by row order per spec.md §4.2.
func (l *Loader) setupPass() error {
	fieldRows := l.producer.Fields()
	methodRows := l.producer.Methods()

	for i, row := range l.producer.TypeDefs() {
		tok := mdsource.NewToken(mdsource.TypeDef, uint32(i+1))
		l.typeDefRows[tok] = row

		t := &mdmodel.Type{
			DeclaringAssembly: l.assembly,
			Module:            &l.assembly.Module,
			Namespace:         row.Namespace,
			Name:              row.Name,
			Visibility:        visibilityFromFlags(row.Flags),
		}
		if row.Flags&flagInterface != 0 {
			t.Flags |= mdmodel.FlagInterface
		}
		if row.Flags&flagAbstract != 0 {
			t.Flags |= mdmodel.FlagAbstract
		}
		if row.Flags&flagSealed != 0 {
			t.Flags |= mdmodel.FlagSealed
		}
		if row.NestedIn != 0 {
			t.Flags |= mdmodel.FlagNestedType
		}

		l.assembly.Arena.NewType(t)
		l.assembly.DefinedTypes = append(l.assembly.DefinedTypes, t.Handle)
		l.typeByToken[tok] = t
		l.typeToToken[t] = tok

		for fi := 0; fi < row.FieldCount; fi++ {
			idx := int(row.FieldList.Row()) - 1 + fi
			if idx < 0 || idx >= len(fieldRows) {
				return clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: field range out of bounds for type %s.%s", row.Namespace, row.Name))
			}
			fr := fieldRows[idx]
			f := &mdmodel.FieldInfo{
				DeclaringType: t,
				Module:        &l.assembly.Module,
				Name:          fr.Name,
				Attr:          fieldAttrFromFlags(fr.Flags),
			}
			l.assembly.Arena.NewField(f)
			l.assembly.DefinedFields = append(l.assembly.DefinedFields, f.Handle)
			t.Fields = append(t.Fields, f)
			l.fieldByToken[fr.Token] = f
			l.fieldRowByHandle[f.Handle] = fr
		}

		for mi := 0; mi < row.MethodCount; mi++ {
			idx := int(row.MethodList.Row()) - 1 + mi
			if idx < 0 || idx >= len(methodRows) {
				return clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: method range out of bounds for type %s.%s", row.Namespace, row.Name))
			}
			mr := methodRows[idx]
			m := &mdmodel.MethodInfo{
				DeclaringType: t,
				Module:        &l.assembly.Module,
				Name:          mr.Name,
				Attr:          methodAttrFromFlags(mr.Flags),
				ImplKind:      implKindFromFlags(mr.ImplFlags),
			}
			l.assembly.Arena.NewMethod(m)
			l.assembly.DefinedMethods = append(l.assembly.DefinedMethods, m.Handle)
			t.Methods = append(t.Methods, m)
			l.methodByToken[mr.Token] = m
			l.methodRowByHandle[m.Handle] = mr
		}
	}
	return nil
}

// fillPass resolves every forward-declared entity's real types, then builds
// layout and vtables and publishes each type as filled. It runs in two
// sub-passes over the same row order: resolveType first, for every type,
// so that a field or enum referencing a type declared later in the table
// already sees it with its signatures decoded by the time layout
// computation needs its size (spec.md §9's "deep mutation during fill"
// design note) -- only layout sizing has this cross-type ordering
// requirement, so only it needs the second sub-pass's recursion.
func (l *Loader) fillPass() error {
	tokens := make([]mdsource.Token, 0, len(l.typeDefRows))
	for tok := range l.typeDefRows {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	for _, tok := range tokens {
		if err := l.resolveType(tok); err != nil {
			return err
		}
	}
	for _, tok := range tokens {
		t := l.typeByToken[tok]
		if err := l.ensureTypeLayout(t, map[*mdmodel.Type]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// resolveType decodes everything about a type that does not require any
// other type's layout to already be known: its base type and interfaces,
// its fields' and methods' signatures, and its method bodies' locals and
// exception clauses.
func (l *Loader) resolveType(tok mdsource.Token) error {
	row := l.typeDefRows[tok]
	t := l.typeByToken[tok]

	if row.Extends != 0 {
		parent, err := l.Resolve(row.Extends)
		if err != nil {
			return fmt.Errorf("loader: resolving base of %s.%s: %w", row.Namespace, row.Name, err)
		}
		t.Parent = parent
		if parent != nil && parent.Namespace == "System" && parent.Name == "Enum" {
			t.Flags |= mdmodel.FlagValueType | mdmodel.FlagEnum | mdmodel.FlagSealed
		}
		if parent != nil && parent.Namespace == "System" && parent.Name == "ValueType" {
			t.Flags |= mdmodel.FlagValueType
		}
	}

	for _, impl := range row.InterfaceImpls {
		iface, err := l.Resolve(impl.Interface)
		if err != nil {
			return fmt.Errorf("loader: resolving interface of %s.%s: %w", row.Namespace, row.Name, err)
		}
		t.Interfaces = append(t.Interfaces, mdmodel.InterfaceImpl{Interface: iface})
	}

	ctx := sig.Context{Factory: l.factory()}
	dec := sig.NewDecoder(ctx)

	for _, f := range t.Fields {
		fr := l.fieldRowOf(f)
		ft, err := dec.DecodeFieldSig(fr.Signature)
		if err != nil {
			return fmt.Errorf("loader: decoding field %s.%s::%s: %w", row.Namespace, row.Name, f.Name, err)
		}
		f.Type = ft
	}

	if t.Flags.Has(mdmodel.FlagEnum) {
		for _, f := range t.Fields {
			if !f.IsStatic() {
				t.EnumUnderlying = f.Type
				break
			}
		}
	}

	for _, m := range t.Methods {
		mr := l.methodRowOf(m)
		msig, err := dec.DecodeMethodSig(mr.Signature)
		if err != nil {
			return fmt.Errorf("loader: decoding method %s.%s::%s: %w", row.Namespace, row.Name, m.Name, err)
		}
		m.ReturnType = msig.ReturnType
		m.Params = make([]mdmodel.Param, len(msig.Params))
		for i, p := range msig.Params {
			m.Params[i] = mdmodel.Param{Type: p.Type, ByRef: p.ByRef}
		}
		if mr.Body == nil {
			continue
		}
		body := &mdmodel.MethodBody{
			CIL:        mr.Body.CIL,
			MaxStack:   mr.Body.MaxStack,
			InitLocals: mr.Body.InitLocals,
		}
		if len(mr.Body.LocalSignature) > 0 {
			locals, err := dec.DecodeLocalsSig(mr.Body.LocalSignature)
			if err != nil {
				return fmt.Errorf("loader: decoding locals of %s.%s::%s: %w", row.Namespace, row.Name, m.Name, err)
			}
			for i, lt := range locals {
				body.Locals = append(body.Locals, mdmodel.LocalVariableInfo{Index: i, Type: lt})
			}
		}
		for _, ec := range mr.Body.ExceptionClauses {
			clause := mdmodel.ExceptionHandlingClause{
				Kind:          mdmodel.ExceptionClauseKind(ec.Kind),
				TryOffset:     ec.TryOffset,
				TryLength:     ec.TryLength,
				HandlerOffset: ec.HandlerOffset,
				HandlerLength: ec.HandlerLength,
				FilterOffset:  ec.FilterOffset,
			}
			if ec.CatchType != 0 {
				ct, err := l.Resolve(ec.CatchType)
				if err != nil {
					return fmt.Errorf("loader: resolving catch type in %s.%s::%s: %w", row.Namespace, row.Name, m.Name, err)
				}
				clause.CatchType = ct
			}
			body.ExceptionClauses = append(body.ExceptionClauses, clause)
		}
		m.Body = body
	}
	return nil
}

func (l *Loader) fieldRowOf(f *mdmodel.FieldInfo) mdsource.FieldRow {
	return l.fieldRowByHandle[f.Handle]
}

func (l *Loader) methodRowOf(m *mdmodel.MethodInfo) mdsource.MethodDefRow {
	return l.methodRowByHandle[m.Handle]
}

const (
	flagInterface = 0x00000020
	flagAbstract  = 0x00000080
	flagSealed    = 0x00000100
)

func visibilityFromFlags(flags uint32) mdmodel.Visibility {
	switch flags & 0x7 {
	case 0:
		return mdmodel.VisibilityNotPublic
	case 1:
		return mdmodel.VisibilityPublic
	case 2:
		return mdmodel.VisibilityNestedPublic
	case 3:
		return mdmodel.VisibilityNestedPrivate
	case 4:
		return mdmodel.VisibilityNestedFamily
	case 5:
		return mdmodel.VisibilityNestedAssembly
	case 6:
		return mdmodel.VisibilityNestedFamANDAssem
	case 7:
		return mdmodel.VisibilityNestedFamORAssem
	default:
		return mdmodel.VisibilityNotPublic
	}
}

func fieldAttrFromFlags(flags uint32) mdmodel.FieldAttr {
	var a mdmodel.FieldAttr
	switch flags & 0x7 {
	case 1:
		a |= mdmodel.FieldPrivate
	case 2:
		a |= mdmodel.FieldFamANDAssem
	case 3:
		a |= mdmodel.FieldAssembly
	case 4:
		a |= mdmodel.FieldFamily
	case 5:
		a |= mdmodel.FieldFamORAssem
	case 6:
		a |= mdmodel.FieldPublic
	}
	if flags&0x10 != 0 {
		a |= mdmodel.FieldStatic
	}
	if flags&0x20 != 0 {
		a |= mdmodel.FieldInitOnly
	}
	return a
}

func methodAttrFromFlags(flags uint32) mdmodel.MethodAttr {
	var a mdmodel.MethodAttr
	switch flags & 0x7 {
	case 1:
		a |= mdmodel.MethodPrivate
	case 2:
		a |= mdmodel.MethodFamANDAssem
	case 3:
		a |= mdmodel.MethodAssembly
	case 4:
		a |= mdmodel.MethodFamily
	case 5:
		a |= mdmodel.MethodFamORAssem
	case 6:
		a |= mdmodel.MethodPublic
	}
	if flags&0x10 != 0 {
		a |= mdmodel.MethodStatic
	}
	if flags&0x40 != 0 {
		a |= mdmodel.MethodVirtual
	}
	if flags&0x80 != 0 {
		a |= mdmodel.MethodAbstract
	}
	if flags&0x20 != 0 {
		a |= mdmodel.MethodFinal
	}
	return a
}

func implKindFromFlags(implFlags uint32) mdmodel.ImplKind {
	switch implFlags & 0x3 {
	case 1:
		return mdmodel.ImplNative
	case 3:
		return mdmodel.ImplRuntime
	default:
		return mdmodel.ImplIL
	}
}
