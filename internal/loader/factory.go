package loader

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/clrerr"
	"github.com/clrcore/clrcore/internal/layout"
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/sig"
)

// typeFactory adapts Loader to sig.Factory, the bridge the signature decoder
// uses to materialize the types its blobs describe (spec.md §4.1).
type typeFactory struct{ l *Loader }

func (l *Loader) factory() sig.Factory { return typeFactory{l: l} }

var _ sig.Factory = typeFactory{}

func (tf typeFactory) Primitive(et sig.ElementType) *mdmodel.Type { return tf.l.primitive(et) }
func (tf typeFactory) Object() *mdmodel.Type                      { return tf.l.Named("Object") }
func (tf typeFactory) String() *mdmodel.Type                      { return tf.l.Named("String") }
func (tf typeFactory) Array(elem *mdmodel.Type) *mdmodel.Type     { return tf.l.array(elem) }
func (tf typeFactory) Pointer(elem *mdmodel.Type) *mdmodel.Type   { return tf.l.pointer(elem) }
func (tf typeFactory) ByRef(elem *mdmodel.Type) *mdmodel.Type     { return tf.l.byRef(elem) }
func (tf typeFactory) Instantiate(def *mdmodel.Type, args []*mdmodel.Type) *mdmodel.Type {
	return tf.l.instantiate(def, args)
}
func (tf typeFactory) Resolve(token mdsource.Token) (*mdmodel.Type, error) { return tf.l.Resolve(token) }

var primitiveElementNames = map[sig.ElementType]string{
	sig.ElementVoid:       "Void",
	sig.ElementBoolean:    "Boolean",
	sig.ElementChar:       "Char",
	sig.ElementI1:         "SByte",
	sig.ElementU1:         "Byte",
	sig.ElementI2:         "Int16",
	sig.ElementU2:         "UInt16",
	sig.ElementI4:         "Int32",
	sig.ElementU4:         "UInt32",
	sig.ElementI8:         "Int64",
	sig.ElementU8:         "UInt64",
	sig.ElementR4:         "Single",
	sig.ElementR8:         "Double",
	sig.ElementI:          "IntPtr",
	sig.ElementU:          "UIntPtr",
	sig.ElementTypedByRef: "TypedReference",
}

func (l *Loader) primitive(et sig.ElementType) *mdmodel.Type {
	name, ok := primitiveElementNames[et]
	if !ok {
		name = "Void"
	}
	return l.Named(name)
}

// Named returns the loader's shared instance of a well-known System.*
// type, creating and filling it on first request. It doubles as a
// verify.TypeNamer for the canonical-primitive lookups the verifier's
// assignability rules need (spec.md §4.5).
//
// Only the fixed corelib surface this core actually reasons about is
// modeled here: without a real multi-assembly resolver (out of scope per
// spec.md §1), a single in-process loader cannot discover arbitrary
// TypeRef targets, so anything outside this set is reported via Resolve
// as clrerr.NotFound instead of silently fabricated.
func (l *Loader) Named(name string) *mdmodel.Type {
	if t, ok := l.named[name]; ok {
		return t
	}
	t := &mdmodel.Type{
		DeclaringAssembly: l.assembly,
		Module:            &l.assembly.Module,
		Namespace:         "System",
		Name:              name,
	}
	l.assembly.Arena.NewType(t)
	l.named[name] = t

	switch name {
	case "Void":
		t.SetLayout(mdmodel.Layout{})
	case "ValueType", "Enum":
		t.Flags |= mdmodel.FlagAbstract
		t.SetLayout(mdmodel.Layout{StackType: mdmodel.StackTypeValueType})
	case "TypedReference":
		t.Flags |= mdmodel.FlagValueType
		t.SetLayout(mdmodel.Layout{
			StackSize: 2 * layout.PointerSize, StackAlign: layout.PointerSize,
			ManagedSize: 2 * layout.PointerSize, ManagedAlign: layout.PointerSize,
			StackType: mdmodel.StackTypeValueType,
		})
	default:
		if size, align, ok := layout.PrimitiveSizeAlign(name); ok {
			t.Flags |= mdmodel.FlagValueType
			t.SetLayout(mdmodel.Layout{
				StackSize: size, StackAlign: align,
				ManagedSize: size, ManagedAlign: align,
				StackType: primitiveStackType(name),
			})
			break
		}
		// Object, String, Array, Exception and anything else requested by
		// name: a plain reference type with no declared fields. Real
		// field/method surface for these lives in the assembly being
		// loaded, not in this synthetic placeholder -- it exists only so
		// Resolve has something to hand back for a corelib base-type
		// reference.
		if name != "Object" {
			t.Parent = l.Named("Object")
		}
		t.SetLayout(layout.ComputeReferenceLayout(nil))
	}
	return t
}

func primitiveStackType(name string) mdmodel.StackType {
	switch name {
	case "Int64", "UInt64":
		return mdmodel.StackTypeInt64
	case "IntPtr", "UIntPtr":
		return mdmodel.StackTypeIntPtr
	case "Single", "Double":
		return mdmodel.StackTypeFloat
	default:
		return mdmodel.StackTypeInt32
	}
}

func (l *Loader) array(elem *mdmodel.Type) *mdmodel.Type {
	return elem.ArrayOf(func(e *mdmodel.Type) *mdmodel.Type {
		t := &mdmodel.Type{
			DeclaringAssembly: l.assembly,
			Module:            &l.assembly.Module,
			Namespace:         e.Namespace,
			Name:              e.Name + "[]",
			Flags:             mdmodel.FlagArray,
			ElementType:       e,
			Parent:            l.Named("Array"),
		}
		l.assembly.Arena.NewType(t)
		t.SetLayout(layout.ComputeArrayLayout())
		return t
	})
}

func (l *Loader) pointer(elem *mdmodel.Type) *mdmodel.Type {
	if p, ok := l.pointerOf[elem]; ok {
		return p
	}
	t := &mdmodel.Type{
		DeclaringAssembly: l.assembly,
		Module:            &l.assembly.Module,
		Namespace:         elem.Namespace,
		Name:              elem.Name + "*",
		Flags:             mdmodel.FlagPointer,
		ElementType:       elem,
	}
	l.assembly.Arena.NewType(t)
	t.SetLayout(mdmodel.Layout{
		StackSize: layout.PointerSize, StackAlign: layout.PointerSize,
		ManagedSize: layout.PointerSize, ManagedAlign: layout.PointerSize,
		StackType: mdmodel.StackTypeIntPtr,
	})
	l.pointerOf[elem] = t
	return t
}

func (l *Loader) byRef(elem *mdmodel.Type) *mdmodel.Type {
	return elem.ByRefOf(func(e *mdmodel.Type) *mdmodel.Type {
		t := &mdmodel.Type{
			DeclaringAssembly: l.assembly,
			Module:            &l.assembly.Module,
			Namespace:         e.Namespace,
			Name:              e.Name + "&",
			Flags:             mdmodel.FlagByRef,
			ElementType:       e,
		}
		l.assembly.Arena.NewType(t)
		t.SetLayout(layout.ComputeByRefLayout())
		return t
	})
}

// instantiate builds a generic instantiation by direct substitution of each
// VAR n in def's own field/method signatures with args[n] (spec.md §4.1's
// generic-instantiation production). This core materializes only
// type-level generics this way; it does not walk into nested
// array/pointer/byref-wrapped VARs beyond what substituteVar already
// covers, and JIT-side generic *methods* are out of scope (spec.md §1).
func (l *Loader) instantiate(def *mdmodel.Type, args []*mdmodel.Type) *mdmodel.Type {
	return def.Instantiate(args, func(d *mdmodel.Type, a []*mdmodel.Type) *mdmodel.Type {
		t := &mdmodel.Type{
			DeclaringAssembly: d.DeclaringAssembly,
			Module:            d.Module,
			Namespace:         d.Namespace,
			Name:              d.Name,
			Flags:             d.Flags &^ mdmodel.FlagGenericDefinition,
			Visibility:        d.Visibility,
			Parent:            d.Parent,
			GenericDefinition: d,
			GenericArgs:       append([]*mdmodel.Type(nil), a...),
		}
		l.assembly.Arena.NewType(t)

		for _, f := range d.Fields {
			nf := &mdmodel.FieldInfo{
				DeclaringType: t,
				Module:        d.Module,
				Name:          f.Name,
				Type:          substituteVar(f.Type, a),
				Attr:          f.Attr,
			}
			l.assembly.Arena.NewField(nf)
			t.Fields = append(t.Fields, nf)
		}
		for _, m := range d.Methods {
			nm := &mdmodel.MethodInfo{
				DeclaringType: t,
				Module:        d.Module,
				Name:          m.Name,
				ReturnType:    substituteVar(m.ReturnType, a),
				Params:        substituteParams(m.Params, a),
				Attr:          m.Attr,
				ImplKind:      m.ImplKind,
				Body:          m.Body,
			}
			l.assembly.Arena.NewMethod(nm)
			t.Methods = append(t.Methods, nm)
		}

		if err := l.ensureTypeLayout(t, map[*mdmodel.Type]bool{}); err != nil {
			// Instantiate has no error return per sig.Factory; a malformed
			// instantiation (e.g. a field whose substituted type is
			// itself an unfilled cyclic value type) surfaces as a panic
			// here rather than silently shipping an unfilled Type, since
			// every other reader assumes IsFilled() once construction
			// returns.
			panic(fmt.Sprintf("loader: instantiating %s: %v", d, err))
		}
		return t
	})
}

func substituteVar(t *mdmodel.Type, args []*mdmodel.Type) *mdmodel.Type {
	if t != nil && t.IsGenericParameter() && t.GenericParamIndex < len(args) {
		return args[t.GenericParamIndex]
	}
	return t
}

func substituteParams(params []mdmodel.Param, args []*mdmodel.Type) []mdmodel.Param {
	out := make([]mdmodel.Param, len(params))
	for i, p := range params {
		out[i] = mdmodel.Param{Name: p.Name, Type: substituteVar(p.Type, args), ByRef: p.ByRef}
	}
	return out
}

// Resolve answers a metadata token with the Type it names (spec.md §4.1,
// §4.2). TypeDef tokens resolve within this assembly's own arena;
// TypeRef tokens resolve only against the fixed well-known corelib
// surface Named recognizes (see its doc comment); TypeSpec tokens decode
// their blob on demand.
func (l *Loader) Resolve(token mdsource.Token) (*mdmodel.Type, error) {
	if token == 0 {
		return nil, nil
	}
	switch token.Table() {
	case mdsource.TypeDef:
		t, ok := l.typeByToken[token]
		if !ok {
			return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown TypeDef token %#08x", uint32(token)))
		}
		return t, nil

	case mdsource.TypeRef:
		ref, ok := l.typeRefRows[token]
		if !ok {
			return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown TypeRef token %#08x", uint32(token)))
		}
		t, err := l.resolveWellKnown(ref.Namespace, ref.Name)
		if err != nil {
			return nil, err
		}
		for _, ir := range l.assembly.ImportedTypes {
			if ir.Namespace == ref.Namespace && ir.Name == ref.Name && ir.AssemblyName == ref.ResolutionScope {
				ir.Resolved = t
			}
		}
		return t, nil

	case mdsource.TypeSpec:
		row := token.Row()
		if row < 1 || int(row) > len(l.assembly.DefinedTypeSpecs) {
			return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown TypeSpec token %#08x", uint32(token)))
		}
		blob := l.assembly.DefinedTypeSpecs[row-1]
		dec := sig.NewDecoder(sig.Context{Factory: l.factory()})
		pos := 0
		return dec.DecodeType(blob, &pos)

	default:
		return nil, clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: token %#08x names a table unsupported for type resolution", uint32(token)))
	}
}

// ResolveMethod answers a MethodDef token with the MethodInfo it names
// (spec.md §4.7's call/callvirt/newobj token resolution). Only MethodDef
// tokens resolve; MemberRef tokens would need the multi-assembly resolver
// spec.md §1 places out of scope.
func (l *Loader) ResolveMethod(token mdsource.Token) (*mdmodel.MethodInfo, error) {
	if token.Table() != mdsource.MethodDef {
		return nil, clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: token %#08x does not name a method", uint32(token)))
	}
	m, ok := l.methodByToken[token]
	if !ok {
		return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown MethodDef token %#08x", uint32(token)))
	}
	return m, nil
}

// ResolveField answers a Field token with the FieldInfo it names (spec.md
// §4.7's ldfld/stfld/ldsfld/stsfld token resolution).
func (l *Loader) ResolveField(token mdsource.Token) (*mdmodel.FieldInfo, error) {
	if token.Table() != mdsource.Field {
		return nil, clrerr.Wrap(clrerr.BadFormat, fmt.Errorf("loader: token %#08x does not name a field", uint32(token)))
	}
	f, ok := l.fieldByToken[token]
	if !ok {
		return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown Field token %#08x", uint32(token)))
	}
	return f, nil
}

// TypeNamer adapts Loader.Named to the verify.TypeNamer signature.
func (l *Loader) TypeNamer() func(string) *mdmodel.Type { return l.Named }

// ByRefMaker adapts Loader.byRef to the verify.ByRefMaker signature.
func (l *Loader) ByRefMaker() func(*mdmodel.Type) *mdmodel.Type { return l.byRef }

// ArrayMaker adapts Loader.array to internal/jit's Resolver signature, the
// SZARRAY-derivative maker newarr needs (mirrors ByRefMaker).
func (l *Loader) ArrayMaker() func(*mdmodel.Type) *mdmodel.Type { return l.array }

func (l *Loader) resolveWellKnown(namespace, name string) (*mdmodel.Type, error) {
	if namespace != "System" {
		return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf(
			"loader: cannot resolve external type %s.%s: only well-known System corelib names resolve without a multi-assembly loader (out of scope, spec.md §1)",
			namespace, name))
	}
	switch name {
	case "Object", "String", "ValueType", "Array", "Enum", "Exception",
		"Boolean", "Char", "SByte", "Byte", "Int16", "UInt16", "Int32", "UInt32",
		"Int64", "UInt64", "Single", "Double", "IntPtr", "UIntPtr", "Void", "TypedReference":
		return l.Named(name), nil
	default:
		return nil, clrerr.Wrap(clrerr.NotFound, fmt.Errorf("loader: unknown well-known corelib type System.%s", name))
	}
}
