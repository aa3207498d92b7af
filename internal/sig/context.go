package sig

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
)

// Factory builds the derived Type values a signature decode may need:
// primitives, SZARRAY/ARRAY/PTR/BYREF derivatives, and generic
// instantiations. internal/loader supplies the concrete implementation
// backed by mdmodel's arena and the per-type derivative caches (spec.md §3,
// invariant (d); §4.4's interface-impl offsets are unrelated and live in
// internal/layout instead).
type Factory interface {
	Primitive(ElementType) *mdmodel.Type
	Object() *mdmodel.Type
	String() *mdmodel.Type
	Array(elem *mdmodel.Type) *mdmodel.Type
	Pointer(elem *mdmodel.Type) *mdmodel.Type
	ByRef(elem *mdmodel.Type) *mdmodel.Type
	Instantiate(def *mdmodel.Type, args []*mdmodel.Type) *mdmodel.Type
	Resolve(token mdsource.Token) (*mdmodel.Type, error)
}

// Context is the resolution context a signature decode runs against: the
// current assembly plus the type-arguments-in-scope for the enclosing type
// (class VAR) and method (MVAR), per spec.md §4.1.
type Context struct {
	Factory        Factory
	ClassTypeArgs  []*mdmodel.Type
	MethodTypeArgs []*mdmodel.Type
}

func (c Context) classArg(n int) (*mdmodel.Type, error) {
	if n < 0 || n >= len(c.ClassTypeArgs) {
		return nil, badFormat("sig: VAR %d out of range (have %d class type args)", n, len(c.ClassTypeArgs))
	}
	return c.ClassTypeArgs[n], nil
}

func (c Context) methodArg(n int) (*mdmodel.Type, error) {
	if n < 0 || n >= len(c.MethodTypeArgs) {
		return nil, badFormat("sig: MVAR %d out of range (have %d method type args)", n, len(c.MethodTypeArgs))
	}
	return c.MethodTypeArgs[n], nil
}
