package jit

import (
	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/mdsource"
)

// Resolver is everything the translator needs from the type materializer
// (internal/loader) to turn a token into metadata: type/method/field
// lookup, the shared well-known-type namer, and the by-ref derivative
// maker the verifier's canonicalization chain needs. *loader.Loader
// implements this; internal/driver is the only caller that constructs one.
type Resolver interface {
	Resolve(token mdsource.Token) (*mdmodel.Type, error)
	ResolveMethod(token mdsource.Token) (*mdmodel.MethodInfo, error)
	ResolveField(token mdsource.Token) (*mdmodel.FieldInfo, error)
	Named(name string) *mdmodel.Type
	TypeNamer() func(string) *mdmodel.Type
	ByRefMaker() func(*mdmodel.Type) *mdmodel.Type
	ArrayMaker() func(*mdmodel.Type) *mdmodel.Type
}
