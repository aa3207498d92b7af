// Package sig decodes CLI binary signature blobs into materialized type
// references, per spec.md §4.1. The decoder is pure: it never mutates
// metadata, and it resolves tokens only through the Factory supplied in
// its Context.
package sig

// ElementType is the ECMA-335 §II.23.1.16 element-type tag that begins
// almost every signature production.
type ElementType byte

const (
	ElementEnd     ElementType = 0x00
	ElementVoid    ElementType = 0x01
	ElementBoolean ElementType = 0x02
	ElementChar    ElementType = 0x03
	ElementI1      ElementType = 0x04
	ElementU1      ElementType = 0x05
	ElementI2      ElementType = 0x06
	ElementU2      ElementType = 0x07
	ElementI4      ElementType = 0x08
	ElementU4      ElementType = 0x09
	ElementI8      ElementType = 0x0A
	ElementU8      ElementType = 0x0B
	ElementR4      ElementType = 0x0C
	ElementR8      ElementType = 0x0D
	ElementString  ElementType = 0x0E
	ElementPtr     ElementType = 0x0F
	ElementByRef   ElementType = 0x10
	ElementValueType ElementType = 0x11
	ElementClass   ElementType = 0x12
	ElementVar     ElementType = 0x13
	ElementArray   ElementType = 0x14
	ElementGenericInst ElementType = 0x15
	ElementTypedByRef  ElementType = 0x16
	ElementI       ElementType = 0x18
	ElementU       ElementType = 0x19
	ElementFnPtr   ElementType = 0x1B
	ElementObject  ElementType = 0x1C
	ElementSzArray ElementType = 0x1D
	ElementMVar    ElementType = 0x1E
	ElementCModReqd ElementType = 0x1F
	ElementCModOpt  ElementType = 0x20
	ElementInternal ElementType = 0x21
	ElementSentinel ElementType = 0x41
	ElementPinned   ElementType = 0x45
)

// CallingConvention is the low nibble of a method signature's leading byte
// (ECMA-335 §II.23.2.1-3).
type CallingConvention byte

const (
	CallDefault   CallingConvention = 0x0
	CallVarArg    CallingConvention = 0x5
	CallGeneric   CallingConvention = 0x10
	CallHasThis   CallingConvention = 0x20
	CallExplicitThis CallingConvention = 0x40
)
