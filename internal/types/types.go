package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind is the primitive kind of an inferred type.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNull
	KindBool
	KindFalse
	KindInt
	KindFloat
	KindString
	KindArray
	KindTuple
	KindClass
	// KindMixed is the universal type: any value, including an absent one.
	KindMixed
	KindVoid
	KindAny
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindFalse:
		return "false"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindClass:
		return "class"
	case KindMixed:
		return "mixed"
	case KindVoid:
		return "void"
	case KindAny:
		return "any"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor of an inferred type.
type Type struct {
	Kind    Kind
	Elem    TypeID // array element
	OrFalse bool
	OrNull  bool
	Payload uint32 // tuple or class slot
}

// PType returns the primitive kind.
func (t Type) PType() Kind { return t.Kind }

// UseOrFalse reports whether the type is a `T|false` union.
func (t Type) UseOrFalse() bool { return t.OrFalse }

// UseOrNull reports whether the type is nullable.
func (t Type) UseOrNull() bool { return t.OrNull }

// IsUniversal reports whether the value may be anything, including absent.
func (t Type) IsUniversal() bool { return t.Kind == KindMixed }

// IsTuple reports whether slots of the value are statically known.
func (t Type) IsTuple() bool { return t.Kind == KindTuple }

// Descriptor helpers ---------------------------------------------------------

// MakePrimitive describes a type with no element or payload.
func MakePrimitive(kind Kind) Type {
	return Type{Kind: kind}
}

// MakeArray describes `elem[]`.
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// WithOrFalse returns t extended with `|false`.
func (t Type) WithOrFalse() Type {
	t.OrFalse = true
	return t
}

// WithOrNull returns t extended with `|null`.
func (t Type) WithOrNull() Type {
	t.OrNull = true
	return t
}
