package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unknown TypeID
	Null    TypeID
	Bool    TypeID
	False   TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
	Mixed   TypeID
	Void    TypeID
	Any     TypeID
	// Array is `mixed[]`, the type of an untyped `array`.
	Array TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins

	tuples     [][]TypeID
	tupleIndex map[string]uint32
	classes    []string
	classIndex map[string]uint32
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		types:      make([]Type, 1, 64), // reserve 0 as NoTypeID
		index:      make(map[Type]TypeID, 64),
		tuples:     make([][]TypeID, 1),
		tupleIndex: make(map[string]uint32),
		classes:    make([]string, 1),
		classIndex: make(map[string]uint32),
	}
	in.builtins.Unknown = in.Intern(MakePrimitive(KindUnknown))
	in.builtins.Null = in.Intern(MakePrimitive(KindNull))
	in.builtins.Bool = in.Intern(MakePrimitive(KindBool))
	in.builtins.False = in.Intern(MakePrimitive(KindFalse))
	in.builtins.Int = in.Intern(MakePrimitive(KindInt))
	in.builtins.Float = in.Intern(MakePrimitive(KindFloat))
	in.builtins.String = in.Intern(MakePrimitive(KindString))
	in.builtins.Mixed = in.Intern(MakePrimitive(KindMixed))
	in.builtins.Void = in.Intern(MakePrimitive(KindVoid))
	in.builtins.Any = in.Intern(MakePrimitive(KindAny))
	in.builtins.Array = in.Intern(MakeArray(in.builtins.Mixed))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if id, ok := in.index[t]; ok {
		return id
	}
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Errorf("types: invalid TypeID %d", id))
	}
	return tt
}

// RegisterTuple creates or finds the tuple type with the given elements.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	var key strings.Builder
	for i, e := range elems {
		if i > 0 {
			key.WriteByte(',')
		}
		fmt.Fprintf(&key, "%d", e)
	}
	slot, ok := in.tupleIndex[key.String()]
	if !ok {
		var err error
		slot, err = safecast.Conv[uint32](len(in.tuples))
		if err != nil {
			panic(fmt.Errorf("tuple info overflow: %w", err))
		}
		in.tuples = append(in.tuples, append([]TypeID(nil), elems...))
		in.tupleIndex[key.String()] = slot
	}
	return in.Intern(Type{Kind: KindTuple, Payload: slot})
}

// TupleElems returns the element types of a tuple TypeID.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return in.tuples[tt.Payload], true
}

// RegisterClass creates or finds the class instance type with the given name.
func (in *Interner) RegisterClass(name string) TypeID {
	slot, ok := in.classIndex[name]
	if !ok {
		var err error
		slot, err = safecast.Conv[uint32](len(in.classes))
		if err != nil {
			panic(fmt.Errorf("class info overflow: %w", err))
		}
		in.classes = append(in.classes, name)
		in.classIndex[name] = slot
	}
	return in.Intern(Type{Kind: KindClass, Payload: slot})
}

// WithOrFalse interns id extended with `|false`.
func (in *Interner) WithOrFalse(id TypeID) TypeID {
	return in.Intern(in.MustLookup(id).WithOrFalse())
}

// WithOrNull interns id extended with `|null`.
func (in *Interner) WithOrNull(id TypeID) TypeID {
	return in.Intern(in.MustLookup(id).WithOrNull())
}

// String renders id the way it is spelled in phpdoc.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<no type>"
	}
	var b strings.Builder
	if tt.OrNull && tt.Kind != KindNull && tt.Kind != KindMixed {
		b.WriteByte('?')
	}
	switch tt.Kind {
	case KindArray:
		elem := in.String(tt.Elem)
		if strings.ContainsAny(elem, "|?") {
			elem = "(" + elem + ")"
		}
		b.WriteString(elem)
		b.WriteString("[]")
	case KindTuple:
		b.WriteString("tuple(")
		elems, _ := in.TupleElems(id)
		for i, e := range elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.String(e))
		}
		b.WriteByte(')')
	case KindClass:
		if int(tt.Payload) < len(in.classes) {
			b.WriteString(in.classes[tt.Payload])
		}
	default:
		b.WriteString(tt.Kind.String())
	}
	if tt.OrFalse && tt.Kind != KindFalse && tt.Kind != KindBool {
		b.WriteString("|false")
	}
	return b.String()
}
