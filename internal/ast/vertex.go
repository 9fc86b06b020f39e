// Package ast defines Vertex, the generic node every compiler pass walks and rewrites.
//
// A vertex owns its children. The number of children is fixed once, at creation, and
// never changes afterwards: passes may replace a child in place but never resize the
// sequence. Per-kind behaviour (which associated values a kind carries, named sons,
// child ranges) comes from the operation catalog.
package ast

import (
	"sync/atomic"

	"phpc/internal/data"
	"phpc/internal/source"
	"phpc/internal/types"
)

var lastVertexID uint32

func nextVertexID() uint32 {
	return atomic.AddUint32(&lastVertexID, 1)
}

// extras are the associated values; only those allowed by the catalog are reachable.
type extras struct {
	str  string
	fn   *data.Function
	vari *data.Var
}

// Vertex is a node of the syntax tree.
type Vertex struct {
	op       Operation
	n        int // -1 until RawInit
	children []*Vertex
	ext      extras

	ID uint32
	// TypeRule is shared between clones: type rules are immutable.
	TypeRule *Vertex
	Location source.Span

	ExtraType OperationExtra
	TypeHelp  types.Kind
	RLType    RLValueType
	ValRef    RLValueType
	ConstType ConstValueType
	Flags     Flags
}

// Child is an argument of Create: a single *Vertex or a whole Seq.
type Child interface {
	childCount() int
	appendTo(dst []*Vertex) []*Vertex
}

// Seq is an ordered group of children appended as a whole.
type Seq []*Vertex

func (s Seq) childCount() int                   { return len(s) }
func (s Seq) appendTo(dst []*Vertex) []*Vertex { return append(dst, s...) }

func (v *Vertex) childCount() int                   { return 1 }
func (v *Vertex) appendTo(dst []*Vertex) []*Vertex { return append(dst, v) }

// Raw allocates a vertex whose arity is not fixed yet. Call RawInit exactly once.
func Raw(op Operation) *Vertex {
	return &Vertex{
		op:        op,
		n:         -1,
		ID:        nextVertexID(),
		RLType:    ValError,
		ValRef:    ValNone,
		ConstType: CnstError,
	}
}

// Create allocates a vertex with exactly the given ordered children.
func Create(op Operation, sons ...Child) *Vertex {
	n := 0
	for _, s := range sons {
		if s == nil {
			fail(op, "Create", "nil child group")
		}
		n += s.childCount()
	}
	v := Raw(op)
	v.RawInit(n)
	filled := v.children[:0]
	for _, s := range sons {
		filled = s.appendTo(filled)
	}
	if len(filled) != n {
		fail(op, "Create", "filled %d children of %d", len(filled), n)
	}
	for i, c := range v.children {
		if c == nil {
			fail(op, "Create", "child #%d is nil", i)
		}
	}
	return v
}

// RawInit fixes the arity of a raw vertex. A second call is a contract violation.
func (v *Vertex) RawInit(n int) {
	if v.n != -1 {
		fail(v.op, "RawInit", "arity already fixed to %d", v.n)
	}
	if n < 0 {
		fail(v.op, "RawInit", "negative arity %d", n)
	}
	v.n = n
	v.children = make([]*Vertex, n)
}

// Op returns the operation kind.
func (v *Vertex) Op() Operation { return v.op }

// Info returns the catalog entry of the vertex kind.
func (v *Vertex) Info() *OpInfo { return defaultCatalog.Info(v.op) }

// Size returns the arity, or -1 for a raw vertex.
func (v *Vertex) Size() int { return v.n }

// Empty reports whether the vertex has no children.
func (v *Vertex) Empty() bool { return v.n <= 0 }

// Children returns the owned children front to back. Elements may be replaced; the
// slice has no spare capacity, so appending to it never touches the vertex.
func (v *Vertex) Children() []*Vertex {
	return v.children[:len(v.children):len(v.children)]
}

func (v *Vertex) checkRange(i int) bool { return 0 <= i && i < v.n }

// Ith returns child i.
func (v *Vertex) Ith(i int) *Vertex {
	if !v.checkRange(i) {
		fail(v.op, "Ith", "index %d out of range [0, %d)", i, v.n)
	}
	return v.children[i]
}

// SetIth replaces child i.
func (v *Vertex) SetIth(i int, c *Vertex) {
	if !v.checkRange(i) {
		fail(v.op, "SetIth", "index %d out of range [0, %d)", i, v.n)
	}
	if c == nil {
		fail(v.op, "SetIth", "nil child")
	}
	v.children[i] = c
}

// Back returns the last child.
func (v *Vertex) Back() *Vertex { return v.Ith(v.n - 1) }

// Clone deep-copies v: every child is cloned, the copy gets a fresh ID, the type rule is shared.
func (v *Vertex) Clone() *Vertex {
	if v == nil {
		return nil
	}
	c := &Vertex{
		op:        v.op,
		n:         -1,
		ext:       v.ext,
		ID:        nextVertexID(),
		TypeRule:  v.TypeRule,
		Location:  v.Location,
		ExtraType: v.ExtraType,
		TypeHelp:  v.TypeHelp,
		RLType:    v.RLType,
		ValRef:    v.ValRef,
		ConstType: v.ConstType,
		Flags:     v.Flags,
	}
	if v.n >= 0 {
		c.RawInit(v.n)
		for i, child := range v.children {
			c.children[i] = child.Clone()
		}
	}
	return c
}

// CopyLocationAndFlags copies location, type rule and the post-construction flags from
// other. Arity, children, kind and associated values are untouched.
func (v *Vertex) CopyLocationAndFlags(other *Vertex) {
	v.TypeRule = other.TypeRule
	v.Location = other.Location
	v.ValRef = other.ValRef
	v.ConstType = other.ConstType
	v.Flags = other.Flags
}

// WithLocation sets the location and returns v.
func (v *Vertex) WithLocation(sp source.Span) *Vertex {
	v.Location = sp
	return v
}

// Capability accessors -------------------------------------------------------

func (v *Vertex) require(x Extras, method string) {
	if !v.Info().Extras.Has(x) {
		fail(v.op, method, "kind has no such associated value")
	}
}

// HasStr reports whether the kind carries an associated string.
func (v *Vertex) HasStr() bool { return v.Info().Extras.Has(ExtraString) }

// Str returns the associated string (names, literal text).
func (v *Vertex) Str() string {
	v.require(ExtraString, "Str")
	return v.ext.str
}

// SetStr sets the associated string.
func (v *Vertex) SetStr(s string) {
	v.require(ExtraString, "SetStr")
	v.ext.str = s
}

// VarID returns the associated variable.
func (v *Vertex) VarID() *data.Var {
	v.require(ExtraVariable, "VarID")
	return v.ext.vari
}

// SetVarID sets the associated variable.
func (v *Vertex) SetVarID(x *data.Var) {
	v.require(ExtraVariable, "SetVarID")
	v.ext.vari = x
}

// FuncID returns the associated function.
func (v *Vertex) FuncID() *data.Function {
	v.require(ExtraFunction, "FuncID")
	return v.ext.fn
}

// SetFuncID sets the associated function.
func (v *Vertex) SetFuncID(f *data.Function) {
	v.require(ExtraFunction, "SetFuncID")
	v.ext.fn = f
}

// Named sons and ranges ------------------------------------------------------

func (v *Vertex) sonIndex(method, name string) (int, SonSpec) {
	info := v.Info()
	spec, ok := info.Sons[info.resolveName(name)]
	if !ok {
		fail(v.op, method, "no son named %q", name)
	}
	idx := spec.ID
	if idx < 0 {
		idx = v.n + idx
	}
	return idx, spec
}

// HasSon reports whether the named son is present. Only optional sons may be absent.
func (v *Vertex) HasSon(name string) bool {
	idx, _ := v.sonIndex("HasSon", name)
	return v.checkRange(idx)
}

// Son returns the named child, e.g. "array" and "key" of op_index.
func (v *Vertex) Son(name string) *Vertex {
	idx, spec := v.sonIndex("Son", name)
	if !v.checkRange(idx) {
		if spec.Optional {
			fail(v.op, "Son", "optional son %q is absent; check HasSon first", name)
		}
		fail(v.op, "Son", "son %q index %d out of range [0, %d)", name, idx, v.n)
	}
	return v.children[idx]
}

// Range returns the named child range, e.g. "args" of op_func_call.
func (v *Vertex) Range(name string) []*Vertex {
	info := v.Info()
	bounds, ok := info.Ranges[info.resolveName(name)]
	if !ok {
		fail(v.op, "Range", "no range named %q", name)
	}
	from := rangeBound(bounds[0], 0, v.n)
	to := rangeBound(bounds[1], v.n, v.n)
	if from > to || from < 0 || to > v.n {
		fail(v.op, "Range", "range %q [%d, %d) does not fit %d children", name, from, to, v.n)
	}
	return v.children[from:to:to]
}

func rangeBound(value, zero, n int) int {
	switch {
	case value > 0:
		return value
	case value < 0:
		return n + value
	default:
		return zero
	}
}

func (v *Vertex) String() string {
	if v == nil {
		return "<nil>"
	}
	return Describe(v)
}
