package tinf

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"phpc/internal/ast"
	"phpc/internal/data"
	"phpc/internal/source"
	"phpc/internal/types"
)

type paramKey struct {
	fn    *data.Function
	index int
}

// Graph is the registry of inference nodes for one compilation unit. It is built by the
// solver (or the dump loader) and frozen before checks run.
type Graph struct {
	Types *types.Interner
	// Files resolves node locations in descriptions; may be nil.
	Files *source.FileSet

	nodes   []Node
	exprs   map[*ast.Vertex]*ExprNode
	vars    map[*data.Var]*VarNode
	returns map[*data.Function]*VarNode
	params  map[paramKey]*VarNode
	edges   int
}

// NewGraph creates an empty graph over the given interner.
func NewGraph(in *types.Interner) *Graph {
	if in == nil {
		in = types.NewInterner()
	}
	return &Graph{
		Types:   in,
		exprs:   make(map[*ast.Vertex]*ExprNode),
		vars:    make(map[*data.Var]*VarNode),
		returns: make(map[*data.Function]*VarNode),
		params:  make(map[paramKey]*VarNode),
	}
}

func (g *Graph) register(n Node) {
	id, err := safecast.Conv[uint32](len(g.nodes))
	if err != nil {
		panic(fmt.Errorf("tinf: node count overflow: %w", err))
	}
	n.base().id = NodeID(id)
	g.nodes = append(g.nodes, n)
}

// NewExprNode returns the node typing v, creating it on first use.
func (g *Graph) NewExprNode(v *ast.Vertex) *ExprNode {
	if n, ok := g.exprs[v]; ok {
		return n
	}
	n := &ExprNode{Expr: v}
	g.register(n)
	g.exprs[v] = n
	return n
}

// ExprNodeOf returns the node typing v, or nil.
func (g *Graph) ExprNodeOf(v *ast.Vertex) *ExprNode {
	return g.exprs[v]
}

// VarNodeOf returns the node of x, creating it on first use. Parameters share the node
// returned by ParamNode.
func (g *Graph) VarNodeOf(x *data.Var) *VarNode {
	if n, ok := g.vars[x]; ok {
		return n
	}
	if x.IsParam() && x.HolderFunc != nil {
		return g.ParamNode(x.HolderFunc, x.ParamIndex)
	}
	n := &VarNode{Var: x, Func: x.HolderFunc, ParamIndex: x.ParamIndex}
	g.register(n)
	g.vars[x] = n
	return n
}

// LookupVar returns the node of x, or nil if none was created.
func (g *Graph) LookupVar(x *data.Var) *VarNode {
	return g.vars[x]
}

// ReturnNode returns the return slot of fn.
func (g *Graph) ReturnNode(fn *data.Function) *VarNode {
	if n, ok := g.returns[fn]; ok {
		return n
	}
	n := &VarNode{Func: fn, ParamIndex: ReturnSlot}
	g.register(n)
	g.returns[fn] = n
	return n
}

// LookupReturn returns the return slot of fn, or nil.
func (g *Graph) LookupReturn(fn *data.Function) *VarNode {
	return g.returns[fn]
}

// ParamNode returns the node of parameter i of fn.
func (g *Graph) ParamNode(fn *data.Function, i int) *VarNode {
	key := paramKey{fn: fn, index: i}
	if n, ok := g.params[key]; ok {
		return n
	}
	if i < 0 || i >= len(fn.Params) {
		panic(fmt.Sprintf("tinf: %s has no parameter #%d", fn, i))
	}
	p := fn.Params[i]
	n := &VarNode{Var: p, Func: fn, ParamIndex: i}
	g.register(n)
	g.params[key] = n
	g.vars[p] = n
	return n
}

// NewTypeNode creates a leaf node of a declared type.
func (g *Graph) NewTypeNode(t types.TypeID, at source.Span) *TypeNode {
	n := &TypeNode{At: at}
	n.typ = t
	g.register(n)
	return n
}

// AddEdge records that from takes its type from to.
func (g *Graph) AddEdge(from *VarNode, to Node, opts ...EdgeOption) *Edge {
	if from == nil || to == nil {
		panic("tinf: AddEdge with nil endpoint")
	}
	e := &Edge{From: from, To: to}
	for _, opt := range opts {
		opt(e)
	}
	from.next = append(from.next, e)
	g.edges++
	return e
}

// SetType stores the inferred type of n.
func (g *Graph) SetType(n Node, t types.TypeID) {
	n.base().typ = t
}

// TypeOf returns the inferred type descriptor of n.
func (g *Graph) TypeOf(n Node) types.Type {
	t, ok := g.Types.Lookup(n.Type())
	if !ok {
		return types.MakePrimitive(types.KindUnknown)
	}
	return t
}

// ResetIssetMasks clears memoization state. Call only when a fresh inference run starts.
func (g *Graph) ResetIssetMasks() {
	for _, n := range g.nodes {
		n.base().issetWas = 0
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) Node {
	if int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Description renders "<headline>\t<location>".
func (g *Graph) Description(n Node) string {
	return n.Headline(g.Types) + "\t" + g.locate(n.Location())
}

func (g *Graph) locate(sp source.Span) string {
	if g.Files == nil || sp == source.NoSpan {
		return "at " + sp.String()
	}
	start, _, ok := g.Files.Resolve(sp)
	if !ok {
		return "at " + sp.String()
	}
	return fmt.Sprintf("at %s:%d:%d", g.Files.RelPath(sp.File), start.Line, start.Col)
}

// headline drops the location part of a description.
func headline(desc string) string {
	if i := strings.IndexByte(desc, '\t'); i >= 0 {
		return desc[:i]
	}
	return desc
}
