// Package tinf holds the type-inference dependency graph and the checks that run on it
// once inference is complete.
package tinf

import (
	"fmt"

	"phpc/internal/ast"
	"phpc/internal/data"
	"phpc/internal/source"
	"phpc/internal/types"
)

// NodeID is the registry index of a node.
type NodeID uint32

// Node is one of *ExprNode, *VarNode or *TypeNode.
type Node interface {
	ID() NodeID
	Type() types.TypeID
	// Headline is the location-free description used in messages.
	Headline(in *types.Interner) string
	Location() source.Span

	base() *nodeBase
}

type nodeBase struct {
	id  NodeID
	typ types.TypeID
	// issetWas accumulates every flag set this node was explored for.
	// It lives as long as the graph; see Graph.ResetIssetMasks.
	issetWas IssetFlags
}

func (b *nodeBase) ID() NodeID         { return b.id }
func (b *nodeBase) Type() types.TypeID { return b.typ }
func (b *nodeBase) base() *nodeBase    { return b }

// IssetMask returns the accumulated memoization mask.
func (b *nodeBase) IssetMask() IssetFlags { return b.issetWas }

// ExprNode types a single expression vertex.
type ExprNode struct {
	nodeBase
	Expr *ast.Vertex
}

func (n *ExprNode) Headline(*types.Interner) string {
	return "as expression: " + ast.Describe(n.Expr)
}

func (n *ExprNode) Location() source.Span { return n.Expr.Location }

// VarNode types a variable across all its assignments, or a function return slot when
// Var is nil.
type VarNode struct {
	nodeBase
	Var *data.Var
	// Func is set for return slots and parameters.
	Func *data.Function
	// ParamIndex is ReturnSlot for return values.
	ParamIndex int

	next []*Edge
}

// ReturnSlot is the parameter index reserved for a function's return value.
const ReturnSlot = -1

// Next returns the outgoing edges in insertion order.
func (n *VarNode) Next() []*Edge { return n.next }

// IsReturn reports whether n is a return slot.
func (n *VarNode) IsReturn() bool { return n.Var == nil && n.ParamIndex == ReturnSlot }

func (n *VarNode) Headline(*types.Interner) string {
	switch {
	case n.IsReturn():
		return fmt.Sprintf("as return value: %s", n.Func)
	case n.Var.IsParam():
		return "as argument: " + n.Var.String()
	default:
		return "as variable: $" + n.Var.Name
	}
}

func (n *VarNode) Location() source.Span {
	switch {
	case n.Var != nil:
		return n.Var.Location
	case n.Func != nil:
		return n.Func.Location
	}
	return source.NoSpan
}

// TypeNode is a declared type with no dependencies.
type TypeNode struct {
	nodeBase
	At source.Span
}

func (n *TypeNode) Headline(in *types.Interner) string {
	return "as type: " + in.String(n.typ)
}

func (n *TypeNode) Location() source.Span { return n.At }
