package tinf

import (
	"phpc/internal/ast"
	"phpc/internal/data"
)

// anyKey addresses "some element" of an array.
var anyKey = Key{"any"}

// Collector adds the assignment, argument and return edges of function bodies.
// Types are not computed here; the caller sets them with Graph.SetType.
type Collector struct {
	g *Graph
}

// NewCollector creates a collector writing into g.
func NewCollector(g *Graph) *Collector {
	return &Collector{g: g}
}

func isStatement(op ast.Operation) bool {
	switch op {
	case ast.OpSeq, ast.OpIf, ast.OpReturn, ast.OpUnset, ast.OpFunction,
		ast.OpFuncParamList, ast.OpFuncParam, ast.OpSetValue, ast.OpNone:
		return true
	}
	return false
}

// CollectFunction walks body (usually fn's op_function vertex) and records its flow.
// fn may be nil for top-level code.
func (c *Collector) CollectFunction(fn *data.Function, body *ast.Vertex) {
	ast.Inspect(body, func(v *ast.Vertex) bool {
		if !isStatement(v.Op()) {
			c.g.NewExprNode(v)
		}
		switch v.Op() {
		case ast.OpSet:
			c.collectSet(v.Son("lhs"), c.g.NewExprNode(v.Son("rhs")))
		case ast.OpSetValue:
			if x := baseVar(v.Son("array")); x != nil {
				c.g.AddEdge(c.g.VarNodeOf(x), c.g.NewExprNode(v.Son("value")), AtKey(anyKey...))
			}
		case ast.OpReturn:
			if fn != nil && v.HasSon("expr") {
				c.g.AddEdge(c.g.ReturnNode(fn), c.g.NewExprNode(v.Son("expr")))
			}
		case ast.OpFuncParam:
			c.collectParam(v)
		case ast.OpFuncCall:
			c.collectCall(v)
		}
		return true
	})
}

func (c *Collector) collectSet(lhs *ast.Vertex, rhs *ExprNode) {
	switch lhs.Op() {
	case ast.OpVar:
		if x := lhs.VarID(); x != nil {
			c.g.AddEdge(c.g.VarNodeOf(x), rhs)
		}
	case ast.OpIndex:
		if x := baseVar(lhs); x != nil {
			c.g.AddEdge(c.g.VarNodeOf(x), rhs, AtKey(anyKey...))
		}
	}
}

func (c *Collector) collectParam(v *ast.Vertex) {
	if !v.HasSon("default_value") {
		return
	}
	x := v.Son("var").VarID()
	if x == nil {
		return
	}
	c.g.AddEdge(c.g.VarNodeOf(x), c.g.NewExprNode(v.Son("default_value")))
}

func (c *Collector) collectCall(call *ast.Vertex) {
	fn := call.FuncID()
	if fn == nil || fn.Builtin {
		return
	}
	for i, arg := range call.Range("args") {
		if i >= len(fn.Params) {
			break
		}
		param := c.g.ParamNode(fn, i)
		c.g.AddEdge(param, c.g.NewExprNode(arg))
		// A by-reference argument receives whatever the callee stores in the parameter.
		if fn.Params[i].ByRef && arg.Op() == ast.OpVar {
			if x := arg.VarID(); x != nil {
				c.g.AddEdge(c.g.VarNodeOf(x), param)
			}
		}
	}
}

// baseVar returns the variable at the bottom of $a[..][..].
func baseVar(v *ast.Vertex) *data.Var {
	for v != nil {
		switch v.Op() {
		case ast.OpVar:
			return v.VarID()
		case ast.OpIndex:
			v = v.Son("array")
		default:
			return nil
		}
	}
	return nil
}
