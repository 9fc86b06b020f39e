package tinf

import (
	"phpc/internal/ast"
	"phpc/internal/data"
	"phpc/internal/source"
	"phpc/internal/types"
)

type fixture struct {
	g  *Graph
	in *types.Interner
	b  types.Builtins
}

func newFixture() *fixture {
	in := types.NewInterner()
	return &fixture{g: NewGraph(in), in: in, b: in.Builtins()}
}

func (f *fixture) array(elem types.TypeID) types.TypeID {
	return f.in.Intern(types.MakeArray(elem))
}

func varVertex(x *data.Var) *ast.Vertex {
	v := ast.Create(ast.OpVar)
	v.SetStr(x.Name)
	v.SetVarID(x)
	return v
}

func intConst(s string) *ast.Vertex {
	v := ast.Create(ast.OpIntConst)
	v.SetStr(s)
	return v
}

func call(fn *data.Function, args ...*ast.Vertex) *ast.Vertex {
	v := ast.Create(ast.OpFuncCall, ast.Seq(args))
	v.SetStr(fn.Name)
	v.SetFuncID(fn)
	return v
}

// read returns an expression node reading x, typed t.
func (f *fixture) read(x *data.Var, t types.TypeID) *ExprNode {
	n := f.g.NewExprNode(varVertex(x))
	f.g.SetType(n, t)
	return n
}

// index returns the node of $x[0] with the container typed arrT and the element elemT.
func (f *fixture) index(x *data.Var, arrT, elemT types.TypeID) *ExprNode {
	arr := varVertex(x)
	idx := ast.Create(ast.OpIndex, arr, intConst("0")).WithLocation(source.Span{Start: 10, End: 15})
	f.g.SetType(f.g.NewExprNode(arr), arrT)
	n := f.g.NewExprNode(idx)
	f.g.SetType(n, elemT)
	return n
}
