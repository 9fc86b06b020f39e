package dump

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"phpc/internal/ast"
	"phpc/internal/data"
	"phpc/internal/source"
	"phpc/internal/tinf"
	"phpc/internal/types"
)

// MainName names the pseudo-function holding top-level code.
const MainName = "{main}"

// Unit is one loaded dump: a PHP file with its typed AST and inference graph.
type Unit struct {
	Path  string
	Files *source.FileSet
	File  source.FileID
	Types *types.Interner
	Graph *tinf.Graph

	Globals []*data.Var
	// Functions lists user functions in declaration order, then Main if present.
	Functions []*data.Function
	Bodies    map[*data.Function]*ast.Vertex
	Main      *data.Function

	funcIndex *source.Index[*data.Function]
}

// FunctionAt returns the innermost function whose location covers sp.
func (u *Unit) FunctionAt(sp source.Span) *data.Function {
	fn, _ := u.funcIndex.Innermost(sp)
	return fn
}

// Load reads and loads the dump at path.
func Load(fs *source.FileSet, path string) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	return Parse(fs, path, content)
}

// Parse loads a dump from memory; path is used for messages and as the default file name.
func Parse(fs *source.FileSet, path string, content []byte) (*Unit, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{File: path, Err: fmt.Errorf("%w: %w", ErrSyntax, err)}
	}

	name := f.File
	if name == "" {
		name = path
	}
	in := types.NewInterner()
	g := tinf.NewGraph(in)
	g.Files = fs
	u := &Unit{
		Path:      path,
		Files:     fs,
		File:      fs.AddVirtual(name, []byte(f.Source)),
		Types:     in,
		Graph:     g,
		Bodies:    make(map[*data.Function]*ast.Vertex),
		funcIndex: source.NewIndex[*data.Function](),
	}
	l := &loader{
		u:         u,
		path:      path,
		srcLen:    len(f.Source),
		hasSource: f.Source != "",
		globals:   make(map[string]*data.Var),
		funcs:     make(map[string]*data.Function),
		varTypes:  make(map[*data.Var]types.TypeID),
		exprTypes: make(map[*ast.Vertex]types.TypeID),
	}
	if err := l.load(&f); err != nil {
		return nil, err
	}
	return u, nil
}

type loader struct {
	u         *Unit
	path      string
	srcLen    int
	hasSource bool

	globals   map[string]*data.Var
	funcs     map[string]*data.Function
	varTypes  map[*data.Var]types.TypeID
	retTypes  []retType
	exprTypes map[*ast.Vertex]types.TypeID
	fnSpans   []fnSpan
}

type retType struct {
	fn  *data.Function
	typ types.TypeID
}

type fnSpan struct {
	fn *data.Function
	sp source.Span
}

func (l *loader) fail(where string, err error) error {
	return &Error{File: l.path, Where: where, Err: err}
}

func nfc(s string) string { return norm.NFC.String(s) }

func (l *loader) load(f *File) error {
	for i, name := range f.Builtins {
		name = nfc(name)
		if _, dup := l.funcs[name]; dup {
			return l.fail(fmt.Sprintf("builtins[%d]", i), fmt.Errorf("%w: function %q", ErrDuplicate, name))
		}
		fn := data.NewFunction(name, source.NoSpan)
		fn.Builtin = true
		l.funcs[name] = fn
	}

	for i, decl := range f.Globals {
		where := fmt.Sprintf("globals[%d]", i)
		x, err := l.declareVar(where, decl, nil)
		if err != nil {
			return err
		}
		if _, dup := l.globals[x.Name]; dup {
			return l.fail(where, fmt.Errorf("%w: global $%s", ErrDuplicate, x.Name))
		}
		x.Kind = data.VarGlobal
		l.globals[x.Name] = x
		l.u.Globals = append(l.u.Globals, x)
	}

	// Functions are declared before any body is built so calls may refer forward.
	declared := make([]*data.Function, len(f.Functions))
	for i := range f.Functions {
		fn, err := l.declareFunction(fmt.Sprintf("functions[%d]", i), &f.Functions[i])
		if err != nil {
			return err
		}
		declared[i] = fn
	}
	for i, fn := range declared {
		decl := &f.Functions[i]
		if decl.Body == nil {
			continue
		}
		body, err := l.build(fmt.Sprintf("functions[%d].body", i), decl.Body, fn)
		if err != nil {
			return err
		}
		if body.Op() == ast.OpFunction && body.FuncID() == nil {
			body.SetFuncID(fn)
		}
		l.u.Bodies[fn] = body
		if fn.Location == source.NoSpan {
			fn.Location = body.Location
		}
		l.fnSpans = append(l.fnSpans, fnSpan{fn: fn, sp: fn.Location})
	}
	l.u.Functions = declared

	if f.Main != nil {
		main := data.NewFunction(MainName, source.NoSpan)
		body, err := l.build("main", f.Main, nil)
		if err != nil {
			return err
		}
		main.Location = body.Location
		l.u.Main = main
		l.u.Bodies[main] = body
		l.u.Functions = append(l.u.Functions, main)
		l.fnSpans = append(l.fnSpans, fnSpan{fn: main, sp: main.Location})
	}

	l.indexFunctions()
	l.buildGraph()
	return nil
}

func (l *loader) declareVar(where string, decl VarDecl, fn *data.Function) (*data.Var, error) {
	name := nfc(decl.Name)
	if name == "" {
		return nil, l.fail(where, fmt.Errorf("%w: variable without a name", ErrSyntax))
	}
	sp, err := l.span(where, decl.At)
	if err != nil {
		return nil, err
	}
	var x *data.Var
	switch {
	case fn == nil:
		x = &data.Var{Name: name, Location: sp}
	case decl.Ref:
		return nil, l.fail(where, fmt.Errorf("%w: ref on a local variable", ErrBadField))
	default:
		if fn.LookupVar(name) != nil {
			return nil, l.fail(where, fmt.Errorf("%w: variable $%s", ErrDuplicate, name))
		}
		x = fn.AddLocal(name, sp)
	}
	x.Uninited = decl.Uninited
	if err := l.declType(where, decl.Type, func(t types.TypeID) { l.varTypes[x] = t }); err != nil {
		return nil, err
	}
	return x, nil
}

func (l *loader) declareFunction(where string, decl *FuncDecl) (*data.Function, error) {
	name := nfc(decl.Name)
	if name == "" {
		return nil, l.fail(where, fmt.Errorf("%w: function without a name", ErrSyntax))
	}
	if _, dup := l.funcs[name]; dup {
		return nil, l.fail(where, fmt.Errorf("%w: function %q", ErrDuplicate, name))
	}
	sp, err := l.span(where, decl.At)
	if err != nil {
		return nil, err
	}
	fn := data.NewFunction(name, sp)
	for i, p := range decl.Params {
		pwhere := fmt.Sprintf("%s.params[%d]", where, i)
		pname := nfc(p.Name)
		if fn.LookupVar(pname) != nil {
			return nil, l.fail(pwhere, fmt.Errorf("%w: parameter $%s", ErrDuplicate, pname))
		}
		psp, err := l.span(pwhere, p.At)
		if err != nil {
			return nil, err
		}
		x := fn.AddParam(pname, p.Ref, psp)
		x.Uninited = p.Uninited
		if err := l.declType(pwhere, p.Type, func(t types.TypeID) { l.varTypes[x] = t }); err != nil {
			return nil, err
		}
	}
	for i, v := range decl.Vars {
		if _, err := l.declareVar(fmt.Sprintf("%s.vars[%d]", where, i), v, fn); err != nil {
			return nil, err
		}
	}
	if err := l.declType(where+".return", decl.Return, func(t types.TypeID) {
		l.retTypes = append(l.retTypes, retType{fn: fn, typ: t})
	}); err != nil {
		return nil, err
	}
	l.funcs[name] = fn
	return fn, nil
}

func (l *loader) declType(where, s string, set func(types.TypeID)) error {
	if s == "" {
		return nil
	}
	t, err := l.u.Types.Parse(s)
	if err != nil {
		return l.fail(where+".type", err)
	}
	set(t)
	return nil
}

func (l *loader) span(where string, at []uint32) (source.Span, error) {
	if len(at) == 0 {
		return source.NoSpan, nil
	}
	if len(at) != 2 || at[0] > at[1] {
		return source.NoSpan, l.fail(where+".at", fmt.Errorf("%w: want [start, end], got %v", ErrBadSpan, at))
	}
	if l.hasSource && int(at[1]) > l.srcLen {
		return source.NoSpan, l.fail(where+".at", fmt.Errorf("%w: %v is past the end of source (%d bytes)", ErrBadSpan, at, l.srcLen))
	}
	return source.Span{File: l.u.File, Start: at[0], End: at[1]}, nil
}

func (l *loader) lookupVar(name string, scope *data.Function) (*data.Var, bool) {
	if scope != nil {
		if x := scope.LookupVar(name); x != nil {
			return x, true
		}
	}
	x, ok := l.globals[name]
	return x, ok
}

func (l *loader) lookupFunction(name string) (*data.Function, bool) {
	if fn, ok := l.funcs[name]; ok {
		return fn, true
	}
	// Predicates like is_array need no declaration.
	if _, ok := tinf.BuiltinCheck(name); ok {
		fn := data.NewFunction(name, source.NoSpan)
		fn.Builtin = true
		l.funcs[name] = fn
		return fn, true
	}
	return nil, false
}

func (l *loader) build(where string, decl *VertexDecl, scope *data.Function) (*ast.Vertex, error) {
	if decl == nil {
		return nil, l.fail(where, fmt.Errorf("%w: missing vertex", ErrSyntax))
	}
	op, ok := ast.ParseOperation(decl.Op)
	if !ok || op.IsMeta() {
		return nil, l.fail(where, fmt.Errorf("%w %q", ErrUnknownOp, decl.Op))
	}

	children := make(ast.Seq, len(decl.Children))
	for i, c := range decl.Children {
		child, err := l.build(fmt.Sprintf("%s.children[%d]", where, i), c, scope)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	info := ast.DefaultCatalog().Info(op)
	if n, lo, hi := len(children), info.MinArity(), info.MaxArity(); n < lo || (hi >= 0 && n > hi) {
		return nil, l.fail(where, fmt.Errorf("%w: %s takes %s children, got %d", ErrBadArity, op, arityRange(lo, hi), n))
	}

	v := ast.Create(op, children)
	if err := checkSonKinds(v); err != nil {
		return nil, l.fail(where, err)
	}
	if decl.Str != "" {
		if !v.HasStr() {
			return nil, l.fail(where, fmt.Errorf("%w: str on %s", ErrBadField, op))
		}
		v.SetStr(nfc(decl.Str))
	}
	if decl.Var != "" {
		if !info.Extras.Has(ast.ExtraVariable) {
			return nil, l.fail(where, fmt.Errorf("%w: var on %s", ErrBadField, op))
		}
		name := nfc(decl.Var)
		x, ok := l.lookupVar(name, scope)
		if !ok {
			return nil, l.fail(where, fmt.Errorf("%w $%s", ErrUnknownVar, name))
		}
		v.SetVarID(x)
		if v.HasStr() && v.Str() == "" {
			v.SetStr(name)
		}
	}
	if decl.Func != "" {
		if !info.Extras.Has(ast.ExtraFunction) {
			return nil, l.fail(where, fmt.Errorf("%w: func on %s", ErrBadField, op))
		}
		name := nfc(decl.Func)
		fn, ok := l.lookupFunction(name)
		if !ok {
			return nil, l.fail(where, fmt.Errorf("%w %s()", ErrUnknownFunction, name))
		}
		v.SetFuncID(fn)
		if v.HasStr() && v.Str() == "" {
			v.SetStr(name)
		}
	}
	if decl.Type != "" {
		t, err := l.u.Types.Parse(decl.Type)
		if err != nil {
			return nil, l.fail(where+".type", err)
		}
		l.exprTypes[v] = t
	}
	sp, err := l.span(where, decl.At)
	if err != nil {
		return nil, err
	}
	v.Location = sp
	for _, name := range decl.Flags {
		flag, ok := ast.ParseFlag(name)
		if !ok {
			return nil, l.fail(where+".flags", fmt.Errorf("%w: unknown flag %q", ErrBadField, name))
		}
		v.Flags |= flag
	}
	return v, nil
}

// sonKinds lists sons whose kind later passes rely on.
var sonKinds = []struct {
	op   ast.Operation
	son  string
	kind ast.Operation
}{
	{ast.OpFuncParam, "var", ast.OpVar},
}

func checkSonKinds(v *ast.Vertex) error {
	for _, k := range sonKinds {
		if v.Op() != k.op || !v.HasSon(k.son) {
			continue
		}
		if got := v.Son(k.son).Op(); got != k.kind {
			return fmt.Errorf("%w: %s son %q must be %s, got %s", ErrBadField, k.op, k.son, k.kind, got)
		}
	}
	return nil
}

func arityRange(lo, hi int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d", lo)
	case lo == hi:
		return fmt.Sprint(lo)
	default:
		return fmt.Sprintf("%d..%d", lo, hi)
	}
}

// indexFunctions adds enclosing spans first so that nested closures land below them.
func (l *loader) indexFunctions() {
	sort.SliceStable(l.fnSpans, func(i, j int) bool {
		a, b := l.fnSpans[i].sp, l.fnSpans[j].sp
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End > b.End
	})
	for _, s := range l.fnSpans {
		l.u.funcIndex.Add(s.sp, s.fn)
	}
}

// buildGraph collects flow edges of every body and assigns declared types.
func (l *loader) buildGraph() {
	g := l.u.Graph
	col := tinf.NewCollector(g)
	for _, fn := range l.u.Functions {
		body := l.u.Bodies[fn]
		if body == nil {
			continue
		}
		owner := fn
		if fn == l.u.Main {
			owner = nil
		}
		col.CollectFunction(owner, body)
	}

	mixed := l.u.Types.Builtins().Mixed
	varType := func(x *data.Var) types.TypeID {
		if t, ok := l.varTypes[x]; ok {
			return t
		}
		return mixed
	}
	for _, x := range l.u.Globals {
		g.SetType(g.VarNodeOf(x), varType(x))
	}
	for _, fn := range l.u.Functions {
		for _, p := range fn.Params {
			g.SetType(g.VarNodeOf(p), varType(p))
		}
		for _, x := range fn.Locals {
			g.SetType(g.VarNodeOf(x), varType(x))
		}
	}
	for _, fn := range l.u.Functions {
		if rn := g.LookupReturn(fn); rn != nil {
			g.SetType(rn, mixed)
		}
	}
	for _, r := range l.retTypes {
		g.SetType(g.ReturnNode(r.fn), r.typ)
	}
	for _, fn := range l.u.Functions {
		ast.Inspect(l.u.Bodies[fn], func(v *ast.Vertex) bool {
			n := g.ExprNodeOf(v)
			if n == nil {
				return true
			}
			switch t, ok := l.exprTypes[v]; {
			case ok:
				g.SetType(n, t)
			case v.Op() == ast.OpVar && v.VarID() != nil:
				g.SetType(n, varType(v.VarID()))
			default:
				g.SetType(n, mixed)
			}
			return true
		})
	}
}
