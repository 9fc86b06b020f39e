package dump

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"phpc/internal/ast"
	"phpc/internal/source"
	"phpc/internal/types"
)

func loadSample(t *testing.T) *Unit {
	t.Helper()
	u, err := Load(source.NewFileSet(), filepath.Join("testdata", "sample.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return u
}

func TestLoadSample(t *testing.T) {
	u := loadSample(t)
	if len(u.Functions) != 2 || u.Functions[0].Name != "f" || u.Main == nil || u.Functions[1] != u.Main {
		t.Fatalf("unexpected functions: %v", u.Functions)
	}
	f := u.Functions[0]
	if u.Files.Get(u.File).Path != "sample.php" {
		t.Fatalf("file path = %q", u.Files.Get(u.File).Path)
	}

	body := u.Bodies[f]
	if body.Op() != ast.OpFunction || body.FuncID() != f {
		t.Fatalf("body = %s", body.Op())
	}
	ret := body.Son("cmd").Ith(0)
	index := ret.Son("expr")
	if index.Op() != ast.OpIndex || index.Son("array").VarID() != f.Params[0] {
		t.Fatalf("index not resolved: %s", ast.Describe(index))
	}

	g := u.Graph
	typeOf := func(n interface{ Type() types.TypeID }) string { return u.Types.String(n.Type()) }
	if got := typeOf(g.ExprNodeOf(index)); got != "float" {
		t.Fatalf("index type = %s", got)
	}
	if got := typeOf(g.ExprNodeOf(index.Son("array"))); got != "float[]" {
		t.Fatalf("var read type = %s", got)
	}
	if got := typeOf(g.LookupReturn(f)); got != "float" {
		t.Fatalf("return type = %s", got)
	}
	if len(g.LookupReturn(f).Next()) != 1 {
		t.Fatalf("return edge missing")
	}

	call := u.Bodies[u.Main].Ith(0).Son("cond")
	if call.FuncID() == nil || !call.FuncID().Builtin || call.Str() != "is_numeric" {
		t.Fatalf("builtin predicate not resolved")
	}
	if inner := call.Ith(0); inner.FuncID() != f || typeOf(g.ExprNodeOf(inner)) != "float" {
		t.Fatalf("call to f not resolved")
	}
}

func TestFunctionAt(t *testing.T) {
	u := loadSample(t)
	cases := map[uint32]string{
		30: "f",
		6:  "f",
		45: MainName,
	}
	for off, want := range cases {
		fn := u.FunctionAt(source.Span{File: u.File, Start: off, End: off + 1})
		if fn == nil || fn.Name != want {
			t.Errorf("FunctionAt(%d) = %v, want %s", off, fn, want)
		}
	}
	if fn := u.FunctionAt(source.Span{File: u.File, Start: 2}); fn != nil {
		t.Errorf("FunctionAt(2) = %v, want nil", fn)
	}
}

func TestNFCIdentifiers(t *testing.T) {
	// "é" spelled as e + combining acute in the use, precomposed in the declaration.
	doc := "functions:\n" +
		"  - name: f\n" +
		"    vars: [{name: \"caf\u00e9\", type: int}]\n" +
		"    body: {op: op_seq, children: [{op: op_var, var: \"cafe\u0301\"}]}\n"
	u, err := Parse(source.NewFileSet(), "nfc.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v := u.Bodies[u.Functions[0]].Ith(0)
	if v.VarID() == nil || v.Str() != "caf\u00e9" {
		t.Fatalf("identifier not normalized: %q", v.Str())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		err   error
		where string
	}{
		{
			name:  "unknown op",
			doc:   "main: {op: op_seq, children: [{op: op_goto}]}",
			err:   ErrUnknownOp,
			where: "main.children[0]",
		},
		{
			name:  "meta op",
			doc:   "main: {op: meta_op_binary}",
			err:   ErrUnknownOp,
			where: "main",
		},
		{
			name:  "unknown var",
			doc:   "functions: [{name: f, body: {op: op_seq, children: [{op: op_var, var: x}]}}]",
			err:   ErrUnknownVar,
			where: "functions[0].body.children[0]",
		},
		{
			name:  "unknown function",
			doc:   "main: {op: op_func_call, func: nope}",
			err:   ErrUnknownFunction,
			where: "main",
		},
		{
			name:  "arity",
			doc:   "main: {op: op_set, children: [{op: op_null}]}",
			err:   ErrBadArity,
			where: "main",
		},
		{
			name:  "span past source",
			doc:   "source: \"<?php\"\nmain: {op: op_null, at: [0, 9]}",
			err:   ErrBadSpan,
			where: "main.at",
		},
		{
			name:  "duplicate function",
			doc:   "functions: [{name: f}, {name: f}]",
			err:   ErrDuplicate,
			where: "functions[1]",
		},
		{
			name:  "str on op_null",
			doc:   "main: {op: op_null, str: x}",
			err:   ErrBadField,
			where: "main",
		},
		{
			name:  "param without variable",
			doc:   "main: {op: op_func_param, children: [{op: op_int_const}, {op: op_int_const}]}",
			err:   ErrBadField,
			where: "main",
		},
		{
			name:  "bad type",
			doc:   "globals: [{name: g, type: \"int[\"}]",
			err:   types.ErrBadType,
			where: "globals[0].type",
		},
		{
			name: "unknown field",
			doc:  "main: {op: op_null, colour: red}",
			err:  ErrSyntax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(source.NewFileSet(), "bad.yaml", []byte(tt.doc))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			var de *Error
			if !errors.As(err, &de) || de.File != "bad.yaml" {
				t.Fatalf("expected *Error, got %T", err)
			}
			if de.Where != tt.where {
				t.Fatalf("where = %q, want %q", de.Where, tt.where)
			}
			if !strings.HasPrefix(err.Error(), "bad.yaml: ") {
				t.Fatalf("message %q", err.Error())
			}
		})
	}
}
