package ast

import (
	"errors"
	"testing"
)

func TestDefaultCatalogDescribesEveryOperation(t *testing.T) {
	c := DefaultCatalog()
	for op := Operation(0); op < OperationCount; op++ {
		if c.Info(op) == nil {
			t.Fatalf("%s has no catalog entry", op)
		}
	}
	call := c.Info(OpFuncCall)
	if !call.Extras.Has(ExtraString | ExtraFunction) {
		t.Fatalf("op_func_call extras = %v", call.ExtraNames)
	}
	if call.Extras.Has(ExtraVariable) {
		t.Fatalf("op_func_call must not carry a variable")
	}
	if _, ok := c.Info(OpSet).Sons["lhs"]; !ok {
		t.Fatalf("op_set should inherit lhs from meta_op_binary")
	}
}

func TestLoadCatalogRejectsBrokenInput(t *testing.T) {
	cases := map[string]string{
		"unknown op":    "- name: op_nonexistent\n",
		"missing ops":   "- name: meta_op_base\n",
		"unknown extra": "- name: meta_op_base\n  extras: [color]\n",
		"bad yaml":      "- name: [\n",
	}
	for name, src := range cases {
		if _, err := LoadCatalog([]byte(src)); !errors.Is(err, ErrCatalog) {
			t.Errorf("%s: expected ErrCatalog, got %v", name, err)
		}
	}
}

func TestParseOperation(t *testing.T) {
	op, ok := ParseOperation("op_index")
	if !ok || op != OpIndex {
		t.Fatalf("got %v %v", op, ok)
	}
	if _, ok := ParseOperation("op_missing"); ok {
		t.Fatalf("unexpected operation")
	}
}

func TestArityBounds(t *testing.T) {
	cases := []struct {
		op       Operation
		min, max int
	}{
		{OpVar, 0, 0},
		{OpIndex, 1, 2},
		{OpSet, 2, 2},
		{OpReturn, 0, 1},
		{OpIf, 2, 3},
		{OpFuncCall, 0, -1},
		{OpFunction, 1, -1},
	}
	for _, c := range cases {
		info := DefaultCatalog().Info(c.op)
		if got := info.MinArity(); got != c.min {
			t.Errorf("%s.MinArity() = %d, want %d", c.op, got, c.min)
		}
		if got := info.MaxArity(); got != c.max {
			t.Errorf("%s.MaxArity() = %d, want %d", c.op, got, c.max)
		}
	}
}
