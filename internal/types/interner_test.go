package types

import (
	"errors"
	"testing"
)

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	arr1 := in.Intern(MakeArray(in.Builtins().Int))
	arr2 := in.Intern(MakeArray(in.Builtins().Int))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	t1 := in.RegisterTuple([]TypeID{in.Builtins().Int, in.Builtins().String})
	t2 := in.RegisterTuple([]TypeID{in.Builtins().Int, in.Builtins().String})
	if t1 != t2 {
		t.Fatalf("tuple types should be deduplicated")
	}
	if in.MustLookup(t1).IsTuple() != true {
		t.Fatalf("expected tuple kind")
	}
}

func TestParseRoundTrip(t *testing.T) {
	in := NewInterner()
	for _, src := range []string{
		"int",
		"mixed",
		"?int",
		"string|false",
		"float[]",
		"int[][]",
		"tuple(int, string)",
		"(int|false)[]",
		"Foo",
	} {
		id, err := in.Parse(src)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		if got := in.String(id); got != src {
			t.Errorf("parse %q rendered as %q", src, got)
		}
	}
}

func TestParseAliases(t *testing.T) {
	in := NewInterner()
	id, err := in.Parse("double")
	if err != nil || id != in.Builtins().Float {
		t.Fatalf("double should be float, got %v %v", id, err)
	}
	id, err = in.Parse("array")
	if err != nil || in.String(id) != "mixed[]" {
		t.Fatalf("array should be mixed[], got %q %v", in.String(id), err)
	}
}

func TestParseErrors(t *testing.T) {
	in := NewInterner()
	for _, src := range []string{"", "int|string", "tuple(int", "foo", "int)"} {
		if _, err := in.Parse(src); !errors.Is(err, ErrBadType) {
			t.Errorf("parse %q: expected ErrBadType, got %v", src, err)
		}
	}
}
