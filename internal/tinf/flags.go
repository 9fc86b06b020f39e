package tinf

import (
	"fmt"
	"strings"

	"phpc/internal/types"
)

// IssetFlags is the set of presence or shape checks applied to one expression.
type IssetFlags uint32

const (
	IfiIsset IssetFlags = 1 << iota
	IfiIsNull
	IfiIsArray
	IfiIsBool
	IfiIsScalar
	IfiIsNumeric
	IfiIsInteger
	IfiIsLong
	IfiIsFloat
	IfiIsDouble
	IfiIsReal
	IfiIsString
	IfiIsObject

	// IfiSaturated marks a node that already produced a report.
	IfiSaturated IssetFlags = ^IssetFlags(0)
	// IfiAll is every real check.
	IfiAll = IfiIsObject<<1 - 1
)

var issetFlagNames = []struct {
	flag IssetFlags
	name string
}{
	{IfiIsset, "isset"},
	{IfiIsNull, "is_null"},
	{IfiIsArray, "is_array"},
	{IfiIsBool, "is_bool"},
	{IfiIsScalar, "is_scalar"},
	{IfiIsNumeric, "is_numeric"},
	{IfiIsInteger, "is_integer"},
	{IfiIsLong, "is_long"},
	{IfiIsFloat, "is_float"},
	{IfiIsDouble, "is_double"},
	{IfiIsReal, "is_real"},
	{IfiIsString, "is_string"},
	{IfiIsObject, "is_object"},
}

// builtinChecks maps predicate builtins to the check they perform.
var builtinChecks = map[string]IssetFlags{
	"is_null":    IfiIsNull,
	"is_array":   IfiIsArray,
	"is_bool":    IfiIsBool,
	"is_scalar":  IfiIsScalar,
	"is_numeric": IfiIsNumeric,
	"is_int":     IfiIsInteger,
	"is_integer": IfiIsInteger,
	"is_long":    IfiIsLong,
	"is_float":   IfiIsFloat,
	"is_double":  IfiIsDouble,
	"is_real":    IfiIsReal,
	"is_string":  IfiIsString,
	"is_object":  IfiIsObject,
}

// BuiltinCheck returns the check performed by a builtin predicate such as is_array.
func BuiltinCheck(name string) (IssetFlags, bool) {
	f, ok := builtinChecks[strings.ToLower(name)]
	return f, ok
}

// Has reports whether all bits of other are set.
func (f IssetFlags) Has(other IssetFlags) bool { return f&other == other }

func (f IssetFlags) String() string {
	if f == 0 {
		return "none"
	}
	if f == IfiSaturated {
		return "saturated"
	}
	var parts []string
	for _, n := range issetFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseIssetFlags parses a list of check names; "all" enables everything.
func ParseIssetFlags(names []string) (IssetFlags, error) {
	var f IssetFlags
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name == "all" {
			f |= IfiAll
			continue
		}
		if name == "isset" {
			f |= IfiIsset
			continue
		}
		bit, ok := builtinChecks[name]
		if !ok {
			return 0, fmt.Errorf("unknown check %q", raw)
		}
		f |= bit
	}
	return f, nil
}

// IssetIsDangerous reports whether checks flags can give a different answer than PHP
// would for a value the compiler typed as t.
func IssetIsDangerous(flags IssetFlags, t types.Type) bool {
	ptp := t.PType()
	if flags&IfiIsset != 0 {
		return !t.IsUniversal()
	}
	res := false
	res = res || ptp == types.KindArray && flags&IfiIsArray != 0
	res = res || (ptp == types.KindBool || t.UseOrFalse()) &&
		flags&(IfiIsBool|IfiIsScalar) != 0
	res = res || ptp == types.KindInt &&
		flags&(IfiIsScalar|IfiIsNumeric|IfiIsInteger|IfiIsLong) != 0
	res = res || ptp == types.KindFloat &&
		flags&(IfiIsScalar|IfiIsNumeric|IfiIsFloat|IfiIsDouble|IfiIsReal) != 0
	res = res || ptp == types.KindString &&
		flags&(IfiIsScalar|IfiIsString) != 0
	return res
}
