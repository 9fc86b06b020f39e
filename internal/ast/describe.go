package ast

import (
	"strconv"
	"strings"
)

const describeLimit = 80

// Describe renders v as short PHP-like text for diagnostics: `$x`, `$a[$i]`, `f($x)`.
func Describe(v *Vertex) string {
	var b strings.Builder
	describe(&b, v, 0)
	s := b.String()
	if len(s) > describeLimit {
		s = s[:describeLimit-3] + "..."
	}
	return s
}

func describe(b *strings.Builder, v *Vertex, depth int) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	if depth > 8 {
		b.WriteString("...")
		return
	}
	switch v.op {
	case OpVar:
		b.WriteByte('$')
		b.WriteString(varName(v))
	case OpIndex:
		describe(b, v.Son("array"), depth+1)
		b.WriteByte('[')
		if v.HasSon("key") {
			describe(b, v.Son("key"), depth+1)
		}
		b.WriteByte(']')
	case OpInstanceProp:
		describe(b, v.Son("instance"), depth+1)
		b.WriteString("->")
		b.WriteString(v.Str())
	case OpFuncCall:
		name := v.Str()
		if name == "" && v.FuncID() != nil {
			name = v.FuncID().Name
		}
		b.WriteString(name)
		b.WriteByte('(')
		describeList(b, v.Range("args"), depth)
		b.WriteByte(')')
	case OpIsset:
		b.WriteString("isset(")
		describe(b, v.Son("expr"), depth+1)
		b.WriteByte(')')
	case OpSet:
		describe(b, v.Son("lhs"), depth+1)
		b.WriteString(" = ")
		describe(b, v.Son("rhs"), depth+1)
	case OpEq3, OpNeq3:
		describe(b, v.Son("lhs"), depth+1)
		if v.op == OpEq3 {
			b.WriteString(" === ")
		} else {
			b.WriteString(" !== ")
		}
		describe(b, v.Son("rhs"), depth+1)
	case OpReturn:
		b.WriteString("return")
		if v.HasSon("expr") {
			b.WriteByte(' ')
			describe(b, v.Son("expr"), depth+1)
		}
	case OpNull:
		b.WriteString("null")
	case OpTrue:
		b.WriteString("true")
	case OpFalse:
		b.WriteString("false")
	case OpIntConst, OpFloatConst:
		b.WriteString(v.Str())
	case OpString:
		b.WriteString(strconv.Quote(v.Str()))
	case OpArray:
		b.WriteByte('[')
		describeList(b, v.Range("args"), depth)
		b.WriteByte(']')
	case OpTuple:
		b.WriteString("tuple(")
		describeList(b, v.Range("args"), depth)
		b.WriteByte(')')
	default:
		b.WriteString(v.op.String())
	}
}

func describeList(b *strings.Builder, vs []*Vertex, depth int) {
	for i, a := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, a, depth+1)
	}
}

func varName(v *Vertex) string {
	if name := v.Str(); name != "" {
		return name
	}
	if x := v.VarID(); x != nil {
		return x.Name
	}
	return "?"
}
