// Package data holds the identity records shared by the AST and the inference graph:
// variables and functions. Both are compared by pointer identity.
package data

import (
	"fmt"

	"phpc/internal/source"
)

// VarKind classifies where a variable lives.
type VarKind uint8

const (
	VarUnknown VarKind = iota
	VarLocal
	VarParam
	VarGlobal
	VarStatic
	VarConst
)

func (k VarKind) String() string {
	switch k {
	case VarLocal:
		return "local"
	case VarParam:
		return "param"
	case VarGlobal:
		return "global"
	case VarStatic:
		return "static"
	case VarConst:
		return "const"
	default:
		return "unknown"
	}
}

// Var is a source-level variable.
type Var struct {
	Name string
	Kind VarKind
	// HolderFunc is nil for globals and top-level code.
	HolderFunc *Function
	// ParamIndex is meaningful only for VarParam.
	ParamIndex int
	// ByRef marks `&$x` parameters.
	ByRef bool
	// Uninited is set when the variable may be read before a definite assignment.
	Uninited bool
	Location source.Span
}

// IsParam reports whether v is a function parameter.
func (v *Var) IsParam() bool {
	return v != nil && v.Kind == VarParam
}

func (v *Var) String() string {
	if v == nil {
		return "<nil var>"
	}
	if v.HolderFunc != nil {
		return fmt.Sprintf("%s::$%s", v.HolderFunc.Name, v.Name)
	}
	return "$" + v.Name
}

// Function is a user or builtin function.
type Function struct {
	Name     string
	Params   []*Var
	Locals   []*Var
	Builtin  bool
	Location source.Span
}

// NewFunction creates a function without parameters.
func NewFunction(name string, loc source.Span) *Function {
	return &Function{Name: name, Location: loc}
}

// AddParam appends a parameter owned by f.
func (f *Function) AddParam(name string, byRef bool, loc source.Span) *Var {
	v := &Var{
		Name:       name,
		Kind:       VarParam,
		HolderFunc: f,
		ParamIndex: len(f.Params),
		ByRef:      byRef,
		Location:   loc,
	}
	f.Params = append(f.Params, v)
	return v
}

// AddLocal appends a local variable owned by f.
func (f *Function) AddLocal(name string, loc source.Span) *Var {
	v := &Var{Name: name, Kind: VarLocal, HolderFunc: f, Location: loc}
	f.Locals = append(f.Locals, v)
	return v
}

// LookupVar finds a parameter or local by name.
func (f *Function) LookupVar(name string) *Var {
	for _, p := range f.Params {
		if p.Name == name {
			return p
		}
	}
	for _, l := range f.Locals {
		if l.Name == name {
			return l
		}
	}
	return nil
}

func (f *Function) String() string {
	if f == nil {
		return "<nil func>"
	}
	return f.Name + "()"
}
