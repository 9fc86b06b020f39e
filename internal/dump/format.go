// Package dump loads the YAML files written by the type-inference solver: the typed
// AST of every function, variable declarations and declared types. Loading
// rebuilds the inference graph so the checks can run without the solver.
package dump

// File is the top-level document.
type File struct {
	// File is the PHP file the dump was produced from.
	File string `yaml:"file"`
	// Source is the PHP text; locations are byte offsets into it.
	Source    string      `yaml:"source,omitempty"`
	Builtins  []string    `yaml:"builtins,omitempty"`
	Globals   []VarDecl   `yaml:"globals,omitempty"`
	Functions []FuncDecl  `yaml:"functions,omitempty"`
	Main      *VertexDecl `yaml:"main,omitempty"`
}

// VarDecl declares a global, local or parameter.
type VarDecl struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type,omitempty"`
	Ref      bool     `yaml:"ref,omitempty"`
	Uninited bool     `yaml:"uninited,omitempty"`
	At       []uint32 `yaml:"at,flow,omitempty"`
}

// FuncDecl declares a user function and its typed body.
type FuncDecl struct {
	Name   string      `yaml:"name"`
	Params []VarDecl   `yaml:"params,omitempty"`
	Vars   []VarDecl   `yaml:"vars,omitempty"`
	Return string      `yaml:"return,omitempty"`
	At     []uint32    `yaml:"at,flow,omitempty"`
	Body   *VertexDecl `yaml:"body"`
}

// VertexDecl is one AST vertex.
type VertexDecl struct {
	Op       string        `yaml:"op"`
	Children []*VertexDecl `yaml:"children,omitempty"`
	Str      string        `yaml:"str,omitempty"`
	Var      string        `yaml:"var,omitempty"`
	Func     string        `yaml:"func,omitempty"`
	Type     string        `yaml:"type,omitempty"`
	At       []uint32      `yaml:"at,flow,omitempty"`
	Flags    []string      `yaml:"flags,flow,omitempty"`
}
