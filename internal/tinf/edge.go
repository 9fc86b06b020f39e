package tinf

import "phpc/internal/data"

// Key restricts an edge to a part of the value, e.g. a single array element.
// The empty key means the whole value.
type Key []string

// Empty reports whether the key addresses the whole value.
func (k Key) Empty() bool { return len(k) == 0 }

// Edge says that From takes (part of) its type from To.
type Edge struct {
	From *VarNode
	To   Node
	// FromAt is the part of From the edge writes. Only whole-value edges are active
	// for presence checks.
	FromAt Key
	// Within limits the edge to variables of that function. Nil means unrestricted.
	Within *data.Function
}

// EdgeOption customizes an edge created by Graph.AddEdge.
type EdgeOption func(*Edge)

// AtKey scopes the edge to a sub-value of the target variable.
func AtKey(key ...string) EdgeOption {
	return func(e *Edge) { e.FromAt = append(Key(nil), key...) }
}

// Within restricts the edge to traces started from variables owned by fn.
func Within(fn *data.Function) EdgeOption {
	return func(e *Edge) { e.Within = fn }
}
