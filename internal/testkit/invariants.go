// Package testkit holds structural checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"phpc/internal/ast"
	"phpc/internal/dump"
	"phpc/internal/source"
)

// CheckUnitInvariants verifies what the loader promises for any accepted dump:
// 1) every body vertex has a catalog-conformant arity and no nil children
// 2) every located vertex points into the unit's file, and inside its content when the
// dump carries source text
// 3) every expression vertex has a graph node
func CheckUnitInvariants(u *dump.Unit) error {
	return walkUnit(u, false)
}

// CheckSpanNesting additionally requires every located child to lie inside its located
// parent. Hand-written fixtures keep this; the loader does not enforce it.
func CheckSpanNesting(u *dump.Unit) error {
	return walkUnit(u, true)
}

func walkUnit(u *dump.Unit, nesting bool) error {
	if u == nil {
		return fmt.Errorf("nil unit")
	}
	f := u.Files.Get(u.File)
	if f == nil {
		return fmt.Errorf("unit file %d not found", u.File)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	w := walker{u: u, lenContent: lenContent, nesting: nesting}
	for _, fn := range u.Functions {
		body := u.Bodies[fn]
		if body == nil {
			continue
		}
		if err := w.vertex(body); err != nil {
			return fmt.Errorf("%s: %w", fn, err)
		}
	}
	return nil
}

type walker struct {
	u          *dump.Unit
	lenContent uint32
	nesting    bool
}

func (w walker) vertex(v *ast.Vertex) error {
	info := v.Info()
	if v.Size() < info.MinArity() {
		return fmt.Errorf("%s has %d children, needs %d", v.Op(), v.Size(), info.MinArity())
	}
	if hi := info.MaxArity(); hi >= 0 && v.Size() > hi {
		return fmt.Errorf("%s has %d children, allows %d", v.Op(), v.Size(), hi)
	}
	sp := v.Location
	located := sp != source.NoSpan
	if located {
		if sp.File != w.u.File {
			return fmt.Errorf("%s span points to file %d, want %d", v.Op(), sp.File, w.u.File)
		}
		if sp.End < sp.Start || (w.lenContent > 0 && sp.End > w.lenContent) {
			return fmt.Errorf("%s span %v outside content of %d bytes", v.Op(), sp, w.lenContent)
		}
	}
	for i, c := range v.Children() {
		if c == nil {
			return fmt.Errorf("%s child #%d is nil", v.Op(), i)
		}
		if w.nesting && located && c.Location != source.NoSpan && !sp.Contains(c.Location) {
			return fmt.Errorf("%s child #%d span %v is outside parent span %v", v.Op(), i, c.Location, sp)
		}
		if err := w.vertex(c); err != nil {
			return err
		}
	}
	if isExpression(v.Op()) && w.u.Graph.ExprNodeOf(v) == nil {
		return fmt.Errorf("%s at %v has no graph node", v.Op(), sp)
	}
	return nil
}

func isExpression(op ast.Operation) bool {
	switch op {
	case ast.OpVar, ast.OpIndex, ast.OpFuncCall, ast.OpIsset, ast.OpEq3, ast.OpNeq3:
		return true
	}
	return false
}
