// Package validate runs the post-inference checks over a loaded unit and reports
// what they find.
package validate

import (
	"context"
	"errors"
	"fmt"

	"phpc/internal/ast"
	"phpc/internal/data"
	"phpc/internal/diag"
	"phpc/internal/dump"
	"phpc/internal/tinf"
	"phpc/internal/trace"
)

// Options selects the checks to run.
type Options struct {
	// Checks masks the flags of every isset-like site; zero enables all.
	Checks tinf.IssetFlags
}

// Stats summarizes one run.
type Stats struct {
	Functions int
	Sites     int
	// Masked counts sites whose every check is disabled.
	Masked   int
	Reported int
	Detector tinf.IssetStats
}

// Site is an isset-like check found in a body.
type Site struct {
	Vertex *ast.Vertex
	// Target is the expression whose presence or shape is checked.
	Target *ast.Vertex
	Flags  tinf.IssetFlags
}

// FindSites lists isset-like checks under root in pre-order.
func FindSites(root *ast.Vertex) []Site {
	var sites []Site
	ast.Inspect(root, func(v *ast.Vertex) bool {
		if s, ok := siteOf(v); ok {
			sites = append(sites, s)
		}
		return true
	})
	return sites
}

func siteOf(v *ast.Vertex) (Site, bool) {
	switch v.Op() {
	case ast.OpIsset:
		return Site{Vertex: v, Target: v.Son("expr"), Flags: tinf.IfiIsset}, true
	case ast.OpEq3, ast.OpNeq3:
		lhs, rhs := v.Son("lhs"), v.Son("rhs")
		switch {
		case rhs.Op() == ast.OpNull && lhs.Op() != ast.OpNull:
			return Site{Vertex: v, Target: lhs, Flags: tinf.IfiIsset}, true
		case lhs.Op() == ast.OpNull && rhs.Op() != ast.OpNull:
			return Site{Vertex: v, Target: rhs, Flags: tinf.IfiIsset}, true
		}
	case ast.OpFuncCall:
		fn := v.FuncID()
		if fn == nil || !fn.Builtin || v.Empty() {
			return Site{}, false
		}
		if flags, ok := tinf.BuiltinCheck(fn.Name); ok {
			return Site{Vertex: v, Target: v.Ith(0), Flags: flags}, true
		}
	}
	return Site{}, false
}

// Run checks every function of u. Findings are warnings; the run only fails when ctx
// is cancelled.
func Run(ctx context.Context, u *dump.Unit, r diag.Reporter, opts Options) (Stats, error) {
	tracer := trace.FromContext(ctx)
	pass := trace.Begin(tracer, trace.ScopePass, "validate", trace.CurrentSpan(ctx))
	defer pass.End("")

	enabled := opts.Checks
	if enabled == 0 {
		enabled = tinf.IfiAll
	}
	det := tinf.NewIssetDetector(u.Graph, tracer)
	var st Stats
	for _, fn := range u.Functions {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		body := u.Bodies[fn]
		if body == nil {
			continue
		}
		st.Functions++
		span := trace.Begin(tracer, trace.ScopeUnit, "fn "+fn.Name, pass.ID())
		reported := 0
		for _, site := range FindSites(body) {
			st.Sites++
			flags := site.Flags & enabled
			if flags == 0 {
				st.Masked++
				continue
			}
			target := u.Graph.ExprNodeOf(site.Target)
			if target == nil {
				continue
			}
			err := det.Check(flags, target)
			if err == nil {
				continue
			}
			var de *tinf.DangerousIssetError
			if !errors.As(err, &de) {
				diag.ReportError(r, diag.IntInvariant, site.Vertex.Location, fmt.Sprintf("isset check: %v", err)).Emit()
				continue
			}
			report(r, u, site, de)
			reported++
		}
		st.Reported += reported
		span.WithExtra("reported", fmt.Sprint(reported)).End("")
	}
	st.Detector = det.Stats()
	pass.WithExtra("sites", fmt.Sprint(st.Sites)).WithExtra("reported", fmt.Sprint(st.Reported))
	return st, nil
}

func report(r diag.Reporter, u *dump.Unit, site Site, de *tinf.DangerousIssetError) {
	b := diag.ReportWarning(r, diag.SemaDangerousIsset, site.Vertex.Location, de.Message)
	for _, n := range de.Chain {
		b.WithNote(n.Location(), noteText(u, n))
	}
	b.Emit()
}

func noteText(u *dump.Unit, n tinf.Node) string {
	text := n.Headline(u.Types)
	var fn *data.Function
	switch n := n.(type) {
	case *tinf.ExprNode:
		fn = u.FunctionAt(n.Location())
	case *tinf.VarNode:
		// return slots and arguments already name their function
		if n.Var != nil && !n.Var.IsParam() {
			fn = n.Var.HolderFunc
		}
	}
	if fn != nil && fn.Name != dump.MainName {
		text += " in " + fn.String()
	}
	return text
}
