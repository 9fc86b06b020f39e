package tinf

import (
	"fmt"
	"strings"

	"phpc/internal/ast"
	"phpc/internal/trace"
	"phpc/internal/types"
)

const issetCategory = "isset, !==, ===, is_array or similar function"

// DangerousIssetError explains why a presence check cannot be trusted.
type DangerousIssetError struct {
	Flags IssetFlags
	// Node is the node whose type makes the check unsound.
	Node Node
	Type types.TypeID
	// Chain runs from the checked expression down to Node, both included.
	Chain []Node
	// Descriptions holds Graph.Description for every Chain element.
	Descriptions []string
	Message      string
}

func (e *DangerousIssetError) Error() string { return e.Message }

// IssetStats counts detector work; mostly useful in tests and traces.
type IssetStats struct {
	Queries int
	Visits  int
	Skips   int
	Reports int
}

// IssetDetector walks the graph backwards from checked expressions. Node masks persist
// across Check calls, so a detector and its graph must not be shared between goroutines.
type IssetDetector struct {
	g      *Graph
	tracer trace.Tracer
	stats  IssetStats
}

// NewIssetDetector creates a detector over a frozen graph.
func NewIssetDetector(g *Graph, tracer trace.Tracer) *IssetDetector {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &IssetDetector{g: g, tracer: tracer}
}

// Stats returns counters accumulated over all Check calls.
func (d *IssetDetector) Stats() IssetStats { return d.stats }

type issetFrame struct {
	node Node
	succ []Node
	next int
}

// Check returns nil when flags applied to start can be trusted, or *DangerousIssetError.
func (d *IssetDetector) Check(flags IssetFlags, start *ExprNode) error {
	d.stats.Queries++
	if flags == 0 || start == nil {
		return nil
	}

	var stack []issetFrame
	// enter explores n and pushes a frame when n has something to follow.
	enter := func(n Node) *DangerousIssetError {
		b := n.base()
		if b.issetWas&flags == flags {
			d.stats.Skips++
			return nil
		}
		b.issetWas |= flags
		d.stats.Visits++

		succ, culprit := d.expand(flags, n)
		if culprit {
			b.issetWas = IfiSaturated
			return d.report(flags, stack, n)
		}
		if len(succ) > 0 {
			stack = append(stack, issetFrame{node: n, succ: succ})
		}
		return nil
	}

	if err := enter(start); err != nil {
		return err
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.succ) {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.succ[top.next]
		top.next++
		if err := enter(n); err != nil {
			return err
		}
	}
	return nil
}

// expand returns the nodes n depends on for this query, or culprit=true when n itself
// makes the check unsound.
func (d *IssetDetector) expand(flags IssetFlags, n Node) (succ []Node, culprit bool) {
	switch n := n.(type) {
	case *TypeNode:
		return nil, false

	case *ExprNode:
		v := n.Expr
		switch v.Op() {
		case ast.OpIndex:
			if d.containerIsTuple(v) {
				return nil, false
			}
			return nil, IssetIsDangerous(flags, d.g.TypeOf(n))
		case ast.OpVar:
			x := v.VarID()
			if x == nil {
				return nil, false
			}
			if x.Uninited && IssetIsDangerous(flags, d.g.TypeOf(n)) {
				return nil, true
			}
			if vn := d.g.LookupVar(x); vn != nil {
				return []Node{vn}, false
			}
		case ast.OpFuncCall:
			if fn := v.FuncID(); fn != nil {
				if rn := d.g.LookupReturn(fn); rn != nil {
					return []Node{rn}, false
				}
			}
		}
		return nil, false

	case *VarNode:
		from := n.Var
		owner := n.Func
		if from != nil {
			owner = from.HolderFunc
		}
		for _, e := range n.next {
			if !e.FromAt.Empty() {
				continue
			}
			if e.Within != nil && e.Within != owner {
				continue
			}
			// function f(&$a) {}; f($b): $b must not see what other callers pass as $a.
			if from != nil && from.HolderFunc != nil {
				if to, ok := e.To.(*VarNode); ok && to.Var.IsParam() && to.Var.HolderFunc != from.HolderFunc {
					continue
				}
			}
			succ = append(succ, e.To)
		}
		return succ, false
	}
	return nil, false
}

func (d *IssetDetector) containerIsTuple(index *ast.Vertex) bool {
	arr := d.g.ExprNodeOf(index.Son("array"))
	if arr == nil {
		return false
	}
	return d.g.TypeOf(arr).IsTuple()
}

func (d *IssetDetector) report(flags IssetFlags, stack []issetFrame, culprit Node) *DangerousIssetError {
	d.stats.Reports++
	chain := make([]Node, 0, len(stack)+1)
	for _, f := range stack {
		chain = append(chain, f.node)
	}
	chain = append(chain, culprit)

	descs := make([]string, len(chain))
	for i, n := range chain {
		descs[i] = d.g.Description(n)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s result may differ from PHP\n", issetCategory)
	fmt.Fprintf(&sb, " Probably, this happened because %s of type %s can't be null after compilation, while it can be in PHP\n",
		headline(descs[len(descs)-1]), d.g.Types.String(culprit.Type()))
	sb.WriteString(" Chain of assignments:\n")
	for _, desc := range descs {
		sb.WriteString("  ")
		sb.WriteString(desc)
		sb.WriteByte('\n')
	}

	trace.Point(d.tracer, trace.ScopeNode, "isset.dangerous",
		fmt.Sprintf("%s via %d nodes", flags, len(chain)), 0)

	return &DangerousIssetError{
		Flags:        flags,
		Node:         culprit,
		Type:         culprit.Type(),
		Chain:        chain,
		Descriptions: descs,
		Message:      sb.String(),
	}
}
