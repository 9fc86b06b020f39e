package source

import (
	"github.com/sirkon/rbtree"
)

// spanNode is an entry of Index. Siblings in one tree never overlap; a span that
// lies inside another one goes to that span's children.
type spanNode[T any] struct {
	start, end uint32 // half-open
	value      T
	children   *rbtree.Tree[*spanNode[T]]
}

// Cmp orders disjoint spans; overlapping spans compare equal.
func (n *spanNode[T]) Cmp(other *spanNode[T]) int {
	if n.end <= other.start {
		return -1
	}
	if n.start >= other.end {
		return 1
	}
	return 0
}

func (n *spanNode[T]) contains(other *spanNode[T]) bool {
	return n.start <= other.start && other.end <= n.end
}

// Index maps nested, non-crossing spans to values and answers "innermost span
// covering this offset". Function bodies in a dump are the typical content.
type Index[T any] struct {
	files map[FileID]*rbtree.Tree[*spanNode[T]]
	size  int
}

// NewIndex creates an empty index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{files: make(map[FileID]*rbtree.Tree[*spanNode[T]])}
}

// Add registers v under sp. It returns false for empty spans and for spans that
// partially overlap an existing one. A new span may swallow at most one existing
// sibling, so callers add enclosing spans first.
func (ix *Index[T]) Add(sp Span, v T) bool {
	if sp.Empty() {
		return false
	}
	t, ok := ix.files[sp.File]
	if !ok {
		t = rbtree.New[*spanNode[T]]()
		ix.files[sp.File] = t
	}
	if !attach(t, &spanNode[T]{start: sp.Start, end: sp.End, value: v}) {
		return false
	}
	ix.size++
	return true
}

// Len returns the number of registered spans.
func (ix *Index[T]) Len() int { return ix.size }

func attach[T any](t *rbtree.Tree[*spanNode[T]], s *spanNode[T]) bool {
	r := t.InsertReturn(s)
	if r == s {
		return true
	}
	switch {
	case r.contains(s):
		if r.children == nil {
			r.children = rbtree.New[*spanNode[T]]()
		}
		return attach(r.children, s)
	case s.contains(r):
		// s takes r's place in the tree and r moves one level down.
		old := *r
		*r = *s
		r.children = rbtree.New[*spanNode[T]]()
		return attach(r.children, &old)
	default:
		return false
	}
}

// Innermost returns the value of the smallest span covering the start of sp.
func (ix *Index[T]) Innermost(sp Span) (T, bool) {
	var zero T
	t, ok := ix.files[sp.File]
	if !ok {
		return zero, false
	}
	probe := &spanNode[T]{start: sp.Start, end: sp.Start + 1}
	var found *spanNode[T]
	for t != nil {
		n := t.Search(probe)
		if n == nil {
			break
		}
		found = n
		t = n.children
	}
	if found == nil {
		return zero, false
	}
	return found.value, true
}
