package ast

// Inspect visits root and its descendants in pre-order, children front to back.
// If f returns false the children of that vertex are skipped. An explicit stack is
// used so deep trees do not grow the goroutine stack.
func Inspect(root *Vertex, f func(*Vertex) bool) {
	if root == nil {
		return
	}
	stack := []*Vertex{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !f(v) {
			continue
		}
		for i := len(v.children) - 1; i >= 0; i-- {
			stack = append(stack, v.children[i])
		}
	}
}

// Count returns the number of vertices in the tree rooted at root.
func Count(root *Vertex) int {
	n := 0
	Inspect(root, func(*Vertex) bool {
		n++
		return true
	})
	return n
}
