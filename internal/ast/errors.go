package ast

import "fmt"

// InternalError is the panic value for contract violations on vertices: an accessor the
// kind does not support, a second arity initialization, a nil child. It always means a
// compiler bug.
type InternalError struct {
	Op     Operation
	Method string
	Msg    string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s is not supported [%d:%s]: %s", e.Method, e.Op, e.Op, e.Msg)
}

func fail(op Operation, method, format string, args ...any) {
	panic(&InternalError{Op: op, Method: method, Msg: fmt.Sprintf(format, args...)})
}
