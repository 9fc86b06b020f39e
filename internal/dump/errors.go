package dump

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax          = errors.New("malformed dump")
	ErrUnknownOp       = errors.New("unknown operation")
	ErrUnknownVar      = errors.New("unknown variable")
	ErrUnknownFunction = errors.New("unknown function")
	ErrBadArity        = errors.New("wrong number of children")
	ErrBadSpan         = errors.New("bad location")
	ErrDuplicate       = errors.New("duplicate declaration")
	ErrBadField        = errors.New("field not allowed here")
)

// Error is a load failure at a path inside the dump, e.g.
// "functions[1].body.children[0]".
type Error struct {
	File  string
	Where string
	Err   error
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.File, e.Where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
