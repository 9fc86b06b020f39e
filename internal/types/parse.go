package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrBadType is returned for type strings the parser cannot understand.
var ErrBadType = errors.New("bad type")

// Parse interns a phpdoc-like type string such as `?int`, `float[]`, `string|false`
// or `tuple(int, string)`.
func (in *Interner) Parse(s string) (TypeID, error) {
	p := typeParser{in: in, src: s}
	id, err := p.parseType()
	if err != nil {
		return NoTypeID, fmt.Errorf("%w %q: %w", ErrBadType, s, err)
	}
	p.skipSpaces()
	if p.pos != len(p.src) {
		return NoTypeID, fmt.Errorf("%w %q: unexpected %q", ErrBadType, s, p.src[p.pos:])
	}
	return id, nil
}

type typeParser struct {
	in  *Interner
	src string
	pos int
}

func (p *typeParser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) accept(tok string) bool {
	p.skipSpaces()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) parseType() (TypeID, error) {
	if p.accept("?") {
		id, err := p.parseType()
		if err != nil {
			return NoTypeID, err
		}
		return p.in.WithOrNull(id), nil
	}
	id, err := p.parsePostfix()
	if err != nil {
		return NoTypeID, err
	}
	for p.accept("|") {
		word := p.ident()
		switch word {
		case "false":
			id = p.in.WithOrFalse(id)
		case "null":
			id = p.in.WithOrNull(id)
		default:
			return NoTypeID, fmt.Errorf("unsupported union member %q", word)
		}
	}
	return id, nil
}

func (p *typeParser) parsePostfix() (TypeID, error) {
	id, err := p.parsePrimary()
	if err != nil {
		return NoTypeID, err
	}
	for p.accept("[]") {
		id = p.in.Intern(MakeArray(id))
	}
	return id, nil
}

func (p *typeParser) parsePrimary() (TypeID, error) {
	if p.accept("(") {
		id, err := p.parseType()
		if err != nil {
			return NoTypeID, err
		}
		if !p.accept(")") {
			return NoTypeID, errors.New("expected ')'")
		}
		return id, nil
	}
	word := p.ident()
	b := p.in.Builtins()
	switch word {
	case "":
		return NoTypeID, errors.New("expected type name")
	case "int", "integer":
		return b.Int, nil
	case "float", "double":
		return b.Float, nil
	case "string":
		return b.String, nil
	case "bool", "boolean":
		return b.Bool, nil
	case "false":
		return b.False, nil
	case "null":
		return b.Null, nil
	case "mixed", "var":
		return b.Mixed, nil
	case "void":
		return b.Void, nil
	case "any":
		return b.Any, nil
	case "array":
		return b.Array, nil
	case "tuple":
		return p.parseTupleArgs()
	}
	first := []rune(word)[0]
	if first == '\\' || unicode.IsUpper(first) {
		return p.in.RegisterClass(strings.TrimPrefix(word, "\\")), nil
	}
	return NoTypeID, fmt.Errorf("unknown type %q", word)
}

func (p *typeParser) parseTupleArgs() (TypeID, error) {
	if !p.accept("(") {
		return NoTypeID, errors.New("expected '(' after tuple")
	}
	var elems []TypeID
	for {
		id, err := p.parseType()
		if err != nil {
			return NoTypeID, err
		}
		elems = append(elems, id)
		if p.accept(",") {
			continue
		}
		if p.accept(")") {
			return p.in.RegisterTuple(elems), nil
		}
		return NoTypeID, errors.New("expected ',' or ')' in tuple")
	}
}

func (p *typeParser) ident() string {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if c == '_' || c == '\\' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
