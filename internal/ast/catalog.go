package ast

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed ops.yaml
var opsYAML []byte

// Extras is the capability set of an operation: which associated values it carries.
type Extras uint8

const (
	ExtraString Extras = 1 << iota
	ExtraFunction
	ExtraVariable
)

var extraNames = map[string]Extras{
	"string":   ExtraString,
	"function": ExtraFunction,
	"variable": ExtraVariable,
}

// Has reports whether all bits of e2 are present.
func (e Extras) Has(e2 Extras) bool {
	return e&e2 == e2
}

// SonSpec addresses one named child. Negative ids count from the end.
type SonSpec struct {
	ID       int  `yaml:"id"`
	Optional bool `yaml:"optional"`
}

// UnmarshalYAML accepts both `name: 1` and `name: {id: 1, optional: true}`.
func (s *SonSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Optional = false
		return value.Decode(&s.ID)
	}
	type plain SonSpec
	return value.Decode((*plain)(s))
}

// OpInfo is the catalog entry of one operation after base inheritance is applied.
type OpInfo struct {
	Name       string             `yaml:"name"`
	Base       string             `yaml:"base"`
	ExtraNames []string           `yaml:"extras"`
	Sons       map[string]SonSpec `yaml:"sons"`
	Alias      map[string]string  `yaml:"alias"`
	Ranges     map[string][2]int  `yaml:"ranges"`

	Op     Operation `yaml:"-"`
	Extras Extras    `yaml:"-"`
}

// Catalog is the per-kind capability table.
type Catalog struct {
	ops [OperationCount]*OpInfo
}

var (
	// ErrCatalog wraps every catalog validation failure.
	ErrCatalog = errors.New("invalid operation catalog")

	defaultCatalog = mustLoadCatalog(opsYAML)
)

func mustLoadCatalog(data []byte) *Catalog {
	c, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the catalog embedded into the binary.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// LoadCatalog parses and validates a catalog: every Operation must be described exactly once,
// bases must exist and must not form cycles, extras must be known.
func LoadCatalog(data []byte) (*Catalog, error) {
	var entries []*OpInfo
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	byName := make(map[string]*OpInfo, len(entries))
	for _, e := range entries {
		op, ok := ParseOperation(e.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown operation %q", ErrCatalog, e.Name)
		}
		if _, dup := byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s described twice", ErrCatalog, e.Name)
		}
		e.Op = op
		byName[e.Name] = e
	}

	c := &Catalog{}
	resolving := make(map[string]bool)
	var resolve func(name string) (*OpInfo, error)
	resolve = func(name string) (*OpInfo, error) {
		e, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown base %q", ErrCatalog, name)
		}
		if c.ops[e.Op] != nil {
			return c.ops[e.Op], nil
		}
		if resolving[name] {
			return nil, fmt.Errorf("%w: base cycle through %s", ErrCatalog, name)
		}
		resolving[name] = true
		defer delete(resolving, name)

		info := &OpInfo{
			Name:   e.Name,
			Base:   e.Base,
			Op:     e.Op,
			Sons:   map[string]SonSpec{},
			Alias:  map[string]string{},
			Ranges: map[string][2]int{},
		}
		if e.Base != "" {
			base, err := resolve(e.Base)
			if err != nil {
				return nil, err
			}
			info.Extras = base.Extras
			info.ExtraNames = append(info.ExtraNames, base.ExtraNames...)
			copyInto(info.Sons, base.Sons)
			copyInto(info.Alias, base.Alias)
			copyInto(info.Ranges, base.Ranges)
		}
		for _, x := range e.ExtraNames {
			bit, ok := extraNames[x]
			if !ok {
				return nil, fmt.Errorf("%w: %s: unknown extra %q", ErrCatalog, e.Name, x)
			}
			if !info.Extras.Has(bit) {
				info.ExtraNames = append(info.ExtraNames, x)
			}
			info.Extras |= bit
		}
		copyInto(info.Sons, e.Sons)
		copyInto(info.Alias, e.Alias)
		copyInto(info.Ranges, e.Ranges)
		for alias, target := range info.Alias {
			_, son := info.Sons[target]
			_, rng := info.Ranges[target]
			if !son && !rng {
				return nil, fmt.Errorf("%w: %s: alias %s points to unknown %s", ErrCatalog, e.Name, alias, target)
			}
		}
		sort.Strings(info.ExtraNames)
		c.ops[e.Op] = info
		return info, nil
	}

	for op := Operation(0); op < OperationCount; op++ {
		if _, ok := byName[op.String()]; !ok {
			return nil, fmt.Errorf("%w: %s is not described", ErrCatalog, op)
		}
		if _, err := resolve(op.String()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func copyInto[V any](dst, src map[string]V) {
	for k, v := range src {
		dst[k] = v
	}
}

// Info returns the catalog entry for op.
func (c *Catalog) Info(op Operation) *OpInfo {
	if op >= OperationCount {
		return nil
	}
	return c.ops[op]
}

// resolveName follows aliases.
func (info *OpInfo) resolveName(name string) string {
	if target, ok := info.Alias[name]; ok {
		return target
	}
	return name
}

// MinArity is the smallest child count for which every required named son exists.
func (info *OpInfo) MinArity() int {
	n := 0
	for _, s := range info.Sons {
		if s.Optional {
			continue
		}
		need := s.ID + 1
		if s.ID < 0 {
			need = -s.ID
		}
		n = max(n, need)
	}
	return n
}

// MaxArity is the largest child count the kind accepts, or -1 when it has a range.
func (info *OpInfo) MaxArity() int {
	if len(info.Ranges) > 0 {
		return -1
	}
	n := 0
	for _, s := range info.Sons {
		if s.ID >= 0 {
			n = max(n, s.ID+1)
		} else {
			return -1
		}
	}
	return n
}
