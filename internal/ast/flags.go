package ast

// Flags are the orthogonal boolean properties refined by passes after construction.
type Flags uint16

const (
	FlagRef Flags = 1 << iota
	FlagAuto
	FlagVarg
	FlagThrows
	// FlagResumable marks a resumable (generator-like) unit. On fork calls the same bit
	// is read as FlagFork.
	FlagResumable
	FlagParent
	FlagNeedsConstIterator
	FlagInline
	FlagVoid
)

// FlagFork shares storage with FlagResumable.
const FlagFork = FlagResumable

// Has returns true if every bit of flag is set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

var flagNames = [...]string{"ref", "auto", "varg", "throws", "resumable", "parent", "needs_const_iterator", "inline", "void"}

// ParseFlag maps a flag name as printed by String back to the flag. "fork" is accepted
// as an alias of "resumable".
func ParseFlag(name string) (Flags, bool) {
	if name == "fork" {
		return FlagFork, true
	}
	for i, n := range flagNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	out := ""
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			if out != "" {
				out += "|"
			}
			out += name
		}
	}
	return out
}
