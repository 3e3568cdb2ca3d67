package expression

import "sort"

// Globals are identifiers that are never reactive dependencies.
var Globals = []string{"true", "false", "undefined", "null", "NaN", "typeof", "in", "event", "instance", "m"}

// Scope is an immutable set of locally bound identifiers. The zero value is
// an empty scope.
type Scope struct {
	names map[string]struct{}
}

// NewScope returns a scope containing names
func NewScope(names ...string) Scope {
	return Scope{}.With(names...)
}

// With returns a new scope holding the receiver's names plus names. The
// receiver is left untouched so callers can restore it later.
func (s Scope) With(names ...string) Scope {
	next := make(map[string]struct{}, len(s.names)+len(names))
	for name := range s.names {
		next[name] = struct{}{}
	}
	for _, name := range names {
		if name != "" {
			next[name] = struct{}{}
		}
	}
	return Scope{names: next}
}

// Has reports whether name is bound in s
func (s Scope) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of bound names
func (s Scope) Len() int {
	return len(s.names)
}

// Names returns the bound names in sorted order
func (s Scope) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dependencies is an insertion-ordered set of free identifiers.
type Dependencies struct {
	names []string
	seen  map[string]struct{}
}

// NewDependencies returns an empty dependency set
func NewDependencies() *Dependencies {
	return &Dependencies{seen: make(map[string]struct{})}
}

// Add records name, ignoring duplicates
func (d *Dependencies) Add(name string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[name]; ok {
		return
	}
	d.seen[name] = struct{}{}
	d.names = append(d.names, name)
}

// Has reports whether name was recorded
func (d *Dependencies) Has(name string) bool {
	_, ok := d.seen[name]
	return ok
}

// Len returns the number of recorded names
func (d *Dependencies) Len() int {
	return len(d.names)
}

// List returns a copy of the recorded names in first-seen order
func (d *Dependencies) List() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}
