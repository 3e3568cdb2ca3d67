package compiler

import (
	"sort"

	"github.com/recera/lune/pkg/template"
)

// Directive is a reserved attribute the compiler interprets instead of
// emitting. A directive takes part in compilation through any subset of
// BeforeGenerator, PropGenerator and AfterGenerator; one implementing none
// of them is simply suppressed from the output (m-else, m-mask).
type Directive interface {
	Name() string
}

// BeforeGenerator runs before the node's own code is generated. It may
// mutate the parent's children and the compilation state.
type BeforeGenerator interface {
	BeforeGenerate(st *State, prop *template.Prop, site *Site) error
}

// PropGenerator runs while the node's attribute map is assembled. The
// returned fragment replaces default emission; "" emits nothing.
type PropGenerator interface {
	GenerateProp(st *State, prop *template.Prop, site *Site) (string, error)
}

// AfterGenerator receives the node's generated code and returns the final
// code for the node. After hooks run in reverse source order so the first
// directive on a node wraps the others.
type AfterGenerator interface {
	AfterGenerate(st *State, prop *template.Prop, site *Site, code string) (string, error)
}

// Site is the node being compiled together with its position.
type Site struct {
	Node   *template.Node
	Parent *template.Node
	Index  int
	Meta   *Descriptor
}

// Registry maps directive names to their implementation.
type Registry struct {
	special map[string]Directive
	runtime map[string]struct{}
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		special: make(map[string]Directive),
		runtime: make(map[string]struct{}),
	}
}

// DefaultRegistry returns a registry with every built-in directive.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(conditionalDirective{})
	r.Register(marker("m-else"))
	r.Register(loopDirective{})
	r.Register(eventDirective{})
	r.Register(modelDirective{})
	r.Register(literalDirective{})
	r.Register(marker("m-mask"))
	r.RegisterRuntime("m-show")
	return r
}

// Register adds or replaces a compile-time directive
func (r *Registry) Register(d Directive) {
	r.special[d.Name()] = d
}

// RegisterRuntime declares a directive that is evaluated by the runtime.
// Its expression is tracked and passed through in the node metadata.
func (r *Registry) RegisterRuntime(name string) {
	r.runtime[name] = struct{}{}
}

// Lookup returns the compile-time directive called name
func (r *Registry) Lookup(name string) (Directive, bool) {
	d, ok := r.special[name]
	return d, ok
}

// IsRuntime reports whether name is a runtime directive
func (r *Registry) IsRuntime(name string) bool {
	_, ok := r.runtime[name]
	return ok
}

// Names lists every registered directive, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.special)+len(r.runtime))
	for name := range r.special {
		names = append(names, name)
	}
	for name := range r.runtime {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy that can be extended without touching r.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for name, d := range r.special {
		c.special[name] = d
	}
	for name := range r.runtime {
		c.runtime[name] = struct{}{}
	}
	return c
}

// marker is a directive with no hooks
type marker string

func (m marker) Name() string { return string(m) }
