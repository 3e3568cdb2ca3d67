// Package compiler lowers a parsed template tree into render code for the
// m(...) virtual node runtime, recording the reactive dependencies of every
// expression it emits.
package compiler

import (
	"fmt"

	"github.com/recera/lune/pkg/expression"
	"github.com/recera/lune/pkg/template"
)

// Compiler holds the immutable configuration of a compilation. It is safe
// for concurrent use; every Compile call gets its own State.
type Compiler struct {
	registry  *Registry
	tracker   expression.Tracker
	emitter   Emitter
	globals   []string
	modifiers map[string]string
}

// Option configures a Compiler
type Option func(*Compiler)

// WithRegistry replaces the directive registry
func WithRegistry(r *Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithTracker replaces the dependency tracker
func WithTracker(t expression.Tracker) Option {
	return func(c *Compiler) { c.tracker = t }
}

// WithEmitter replaces the code backend
func WithEmitter(e Emitter) Option {
	return func(c *Compiler) { c.emitter = e }
}

// WithGlobals adds identifiers that are never dependencies
func WithGlobals(names ...string) Option {
	return func(c *Compiler) { c.globals = append(c.globals, names...) }
}

// WithModifiers adds or overrides event modifier guard code
func WithModifiers(modifiers map[string]string) Option {
	return func(c *Compiler) {
		for name, code := range modifiers {
			c.modifiers[name] = code
		}
	}
}

// New creates a compiler with the built-in directives and JavaScript output.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		registry:  DefaultRegistry(),
		tracker:   expression.New(),
		emitter:   JSEmitter{},
		globals:   append([]string(nil), expression.Globals...),
		modifiers: make(map[string]string, len(DefaultModifiers)),
	}
	for name, code := range DefaultModifiers {
		c.modifiers[name] = code
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the output of compiling one template
type Result struct {
	// Code is the expression producing the root render node
	Code string
	// Render is the complete render function
	Render string
	// Dependencies are the free identifiers read by the template
	Dependencies []string
}

// Compile compiles the template rooted at root. Matched else nodes are
// removed from their parent's children as a side effect.
func (c *Compiler) Compile(root *template.Node) (*Result, error) {
	if root == nil || root.IsText() {
		return nil, fmt.Errorf("compile: root must be an element")
	}

	st := newState(c)
	code, err := st.generateNode(root, nil, 0)
	if err != nil {
		return nil, err
	}
	if err := st.balanced(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	deps := st.deps.List()
	return &Result{
		Code:         code,
		Render:       c.emitter.Render(code, deps),
		Dependencies: deps,
	}, nil
}

// Compile compiles root with a default Compiler
func Compile(root *template.Node) (*Result, error) {
	return New().Compile(root)
}

type afterHook struct {
	hook AfterGenerator
	prop *template.Prop
}

// generateNode runs the directive protocol for one node: before hooks and
// prop hooks in source order, children, then after hooks in reverse order.
func (s *State) generateNode(node, parent *template.Node, index int) (string, error) {
	emit := s.compiler.emitter

	if node.IsText() {
		return emit.Text(s.Template(node.Text)), nil
	}

	if node.Has("m-else") {
		if s.pendingElse != node {
			prop := node.Directive("m-else", "")
			if prop == nil {
				prop = &template.Prop{Name: "m-else"}
			}
			return "", directiveError(prop, node, ErrOrphanElse)
		}
		s.pendingElse = nil
	}

	s.index = index
	site := &Site{Node: node, Parent: parent, Index: index, Meta: newDescriptor()}

	var (
		attrs []string
		after []afterHook
	)
	for _, prop := range node.Props {
		d, ok := s.compiler.registry.Lookup(prop.Name)
		if !ok {
			if s.compiler.registry.IsRuntime(prop.Name) {
				s.Track(prop.Value)
				site.Meta.AddDirective(prop.Key(), prop.Value)
				continue
			}
			attrs = append(attrs, emit.Attr(prop.Key(), s.Template(prop.Value)))
			continue
		}

		if h, ok := d.(BeforeGenerator); ok {
			if err := h.BeforeGenerate(s, prop, site); err != nil {
				return "", err
			}
		}
		if h, ok := d.(PropGenerator); ok {
			code, err := h.GenerateProp(s, prop, site)
			if err != nil {
				return "", err
			}
			if code != "" {
				attrs = append(attrs, code)
			}
		}
		if h, ok := d.(AfterGenerator); ok {
			after = append(after, afterHook{hook: h, prop: prop})
		}
	}

	children := make([]string, 0, len(node.Children))
	for i := 0; i < len(node.Children); i++ {
		code, err := s.generateNode(node.Children[i], node, i)
		if err != nil {
			return "", err
		}
		children = append(children, code)
	}

	code := emit.Node(node.Tag, attrs, site.Meta, children, node.Deep, s.dynamic)

	for i := len(after) - 1; i >= 0; i-- {
		var err error
		code, err = after[i].hook.AfterGenerate(s, after[i].prop, site, code)
		if err != nil {
			return "", err
		}
	}

	return code, nil
}
