package compiler

import (
	"github.com/recera/lune/pkg/expression"
	"github.com/recera/lune/pkg/template"
)

// State is the mutable context of a single Compile call. It is never shared
// between compilations.
type State struct {
	compiler *Compiler

	exclude expression.Scope
	deps    *expression.Dependencies

	// dynamic is true while compiling inside a branching conditional. depth
	// counts the conditionals that raised it; outerDynamic is restored when
	// depth drops back to zero.
	dynamic      bool
	outerDynamic bool
	depth        int
	raised       map[*template.Node]struct{}

	index int

	conditionals []conditionalRecord
	loops        []loopRecord

	// pendingElse is the else node a conditional is currently compiling
	pendingElse *template.Node
}

// conditionalRecord is an else node captured by its conditional's pre-pass
type conditionalRecord struct {
	owner *template.Node
	index int
	node  *template.Node
}

// loopRecord is pushed by a loop's pre-pass and consumed by its post-pass
type loopRecord struct {
	owner    *template.Node
	iterable string
	params   []string
	saved    expression.Scope
}

func newState(c *Compiler) *State {
	return &State{
		compiler: c,
		exclude:  expression.NewScope(c.globals...),
		deps:     expression.NewDependencies(),
		raised:   make(map[*template.Node]struct{}),
	}
}

// Exclude returns the identifiers currently bound locally
func (s *State) Exclude() expression.Scope {
	return s.exclude
}

// SetExclude replaces the local scope
func (s *State) SetExclude(scope expression.Scope) {
	s.exclude = scope
}

// Dependencies returns the dependencies recorded so far
func (s *State) Dependencies() *expression.Dependencies {
	return s.deps
}

// Dynamic reports whether the current subtree is inside a branching conditional
func (s *State) Dynamic() bool {
	return s.dynamic
}

// Index is the position of the element being compiled among its siblings
func (s *State) Index() int {
	return s.index
}

// Emitter returns the code backend
func (s *State) Emitter() Emitter {
	return s.compiler.emitter
}

// Track records the free identifiers of expr under the current scope.
func (s *State) Track(expr string) {
	s.compiler.tracker.Track(expr, s.exclude, s.deps)
}

// TrackIn records the free identifiers of expr under scope.
func (s *State) TrackIn(expr string, scope expression.Scope) {
	s.compiler.tracker.Track(expr, scope, s.deps)
}

// Template compiles interpolated text under the current scope.
func (s *State) Template(text string) string {
	return s.compiler.tracker.Template(text, s.exclude, s.deps)
}

// Modifier returns the fixed guard code of an event modifier
func (s *State) Modifier(name string) (string, bool) {
	code, ok := s.compiler.modifiers[name]
	return code, ok
}

// Generate compiles node as the child at index of parent. Directives use it
// to compile nodes out of band.
func (s *State) Generate(node, parent *template.Node, index int) (string, error) {
	return s.generateNode(node, parent, index)
}

// raiseDynamic marks the subtree of owner as dynamic. Only the first call per
// owner counts.
func (s *State) raiseDynamic(owner *template.Node) {
	if _, ok := s.raised[owner]; ok {
		return
	}
	s.raised[owner] = struct{}{}
	if s.depth == 0 {
		s.outerDynamic = s.dynamic
	}
	s.depth++
	s.dynamic = true
}

// lowerDynamic undoes raiseDynamic for owner, if it was raised.
func (s *State) lowerDynamic(owner *template.Node) {
	if _, ok := s.raised[owner]; !ok {
		return
	}
	delete(s.raised, owner)
	s.depth--
	if s.depth == 0 {
		s.dynamic = s.outerDynamic
	}
}

func (s *State) pushConditional(rec conditionalRecord) {
	s.conditionals = append(s.conditionals, rec)
}

// popConditional returns the else record owned by owner, if any
func (s *State) popConditional(owner *template.Node) (conditionalRecord, bool) {
	n := len(s.conditionals)
	if n == 0 || s.conditionals[n-1].owner != owner {
		return conditionalRecord{}, false
	}
	rec := s.conditionals[n-1]
	s.conditionals = s.conditionals[:n-1]
	return rec, true
}

func (s *State) pushLoop(rec loopRecord) {
	s.loops = append(s.loops, rec)
}

func (s *State) popLoop(owner *template.Node) (loopRecord, bool) {
	n := len(s.loops)
	if n == 0 || s.loops[n-1].owner != owner {
		return loopRecord{}, false
	}
	rec := s.loops[n-1]
	s.loops = s.loops[:n-1]
	return rec, true
}

// balanced reports whether every pending record was consumed
func (s *State) balanced() error {
	switch {
	case len(s.conditionals) > 0 || s.depth != 0:
		return ErrUnbalancedConditional
	case len(s.loops) > 0:
		return ErrUnbalancedLoop
	}
	return nil
}
