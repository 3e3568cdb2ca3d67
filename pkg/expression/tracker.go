// Package expression extracts reactive dependencies from template
// expressions and compiles {{ }} text templates into string expressions.
package expression

import (
	"regexp"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Tracker is what the directive compiler needs from an expression front end.
type Tracker interface {
	// Track adds every free identifier of expr that is not in exclude to deps.
	Track(expr string, exclude Scope, deps *Dependencies)

	// Template compiles text with {{ }} interpolations into a string
	// expression, tracking the interpolated expressions like Track.
	Template(text string, exclude Scope, deps *Dependencies) string
}

var (
	// strings, member accesses and object keys are skipped; group 1 is a reference
	referenceRE = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\.\s*[A-Za-z$_][\w$]*|[{,]\s*[A-Za-z$_][\w$]*\s*:|([A-Za-z$_][\w$]*)`)

	simpleRE = regexp.MustCompile(`^[\w$.]+$`)
	stringRE = regexp.MustCompile(`^"(?:[^"\\]|\\.)*"$|^'(?:[^'\\]|\\.)*'$`)
	identRE  = regexp.MustCompile(`^[A-Za-z$_][\w$]*$`)

	// names and parameters of function literals, parameters of arrow functions
	functionParamsRE = regexp.MustCompile(`\bfunction\b\s*([\w$]*)\s*\(([^()]*)\)`)
	arrowParamsRE    = regexp.MustCompile(`\(([^()]*)\)\s*=>|([A-Za-z$_][\w$]*)\s*=>`)
)

// reserved are JavaScript keywords and literals. They never name a binding,
// so they are never references.
var reserved = map[string]struct{}{
	"await": {}, "break": {}, "case": {}, "catch": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {},
	"enum": {}, "export": {}, "extends": {}, "false": {}, "finally": {}, "for": {},
	"function": {}, "if": {}, "implements": {}, "import": {}, "in": {}, "instanceof": {},
	"interface": {}, "let": {}, "new": {}, "null": {}, "of": {}, "package": {}, "private": {},
	"protected": {}, "public": {}, "return": {}, "static": {}, "super": {}, "switch": {},
	"this": {}, "throw": {}, "true": {}, "try": {}, "typeof": {}, "var": {}, "void": {},
	"while": {}, "with": {}, "yield": {},
}

// IsReserved reports whether name is a JavaScript keyword or literal
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// IsIdentifier reports whether name can be declared as a JavaScript variable
func IsIdentifier(name string) bool {
	return identRE.MatchString(name) && !IsReserved(name)
}

// Group parenthesizes expr unless it is a plain path or a string literal, so
// it can be spliced next to any operator.
func Group(expr string) string {
	expr = strings.TrimSpace(expr)
	if simpleRE.MatchString(expr) || stringRE.MatchString(expr) {
		return expr
	}
	return "(" + expr + ")"
}

// Extractor is the default Tracker. It parses expressions with the expr
// language parser and falls back to a lexical scan for JavaScript syntax
// that parser does not accept (===, typeof, ...).
type Extractor struct{}

// New returns the default Tracker
func New() *Extractor {
	return &Extractor{}
}

// Track implements Tracker
func (e *Extractor) Track(expr string, exclude Scope, deps *Dependencies) {
	for _, name := range References(expr) {
		if !exclude.Has(name) {
			deps.Add(name)
		}
	}
}

// References returns the free identifiers of expr in order of appearance.
// Keywords and the parameters of inline functions are left out.
func References(expr string) []string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}

	var names []string
	if tree, err := parser.Parse(expr); err == nil {
		v := &identifierVisitor{}
		ast.Walk(&tree.Node, v)
		names = v.names
	} else {
		names = scan(expr)
	}

	bound := boundParams(expr)
	free := names[:0]
	for _, name := range names {
		if IsReserved(name) || bound[name] {
			continue
		}
		free = append(free, name)
	}
	if len(free) == 0 {
		return nil
	}
	return free
}

// boundParams collects the names and parameters of function literals in expr
func boundParams(expr string) map[string]bool {
	var bound map[string]bool
	add := func(list string) {
		for _, param := range strings.Split(list, ",") {
			param, _, _ = strings.Cut(param, "=")
			param = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(param), "..."))
			if identRE.MatchString(param) {
				if bound == nil {
					bound = make(map[string]bool)
				}
				bound[param] = true
			}
		}
	}
	for _, match := range functionParamsRE.FindAllStringSubmatch(expr, -1) {
		add(match[1] + "," + match[2])
	}
	for _, match := range arrowParamsRE.FindAllStringSubmatch(expr, -1) {
		add(match[1] + "," + match[2])
	}
	return bound
}

type identifierVisitor struct {
	names []string
}

func (v *identifierVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.names = append(v.names, n.Value)
	case *ast.BuiltinNode:
		v.names = append(v.names, n.Name)
	}
}

// scan is the lexical fallback
func scan(expr string) []string {
	var names []string
	for _, match := range referenceRE.FindAllStringSubmatch(expr, -1) {
		if match[1] != "" {
			names = append(names, match[1])
		}
	}
	return names
}

// Template implements Tracker.
//
//	"Hi {{ name }}!" -> "Hi " + name + "!"
func (e *Extractor) Template(text string, exclude Scope, deps *Dependencies) string {
	var parts []string
	rest := text

	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}

		if start > 0 {
			parts = append(parts, Quote(rest[:start]))
		}

		expr := strings.TrimSpace(rest[start+2 : start+2+end])
		if expr != "" {
			e.Track(expr, exclude, deps)
			if len(parts) == 0 {
				parts = append(parts, `""`)
			}
			parts = append(parts, Group(expr))
		}

		rest = rest[start+2+end+2:]
	}

	if rest != "" || len(parts) == 0 {
		parts = append(parts, Quote(rest))
	}

	return strings.Join(parts, " + ")
}

// Escape escapes backslashes, double quotes and newlines for splicing into a
// double-quoted string literal.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// Quote returns s as a double-quoted literal
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}
