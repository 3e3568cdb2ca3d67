package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "identifier", expr: "show", want: []string{"show"}},
		{name: "member access", expr: "user.name", want: []string{"user"}},
		{name: "index access", expr: "items[idx]", want: []string{"items", "idx"}},
		{name: "call", expr: "fmtPrice(count)", want: []string{"fmtPrice", "count"}},
		{name: "ternary", expr: "a ? b : c", want: []string{"a", "b", "c"}},
		{name: "map keys are not references", expr: "{active: isActive}", want: []string{"isActive"}},
		{name: "strings are not references", expr: `"hello " + name`, want: []string{"name"}},
		{name: "strict equality falls back to scan", expr: `picked === "one"`, want: []string{"picked"}},
		{name: "scan skips members and keys", expr: `typeof obj.prop === 'x' || {key: val}`, want: []string{"obj", "val"}},
		{name: "constructor and this", expr: "log(new Date(), this)", want: []string{"log", "Date"}},
		{name: "function literal", expr: "x.filter(function(y) { return y })", want: []string{"x"}},
		{name: "named function literal", expr: "xs.map(function pick(a, b) { return a[b] })", want: []string{"xs"}},
		{name: "arrow parameters", expr: "xs.map((a, i) => a + i + offset)", want: []string{"xs", "offset"}},
		{name: "single arrow parameter", expr: "xs.some(v => v === target)", want: []string{"xs", "target"}},
		{name: "unary keywords", expr: "void 0 !== delete cache.k", want: []string{"cache"}},
		{name: "instanceof", expr: "err instanceof Failure", want: []string{"err", "Failure"}},
		{name: "only keywords", expr: "this", want: nil},
		{name: "function suffix in a name", expr: "myfunction(count)", want: []string{"myfunction", "count"}},
		{name: "argument list", expr: "item, index", want: []string{"item", "index"}},
		{name: "empty", expr: "  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, References(tt.expr))
		})
	}
}

func TestExtractor_Track(t *testing.T) {
	deps := NewDependencies()
	exclude := NewScope(Globals...).With("item")

	New().Track("item.price * qty + event.x", exclude, deps)
	New().Track("qty", exclude, deps)

	assert.Equal(t, []string{"qty"}, deps.List())
}

func TestExtractor_Template(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		wantDeps []string
	}{
		{name: "plain", text: "Hello", want: `"Hello"`},
		{name: "empty", text: "", want: `""`},
		{name: "only expression", text: "{{ name }}", want: `"" + name`, wantDeps: []string{"name"}},
		{name: "mixed", text: "Hi {{name}}!", want: `"Hi " + name + "!"`, wantDeps: []string{"name"}},
		{name: "complex expression", text: "{{ a ? b : c }}", want: `"" + (a ? b : c)`, wantDeps: []string{"a", "b", "c"}},
		{name: "escaping", text: "say \"hi\"\n", want: `"say \"hi\"\n"`},
		{name: "unterminated is literal", text: "a {{ b", want: `"a {{ b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := NewDependencies()
			got := New().Template(tt.text, NewScope(Globals...), deps)
			assert.Equal(t, tt.want, got)
			if tt.wantDeps == nil {
				assert.Zero(t, deps.Len())
			} else {
				assert.Equal(t, tt.wantDeps, deps.List())
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, name := range []string{"msg", "$el", "_private", "item2"} {
		assert.True(t, IsIdentifier(name), name)
	}
	for _, name := range []string{"new", "this", "return", "2x", "a-b", ""} {
		assert.False(t, IsIdentifier(name), name)
	}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{expr: "msg", want: "msg"},
		{expr: "user.name", want: "user.name"},
		{expr: "42", want: "42"},
		{expr: `"one"`, want: `"one"`},
		{expr: `'it\'s'`, want: `'it\'s'`},
		{expr: `"a" + b`, want: `("a" + b)`},
		{expr: "a || b", want: "(a || b)"},
		{expr: " mode ? a : b ", want: "(mode ? a : b)"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Group(tt.expr))
		})
	}
}

func TestScope_WithDoesNotMutate(t *testing.T) {
	base := NewScope("a")
	next := base.With("b", "c")

	assert.False(t, base.Has("b"))
	assert.True(t, next.Has("a"))
	assert.Equal(t, []string{"a", "b", "c"}, next.Names())
	assert.Equal(t, 1, base.Len())
}

func TestDependencies_Dedup(t *testing.T) {
	var deps Dependencies
	deps.Add("x")
	deps.Add("y")
	deps.Add("x")

	assert.Equal(t, []string{"x", "y"}, deps.List())
	assert.True(t, deps.Has("y"))
	assert.False(t, deps.Has("z"))
}
