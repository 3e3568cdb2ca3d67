package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{name: "simple element", source: `<div>Hello World</div>`},
		{name: "interpolation", source: `<p>Hello {{ name }}</p>`},
		{name: "interpolation with comparison", source: `<p>{{ a < b }}</p>`},
		{name: "self closing", source: `<my-widget m-literal:size="3"/>`},
		{name: "void element", source: `<div><input type="text" m-model="msg"></div>`},
		{name: "comment", source: `<div><!-- note --><span>x</span></div>`},
		{name: "mismatched tags", source: `<div><span></div>`, wantErr: true},
		{name: "missing closing tag", source: `<div>`, wantErr: true},
		{name: "two roots", source: `<div></div><div></div>`, wantErr: true},
		{name: "text outside root", source: `hello <div></div>`, wantErr: true},
		{name: "unquoted attribute", source: `<div id=x></div>`, wantErr: true},
		{name: "unterminated interpolation", source: `<p>{{ name </p>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.moon", tt.source)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParse_Directives(t *testing.T) {
	root, err := Parse("test.moon", `<button m-on:click.enter.ctrl="save(item)" m-literal:class="cls" disabled>Go</button>`)
	require.NoError(t, err)

	require.Len(t, root.Props, 3)

	on := root.Props[0]
	assert.Equal(t, "m-on", on.Name)
	assert.Equal(t, "click.enter.ctrl", on.Arg())
	assert.Equal(t, "save(item)", on.Value)
	assert.Equal(t, "m-on:click.enter.ctrl", on.Key())

	literal := root.Directive("m-literal", "class")
	require.NotNil(t, literal)
	assert.Equal(t, "cls", literal.Value)

	disabled := root.Attr("disabled")
	require.NotNil(t, disabled)
	assert.Equal(t, "", disabled.Value)
}

func TestParse_DropsIndentation(t *testing.T) {
	root, err := Parse("test.moon", "<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>")
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "li", root.Children[0].Tag)
	assert.Equal(t, "a", root.Children[0].Children[0].Text)
}

func TestParse_ComponentTags(t *testing.T) {
	root, err := Parse("test.moon", `<div><todo-item></todo-item><Card/><span/></div>`)
	require.NoError(t, err)

	require.Len(t, root.Children, 3)
	assert.Equal(t, ComponentNode, root.Children[0].Type)
	assert.Equal(t, ComponentNode, root.Children[1].Type)
	assert.Equal(t, ElementNode, root.Children[2].Type)
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("page.moon", "<div>\n  <span></p>\n</div>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page.moon:2:")
	assert.Contains(t, err.Error(), "mismatched tags")
}

func TestNode_RemoveChild(t *testing.T) {
	a, b, c := NewText("a"), NewText("b"), NewText("c")
	parent := NewElement("div", nil, a, b, c)

	removed := parent.RemoveChild(1)

	assert.Same(t, b, removed)
	assert.Equal(t, []*Node{a, c}, parent.Children)
}
