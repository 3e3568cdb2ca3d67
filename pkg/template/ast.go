package template

import "strings"

// NodeType discriminates template nodes
type NodeType uint8

const (
	// TextNode is literal text, possibly containing {{ }} interpolations
	TextNode NodeType = iota
	// ElementNode is a plain HTML element
	ElementNode
	// ComponentNode is a custom component tag (capitalised or hyphenated)
	ComponentNode
)

func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "text"
	case ElementNode:
		return "element"
	case ComponentNode:
		return "component"
	}
	return "unknown"
}

// Node is a node of a parsed template tree.
//
// The tree is owned by the parser. The compiler mutates it in two places only:
// the Children of a conditional's parent lose the matched else node, and Deep
// is set on the parent of a loop.
type Node struct {
	Type NodeType

	// Tag is the element or component name; empty for text nodes
	Tag string

	// Text holds the raw content of a text node
	Text string

	// Props are the attributes in source order
	Props []*Prop

	Children []*Node

	// Deep marks that generated children contain arrays that must be flattened
	Deep bool

	Line int
	Col  int
}

// Prop is a single attribute or directive on an element.
type Prop struct {
	// Name is the attribute key without its argument (m-on for m-on:click)
	Name string

	// Value is the raw attribute value
	Value string

	// Meta is set when the key carried an argument after ':'
	Meta *PropMeta
}

// PropMeta holds the parsed argument suffix of a directive key.
type PropMeta struct {
	// Arg is everything after the first ':' (e.g. "click.enter", "value.dom")
	Arg string
}

// Key returns the attribute key as written in the source.
func (p *Prop) Key() string {
	if p.Meta == nil {
		return p.Name
	}
	return p.Name + ":" + p.Meta.Arg
}

// Arg returns the directive argument or "" when there is none.
func (p *Prop) Arg() string {
	if p.Meta == nil {
		return ""
	}
	return p.Meta.Arg
}

// NewProp builds a Prop from a raw attribute key, splitting off the argument.
func NewProp(key, value string) *Prop {
	name, arg, found := strings.Cut(key, ":")
	prop := &Prop{Name: name, Value: value}
	if found {
		prop.Meta = &PropMeta{Arg: arg}
	}
	return prop
}

// NewText creates a text node
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

// NewElement creates an element node, or a component node when the tag looks
// like a component name.
func NewElement(tag string, props []*Prop, children ...*Node) *Node {
	return &Node{
		Type:     typeForTag(tag),
		Tag:      tag,
		Props:    props,
		Children: children,
	}
}

// Attrs builds a prop list from key/value pairs.
func Attrs(kv ...string) []*Prop {
	props := make([]*Prop, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		props = append(props, NewProp(kv[i], kv[i+1]))
	}
	return props
}

// IsText reports whether n is a text node
func (n *Node) IsText() bool {
	return n.Type == TextNode
}

// Attr returns the plain attribute called name (no argument), or nil.
func (n *Node) Attr(name string) *Prop {
	for _, p := range n.Props {
		if p.Name == name && p.Meta == nil {
			return p
		}
	}
	return nil
}

// Directive returns the prop with the given name and argument, or nil.
func (n *Node) Directive(name, arg string) *Prop {
	for _, p := range n.Props {
		if p.Name == name && p.Arg() == arg {
			return p
		}
	}
	return nil
}

// Has reports whether any prop on n is called name, regardless of argument.
func (n *Node) Has(name string) bool {
	for _, p := range n.Props {
		if p.Name == name {
			return true
		}
	}
	return false
}

// RemoveChild splices the child at i out of n.Children and returns it.
func (n *Node) RemoveChild(i int) *Node {
	child := n.Children[i]
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return child
}

func typeForTag(tag string) NodeType {
	if tag == "" {
		return TextNode
	}
	if strings.Contains(tag, "-") || (tag[0] >= 'A' && tag[0] <= 'Z') {
		return ComponentNode
	}
	return ElementNode
}
