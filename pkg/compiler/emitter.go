package compiler

import (
	"fmt"
	"strings"

	"github.com/recera/lune/pkg/expression"
)

// Emitter builds generated code fragments. Directive logic only talks to an
// Emitter, so a different backend can replace the JavaScript text output.
type Emitter interface {
	// Text renders a text node from a string expression
	Text(str string) string
	// EmptyText renders the placeholder used when a conditional has no else
	EmptyText() string
	// Attr renders one entry of a node's attribute map
	Attr(name, value string) string
	// Node renders an element or component
	Node(tag string, attrs []string, meta *Descriptor, children []string, deep, dynamic bool) string
	// Conditional selects then when cond holds, otherwise the other branch
	Conditional(cond, then, otherwise string) string
	// Loop renders body once per item of iterable with params bound
	Loop(iterable string, params []string, body string) string
	// Class normalises a class expression at runtime
	Class(expr string) string
	// ModifierCheck is the generic guard for modifiers without fixed code
	ModifierCheck(modifier string) string
	// Handler is an event listener running guards then calling method
	Handler(guards []string, method, params string) string
	// Setter is an event listener writing value to keypath
	Setter(keypath, value string) string
	// Equal compares two expressions
	Equal(left, right string) string
	// Render wraps the root code into the render function
	Render(code string, dependencies []string) string
}

// DefaultModifiers maps event modifiers to their guard code.
var DefaultModifiers = map[string]string{
	"stop":    "event.stopPropagation();",
	"prevent": "event.preventDefault();",
	"ctrl":    "if(event.ctrlKey === false) {return null;};",
	"shift":   "if(event.shiftKey === false) {return null;};",
	"alt":     "if(event.altKey === false) {return null;};",
	"enter":   "if(event.keyCode !== 13) {return null;};",
}

// JSEmitter emits JavaScript for the m(...) virtual node runtime.
type JSEmitter struct{}

func (JSEmitter) Text(str string) string {
	return fmt.Sprintf(`m("#text", {}, %s)`, str)
}

func (e JSEmitter) EmptyText() string {
	return e.Text(`""`)
}

func (JSEmitter) Attr(name, value string) string {
	return fmt.Sprintf("%s: %s", expression.Quote(name), value)
}

func (JSEmitter) Node(tag string, attrs []string, meta *Descriptor, children []string, deep, dynamic bool) string {
	var b strings.Builder

	b.WriteString("m(")
	b.WriteString(expression.Quote(tag))

	// props
	b.WriteString(", {attrs: {")
	b.WriteString(strings.Join(attrs, ", "))
	b.WriteString("}")
	if props := meta.DomProperties(); len(props) > 0 {
		b.WriteString(", dom: {")
		for i, name := range props {
			code, _ := meta.DomProperty(name)
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", expression.Quote(name), code)
		}
		b.WriteString("}")
	}
	if names := meta.Directives(); len(names) > 0 {
		b.WriteString(", directives: {")
		for i, name := range names {
			code, _ := meta.Directive(name)
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", expression.Quote(name), code)
		}
		b.WriteString("}")
	}
	b.WriteString("}")

	// meta
	var fields []string
	if dynamic {
		fields = append(fields, "dynamic: true")
	}
	if events := meta.Events(); len(events) > 0 {
		groups := make([]string, len(events))
		for i, event := range events {
			groups[i] = fmt.Sprintf("%s: [%s]", expression.Quote(event), strings.Join(meta.EventListeners(event), ", "))
		}
		fields = append(fields, "eventListeners: {"+strings.Join(groups, ", ")+"}")
	}
	b.WriteString(", {")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString("}, ")

	// children
	list := "[" + strings.Join(children, ", ") + "]"
	if deep {
		list = "[].concat.apply([], " + list + ")"
	}
	b.WriteString(list)
	b.WriteString(")")

	return b.String()
}

func (JSEmitter) Conditional(cond, then, otherwise string) string {
	return fmt.Sprintf("%s ? %s : %s", expression.Group(cond), then, otherwise)
}

func (JSEmitter) Loop(iterable string, params []string, body string) string {
	return fmt.Sprintf("m.renderLoop(%s, function(%s) { return %s; })", expression.Group(iterable), strings.Join(params, ", "), body)
}

func (JSEmitter) Class(expr string) string {
	return fmt.Sprintf("m.renderClass(%s)", expr)
}

func (JSEmitter) ModifierCheck(modifier string) string {
	return fmt.Sprintf("if(m.renderEventModifier(event.keyCode, %s) === false) {return null;};", expression.Quote(modifier))
}

func (JSEmitter) Handler(guards []string, method, params string) string {
	return fmt.Sprintf("function(event) {%sinstance.callMethod(%s, [%s])}", strings.Join(guards, ""), expression.Quote(method), params)
}

func (JSEmitter) Setter(keypath, value string) string {
	return fmt.Sprintf("function(event) {instance.set(%s, %s)}", expression.Quote(keypath), value)
}

func (JSEmitter) Equal(left, right string) string {
	return expression.Group(left) + " === " + expression.Group(right)
}

func (JSEmitter) Render(code string, dependencies []string) string {
	var b strings.Builder
	b.WriteString("function(m) { var instance = this; ")
	for _, dep := range dependencies {
		// a name that cannot be declared is left to the runtime scope
		if !expression.IsIdentifier(dep) {
			continue
		}
		fmt.Fprintf(&b, "var %s = instance.get(%s); ", dep, expression.Quote(dep))
	}
	b.WriteString("return ")
	b.WriteString(code)
	b.WriteString("; }")
	return b.String()
}
