package compiler

import (
	"strings"

	"github.com/recera/lune/pkg/template"
)

// modelDirective compiles two-way binding, m-model="keypath". The input's
// type attribute picks the event and DOM property:
//
//	default   input  / value
//	checkbox  change / checked
//	radio     change / checked, compared against the radio's own value
type modelDirective struct{}

func (modelDirective) Name() string { return "m-model" }

func (modelDirective) BeforeGenerate(st *State, prop *template.Prop, site *Site) error {
	keypath := strings.TrimSpace(prop.Value)
	if keypath == "" {
		return directiveError(prop, site.Node, ErrMissingArgument)
	}
	st.Track(keypath)

	emit := st.Emitter()
	eventType := "input"
	domProperty := "value"
	domValue := keypath
	setValue := "event.target.value"

	if attr := site.Node.Attr("type"); attr != nil {
		switch attr.Value {
		case "checkbox":
			eventType = "change"
			domProperty = "checked"
			setValue = "event.target.checked"
		case "radio":
			eventType = "change"
			domProperty = "checked"
			value := radioValue(st, site.Node)
			domValue = emit.Equal(keypath, value)
			setValue = value
		}
	}

	site.Meta.AddEventListener(eventType, emit.Setter(keypath, setValue))
	site.Meta.SetDomProperty(domProperty, domValue)
	return nil
}

// radioValue returns the expression for the value a radio button stands for:
// a literal value attribute, an m-literal:value expression, or null.
func radioValue(st *State, node *template.Node) string {
	if attr := node.Attr("value"); attr != nil {
		return st.Template(attr.Value)
	}
	if literal := node.Directive("m-literal", "value"); literal != nil {
		st.Track(literal.Value)
		return literal.Value
	}
	return "null"
}
