package compiler

import (
	"strings"

	"github.com/recera/lune/pkg/template"
)

// literalDirective compiles m-literal:<name>[.dom]="expr", binding an
// attribute to a raw expression instead of a string.
type literalDirective struct{}

func (literalDirective) Name() string { return "m-literal" }

func (literalDirective) GenerateProp(st *State, prop *template.Prop, site *Site) (string, error) {
	modifiers := strings.Split(prop.Arg(), ".")
	name := modifiers[0]
	modifiers = modifiers[1:]
	if name == "" {
		return "", directiveError(prop, site.Node, ErrMissingArgument)
	}

	value := prop.Value
	st.Track(value)

	emit := st.Emitter()
	switch {
	case len(modifiers) > 0 && modifiers[0] == "dom":
		site.Meta.SetDomProperty(name, value)
		return "", nil
	case name == "class":
		return emit.Attr("class", emit.Class(value)), nil
	default:
		return emit.Attr(name, value), nil
	}
}
