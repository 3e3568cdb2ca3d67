package compiler

import (
	"strings"

	"github.com/recera/lune/pkg/template"
)

// conditionalDirective compiles m-if. The next non-text sibling, when it
// carries m-else, is removed from the parent and compiled as the else branch.
type conditionalDirective struct{}

func (conditionalDirective) Name() string { return "m-if" }

func (conditionalDirective) BeforeGenerate(st *State, prop *template.Prop, site *Site) error {
	if strings.TrimSpace(prop.Value) == "" {
		return directiveError(prop, site.Node, ErrMissingArgument)
	}
	if site.Parent == nil {
		return nil
	}

	children := site.Parent.Children
	for i := site.Index + 1; i < len(children); i++ {
		sibling := children[i]
		if sibling.IsText() {
			continue
		}
		switch {
		case sibling.Has("m-else"):
			st.pushConditional(conditionalRecord{
				owner: site.Node,
				index: i,
				node:  site.Parent.RemoveChild(i),
			})
			st.raiseDynamic(site.Node)
		case sibling.Has("m-if"):
			st.raiseDynamic(site.Node)
		}
		break
	}

	return nil
}

func (conditionalDirective) AfterGenerate(st *State, prop *template.Prop, site *Site, code string) (string, error) {
	emit := st.Emitter()

	otherwise := emit.EmptyText()
	if rec, ok := st.popConditional(site.Node); ok {
		st.pendingElse = rec.node
		elseCode, err := st.generateNode(rec.node, site.Parent, rec.index)
		if err != nil {
			return "", err
		}
		otherwise = elseCode
	}

	st.lowerDynamic(site.Node)
	st.Track(prop.Value)

	return emit.Conditional(strings.TrimSpace(prop.Value), code, otherwise), nil
}
