package compiler

import (
	"strings"

	"github.com/recera/lune/pkg/template"
)

// loopDirective compiles m-for="<aliases> in <iterable>". Aliases are bound
// in the body's scope and never reported as dependencies.
type loopDirective struct{}

func (loopDirective) Name() string { return "m-for" }

func (loopDirective) BeforeGenerate(st *State, prop *template.Prop, site *Site) error {
	if site.Parent == nil {
		return directiveError(prop, site.Node, ErrLoopOnRoot)
	}

	params, iterable, err := parseLoop(prop.Value)
	if err != nil {
		return directiveError(prop, site.Node, err)
	}

	// the loop yields an array that the parent splices into its children
	site.Parent.Deep = true

	saved := st.Exclude()
	st.pushLoop(loopRecord{
		owner:    site.Node,
		iterable: iterable,
		params:   params,
		saved:    saved,
	})
	st.SetExclude(saved.With(params...))
	st.TrackIn(iterable, saved)

	return nil
}

func (loopDirective) AfterGenerate(st *State, prop *template.Prop, site *Site, code string) (string, error) {
	rec, ok := st.popLoop(site.Node)
	if !ok {
		return "", directiveError(prop, site.Node, ErrUnbalancedLoop)
	}
	st.SetExclude(rec.saved)

	return st.Emitter().Loop(rec.iterable, rec.params, code), nil
}

// parseLoop splits "item, index in items" into its aliases and iterable.
func parseLoop(value string) (params []string, iterable string, err error) {
	aliases, iterable, found := strings.Cut(value, " in ")
	if !found {
		return nil, "", ErrMalformedLoop
	}

	iterable = strings.TrimSpace(iterable)
	aliases = strings.TrimSpace(aliases)
	aliases = strings.TrimSuffix(strings.TrimPrefix(aliases, "("), ")")
	if iterable == "" || aliases == "" {
		return nil, "", ErrMalformedLoop
	}

	for _, alias := range strings.Split(aliases, ",") {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			return nil, "", ErrMalformedLoop
		}
		params = append(params, alias)
	}

	return params, iterable, nil
}
