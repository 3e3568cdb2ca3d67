package compiler

import (
	"fmt"
	"strings"

	"github.com/recera/lune/pkg/template"
)

// eventDirective compiles m-on:<event>.<modifier>...="method(args)".
type eventDirective struct{}

func (eventDirective) Name() string { return "m-on" }

func (eventDirective) BeforeGenerate(st *State, prop *template.Prop, site *Site) error {
	modifiers := strings.Split(prop.Arg(), ".")
	eventType := modifiers[0]
	modifiers = modifiers[1:]
	if eventType == "" {
		return directiveError(prop, site.Node, ErrMissingArgument)
	}

	method, params, call, err := parseHandler(prop.Value)
	if err != nil {
		return directiveError(prop, site.Node, err)
	}
	if !call {
		params = "event"
	} else if params != "" {
		st.Track(params)
	}

	emit := st.Emitter()
	guards := make([]string, 0, len(modifiers))
	for _, modifier := range modifiers {
		if code, ok := st.Modifier(modifier); ok {
			guards = append(guards, code)
		} else {
			guards = append(guards, emit.ModifierCheck(modifier))
		}
	}

	site.Meta.AddEventListener(eventType, emit.Handler(guards, method, params))
	return nil
}

// parseHandler splits "save(item, 1)" into "save" and "item, 1". call is
// false for a bare method name.
func parseHandler(value string) (method, params string, call bool, err error) {
	value = strings.TrimSpace(value)

	start := strings.Index(value, "(")
	if start == -1 {
		if strings.Contains(value, ")") {
			return "", "", false, fmt.Errorf("%w: unexpected )", ErrMalformedParams)
		}
		if value == "" {
			return "", "", false, fmt.Errorf("%w: missing method", ErrMalformedParams)
		}
		return value, "", false, nil
	}

	end := strings.LastIndex(value, ")")
	if end < start || end != len(value)-1 {
		return "", "", false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedParams)
	}

	depth := 0
	var quote byte
	for i := start; i <= end; i++ {
		ch := value[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 || (depth == 0 && i != end) {
				return "", "", false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedParams)
			}
		}
	}
	if depth != 0 || quote != 0 {
		return "", "", false, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedParams)
	}

	method = strings.TrimSpace(value[:start])
	if method == "" {
		return "", "", false, fmt.Errorf("%w: missing method", ErrMalformedParams)
	}
	return method, strings.TrimSpace(value[start+1 : end]), true, nil
}
