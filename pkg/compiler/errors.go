package compiler

import (
	"errors"
	"fmt"

	"github.com/recera/lune/pkg/template"
)

// Structural compile errors. Match them with errors.Is.
var (
	ErrOrphanElse            = errors.New("m-else without an adjacent m-if")
	ErrUnbalancedConditional = errors.New("unmatched conditional")
	ErrUnbalancedLoop        = errors.New("unmatched loop")
	ErrMalformedLoop         = errors.New(`malformed loop, expected "<aliases> in <iterable>"`)
	ErrLoopOnRoot            = errors.New("m-for cannot be used on the root element")
	ErrMalformedParams       = errors.New("malformed event handler")
	ErrMissingArgument       = errors.New("directive requires an argument")
)

// DirectiveError reports which directive on which node failed to compile.
type DirectiveError struct {
	Directive string
	Value     string
	Line      int
	Col       int
	Err       error
}

func (e *DirectiveError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s=%q: %v", e.Line, e.Col, e.Directive, e.Value, e.Err)
	}
	return fmt.Sprintf("%s=%q: %v", e.Directive, e.Value, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

func directiveError(prop *template.Prop, node *template.Node, err error) error {
	return &DirectiveError{
		Directive: prop.Key(),
		Value:     prop.Value,
		Line:      node.Line,
		Col:       node.Col,
		Err:       err,
	}
}
