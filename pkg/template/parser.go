package template

import (
	"fmt"
	"strings"
	"unicode"
)

// voidElements never have children or a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parser is a recursive descent parser for directive templates
type Parser struct {
	input    string
	pos      int
	line     int
	col      int
	filename string
}

// NewParser creates a new template parser
func NewParser(filename, input string) *Parser {
	return &Parser{
		input:    input,
		line:     1,
		col:      1,
		filename: filename,
	}
}

// Parse parses a whole template and returns its single root element.
func Parse(filename, input string) (*Node, error) {
	return NewParser(filename, input).Parse()
}

// Parse parses the entire template. A template must have exactly one root
// element; surrounding whitespace is ignored.
func (p *Parser) Parse() (*Node, error) {
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.input) {
		return nil, p.error("unexpected closing tag")
	}

	var root *Node
	for _, n := range nodes {
		if n.IsText() {
			if strings.TrimSpace(n.Text) != "" {
				return nil, fmt.Errorf("%s: text outside of the root element", p.filename)
			}
			continue
		}
		if root != nil {
			return nil, fmt.Errorf("%s: template must have a single root element", p.filename)
		}
		root = n
	}
	if root == nil {
		return nil, fmt.Errorf("%s: template has no root element", p.filename)
	}
	return root, nil
}

// parseNodes parses a sequence of sibling nodes up to a closing tag or EOF
func (p *Parser) parseNodes() ([]*Node, error) {
	var nodes []*Node

	for p.pos < len(p.input) {
		switch {
		case p.peek("<!--"):
			if err := p.skipComment(); err != nil {
				return nil, err
			}
		case p.peek("</"):
			return nodes, nil
		case p.peek("<"):
			node, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		default:
			node, err := p.parseText()
			if err != nil {
				return nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
	}

	return nodes, nil
}

// parseElement parses an element or component with its children
func (p *Parser) parseElement() (*Node, error) {
	line, col := p.line, p.col
	if !p.consume("<") {
		return nil, p.error("expected <")
	}

	tag := p.parseTagName()
	if tag == "" {
		return nil, p.error("expected tag name")
	}

	props, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}

	node := NewElement(tag, props)
	node.Line, node.Col = line, col

	p.skipWhitespace()
	if p.consume("/>") {
		return node, nil
	}
	if !p.consume(">") {
		return nil, p.error("expected >")
	}
	if voidElements[strings.ToLower(tag)] {
		return node, nil
	}

	children, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	node.Children = children

	if !p.consume("</") {
		return nil, p.error(fmt.Sprintf("missing closing tag for <%s>", tag))
	}
	closing := p.parseTagName()
	if closing != tag {
		return nil, p.error(fmt.Sprintf("mismatched tags: <%s> and </%s>", tag, closing))
	}
	p.skipWhitespace()
	if !p.consume(">") {
		return nil, p.error("expected >")
	}

	return node, nil
}

// parseAttributes parses attributes and directives in source order
func (p *Parser) parseAttributes() ([]*Prop, error) {
	var props []*Prop

	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return nil, p.error("unterminated tag")
		}
		if p.peek(">") || p.peek("/>") {
			return props, nil
		}

		key := p.parseAttributeName()
		if key == "" {
			return nil, p.error(fmt.Sprintf("unexpected character %q in tag", p.input[p.pos]))
		}

		p.skipWhitespace()
		if !p.consume("=") {
			// Boolean attribute
			props = append(props, NewProp(key, ""))
			continue
		}
		p.skipWhitespace()

		quote := ""
		switch {
		case p.peek(`"`):
			quote = `"`
		case p.peek("'"):
			quote = "'"
		default:
			return nil, p.error(fmt.Sprintf("expected quoted value for attribute %s", key))
		}
		p.consume(quote)
		value := p.parseUntil(quote)
		if !p.consume(quote) {
			return nil, p.error(fmt.Sprintf("unterminated value for attribute %s", key))
		}

		props = append(props, NewProp(key, value))
	}
}

// parseText parses text up to the next tag. Interpolations may contain '<'.
// Indentation-only text (whitespace containing a newline) is dropped.
func (p *Parser) parseText() (*Node, error) {
	line, col := p.line, p.col
	start := p.pos

	for p.pos < len(p.input) {
		if p.peek("{{") {
			p.parseUntil("}}")
			if !p.consume("}}") {
				return nil, p.error("unterminated interpolation")
			}
			continue
		}
		if p.peek("<") {
			break
		}
		p.advance()
	}

	text := p.input[start:p.pos]
	if text == "" || (strings.TrimSpace(text) == "" && strings.Contains(text, "\n")) {
		return nil, nil
	}

	node := NewText(text)
	node.Line, node.Col = line, col
	return node, nil
}

func (p *Parser) skipComment() error {
	p.consume("<!--")
	p.parseUntil("-->")
	if !p.consume("-->") {
		return p.error("unterminated comment")
	}
	return nil
}

// Helper methods

func (p *Parser) peek(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *Parser) consume(s string) bool {
	if p.peek(s) {
		for i := 0; i < len(s); i++ {
			p.advance()
		}
		return true
	}
	return false
}

func (p *Parser) advance() {
	if p.pos < len(p.input) {
		if p.input[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.advance()
	}
}

func (p *Parser) parseUntil(delimiter string) string {
	start := p.pos
	for p.pos < len(p.input) && !p.peek(delimiter) {
		p.advance()
	}
	return p.input[start:p.pos]
}

func (p *Parser) parseTagName() string {
	start := p.pos
	for p.pos < len(p.input) {
		ch := rune(p.input[p.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
			break
		}
		p.advance()
	}
	return p.input[start:p.pos]
}

func (p *Parser) parseAttributeName() string {
	start := p.pos
	for p.pos < len(p.input) {
		ch := rune(p.input[p.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && !strings.ContainsRune("-:._@", ch) {
			break
		}
		p.advance()
	}
	return p.input[start:p.pos]
}

func (p *Parser) error(msg string) error {
	return fmt.Errorf("%s:%d:%d: %s", p.filename, p.line, p.col, msg)
}
