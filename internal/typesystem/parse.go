package typesystem

import (
	"fmt"
	"strings"
)

// Parse reads a type written in display syntax: Boolean, Number, String,
// Character, ??? and (Listof T). The empty string parses to Unknown.
func Parse(text string) (Type, error) {
	p := &typeParser{tokens: tokenize(text)}
	if len(p.tokens) == 0 {
		return Unknown{}, nil
	}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q after type %s", p.tokens[p.pos], t)
	}
	return t, nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "(", " ( ")
	text = strings.ReplaceAll(text, ")", " ) ")
	return strings.Fields(text)
}

type typeParser struct {
	tokens []string
	pos    int
}

func (p *typeParser) next() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *typeParser) parse() (Type, error) {
	tok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of type")
	}
	switch tok {
	case "???", "Unknown":
		return Unknown{}, nil
	case "Boolean":
		return Boolean{}, nil
	case "Number":
		return Number{}, nil
	case "String":
		return String{}, nil
	case "Character":
		return Character{}, nil
	case "(":
		head, ok := p.next()
		if !ok || head != "Listof" {
			return nil, fmt.Errorf("expected Listof after '('")
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.next(); !ok || closing != ")" {
			return nil, fmt.Errorf("missing ')' in list type")
		}
		return List{Element: elem}, nil
	}
	return nil, fmt.Errorf("unknown type %q", tok)
}
