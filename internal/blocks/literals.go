package blocks

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/funvibe/funblocks/internal/ast"
)

// ParseLiteral turns the text of a literal block into an expression.
// An empty string or character literal is allowed; other empty literals
// are holes and reported by the caller.
func ParseLiteral(shape Shape, text string) (ast.Expression, error) {
	switch shape {
	case ShapeNumber:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", text)
		}
		return &ast.Num{Value: v}, nil
	case ShapeString:
		return &ast.Str{Value: text}, nil
	case ShapeCharacter:
		r, err := parseChar(text)
		if err != nil {
			return nil, err
		}
		return &ast.Char{Value: r}, nil
	case ShapeBoolean:
		switch strings.TrimSpace(text) {
		case "true", "#t", "#true":
			return &ast.Boolean{Value: true}, nil
		case "false", "#f", "#false":
			return &ast.Boolean{Value: false}, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", text)
	}
	return nil, fmt.Errorf("%s blocks have no literal", shape)
}

func parseChar(text string) (rune, error) {
	body := strings.TrimPrefix(text, `#\`)
	switch body {
	case "space":
		return ' ', nil
	case "newline":
		return '\n', nil
	}
	if utf8.RuneCountInString(body) != 1 {
		return 0, fmt.Errorf("invalid character %q", text)
	}
	r, _ := utf8.DecodeRuneInString(body)
	return r, nil
}
