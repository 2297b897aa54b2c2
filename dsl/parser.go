// Package dsl 解析 electra 文档语言，产出供 layout 使用的 AST。
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var documentParser = participle.MustBuild[Document](
	participle.Lexer(dslLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
)

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// ParseBytes parses DSL content, reporting positions against filename.
func ParseBytes(filename string, data []byte) (*Document, error) {
	return documentParser.ParseBytes(filename, data)
}

// Parse implements participle.Parseable for Expression. An expression runs
// to the end of the line, a brace, or a ';' or ',' outside brackets.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var n nesting
	var parts []*Lexeme
	for !n.ends(lex.Peek()) {
		lexeme, err := consumeLexeme(lex)
		if err != nil {
			return err
		}
		n.track(lexeme.Raw)
		parts = append(parts, lexeme)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// nesting tracks open parentheses and brackets inside an expression.
type nesting struct {
	paren, bracket int
}

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

func (n nesting) top() bool { return n.paren == 0 && n.bracket == 0 }

func (n nesting) ends(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, lbraceTokenType, rbraceTokenType:
		return n.top()
	case symbolTokenType:
		switch tok.Value {
		case ";", ",":
			return n.top()
		case "]":
			// closes an enclosing array literal
			return n.bracket == 0
		}
	}
	return false
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
