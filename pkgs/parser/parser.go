// Package parser implements the recursive-descent parser for the formula
// grammar in spec.md §4.1:
//
//	formula     := disjunction
//	disjunction := conjunction ( '|' conjunction )*
//	conjunction := unary ( '&' unary )*
//	unary       := '!' unary | primary
//	primary     := 'EP' '(' formula ')' | '(' formula ')' | 'TRUE' | 'FALSE' | IDENT
package parser

import (
	"strings"

	"github.com/aledsdavies/pbtlwatch/pkgs/ast"
	"github.com/aledsdavies/pbtlwatch/pkgs/lexer"
)

// ParserOpt configures a Parser, matching the teacher's functional-options
// construction style (runtime/parser/parser.go's ParserOpt).
type ParserOpt func(*Parser)

// WithMaxErrors bounds how many syntax errors are collected before parsing
// gives up, mirroring the teacher's config.MaxErrors (pkgs/parser/errors.go).
func WithMaxErrors(n int) ParserOpt {
	return func(p *Parser) { p.maxErrors = n }
}

// Parser holds the mutable state of a single parse.
type Parser struct {
	toks        []lexer.Token
	pos         int
	sourceLines []string
	maxErrors   int
	errors      []*SyntaxError
}

// Parse parses src into a formula AST. It returns the first collected
// SyntaxError as err if parsing failed; src is the formula-file contents
// described in spec.md §6.
func Parse(src string, opts ...ParserOpt) (ast.Node, error) {
	p := &Parser{
		toks:        lexer.New(src).Tokens(),
		sourceLines: strings.Split(src, "\n"),
		maxErrors:   1,
	}
	for _, opt := range opts {
		opt(p)
	}

	node := p.parseFormula()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if tok := p.peek(); tok.Type != lexer.EOF {
		return nil, p.newSyntaxError(tok, "unexpected token %q after formula", tok.Value)
	}
	return node, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) fail(tok lexer.Token, format string, args ...any) {
	if len(p.errors) >= p.maxErrors {
		return
	}
	p.errors = append(p.errors, p.newSyntaxError(tok, format, args...))
}

// parseFormula parses the 'disjunction' production, the grammar's entry
// point (formula := disjunction).
func (p *Parser) parseFormula() ast.Node {
	return p.parseDisjunction()
}

func (p *Parser) parseDisjunction() ast.Node {
	left := p.parseConjunction()
	for p.peek().Type == lexer.OR {
		p.advance()
		if p.peek().Type == lexer.OR {
			bad := p.peek()
			p.fail(bad, "unexpected '|' (double binary operator)")
			return left
		}
		right := p.parseConjunction()
		left = ast.Or{L: left, R: right}
	}
	return left
}

func (p *Parser) parseConjunction() ast.Node {
	left := p.parseUnary()
	for p.peek().Type == lexer.AND {
		p.advance()
		if p.peek().Type == lexer.AND {
			bad := p.peek()
			p.fail(bad, "unexpected '&' (double binary operator)")
			return left
		}
		right := p.parseUnary()
		left = ast.And{L: left, R: right}
	}
	return left
}

// parseUnary parses '!' unary | primary. '!' is right-associative, which
// falls out naturally from recursing into parseUnary rather than
// parsePrimary.
func (p *Parser) parseUnary() ast.Node {
	if p.peek().Type == lexer.NOT {
		p.advance()
		return ast.Not{X: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.peek()
	switch tok.Type {
	case lexer.LPAREN:
		p.advance()
		inner := p.parseFormula()
		if p.peek().Type != lexer.RPAREN {
			p.fail(p.peek(), "expected ')' to close '('")
			return inner
		}
		p.advance()
		return inner
	case lexer.IDENT:
		switch strings.ToUpper(tok.Value) {
		case "TRUE":
			p.advance()
			return ast.True{}
		case "FALSE":
			p.advance()
			return ast.False{}
		case "EP":
			p.advance()
			if p.peek().Type != lexer.LPAREN {
				p.fail(p.peek(), "expected '(' after EP")
				return ast.False{}
			}
			p.advance()
			if p.peek().Type == lexer.RPAREN {
				p.fail(p.peek(), "empty EP(...) body")
				p.advance()
				return ast.False{}
			}
			inner := p.parseFormula()
			if p.peek().Type != lexer.RPAREN {
				p.fail(p.peek(), "expected ')' to close EP(")
				return ast.EP{X: inner}
			}
			p.advance()
			return ast.EP{X: inner}
		default:
			p.advance()
			return ast.Prop{Name: tok.Value}
		}
	case lexer.EOF:
		p.fail(tok, "unexpected end of input")
		return ast.False{}
	default:
		p.fail(tok, "unexpected token %q", tok.Value)
		p.advance()
		return ast.False{}
	}
}
