package logic

import (
	"fmt"
	"strings"
)

// Parse converts a presence-condition expression into a Formula. It accepts
// both C-preprocessor syntax (defined(X), !, &&, ||, IS_ENABLED(X)) and
// Kconfig syntax (X && !Y, X=y, X!=n). Comparisons are collapsed to the
// variables they mention: the mapping only ever queries a formula for its
// free variables, never for its truth value.
func Parse(input string) (Formula, error) {
	p := &parser{input: stripComments(input)}
	p.next()
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.tok.text, p.tok.pos)
	}
	return f, nil
}

// stripComments removes /* ... */ comments, which commonly trail #if lines.
func stripComments(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		s = s[start+2+end+2:]
	}
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokNot
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokCompare
	tokComma
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input string
	pos   int
	tok   token
}

func (p *parser) next() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.input[p.pos]
	switch {
	case isIdentStart(c):
		for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos], pos: start}
	case c >= '0' && c <= '9':
		for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.input[start:p.pos], pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	case c == '&' && p.peek(1) == '&':
		p.pos += 2
		p.tok = token{kind: tokAnd, text: "&&", pos: start}
	case c == '|' && p.peek(1) == '|':
		p.pos += 2
		p.tok = token{kind: tokOr, text: "||", pos: start}
	case c == '!' && p.peek(1) == '=':
		p.pos += 2
		p.tok = token{kind: tokCompare, text: "!=", pos: start}
	case c == '!':
		p.pos++
		p.tok = token{kind: tokNot, text: "!", pos: start}
	case c == '=' && p.peek(1) == '=':
		p.pos += 2
		p.tok = token{kind: tokCompare, text: "==", pos: start}
	case c == '=':
		p.pos++
		p.tok = token{kind: tokCompare, text: "=", pos: start}
	case c == '<' || c == '>':
		p.pos++
		if p.pos < len(p.input) && p.input[p.pos] == '=' {
			p.pos++
		}
		p.tok = token{kind: tokCompare, text: p.input[start:p.pos], pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokInvalid, text: string(c), pos: start}
	}
}

func (p *parser) peek(offset int) byte {
	if p.pos+offset < len(p.input) {
		return p.input[p.pos+offset]
	}
	return 0
}

func (p *parser) parseOr() (Formula, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Formula, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Formula, error) {
	if p.tok.kind == tokNot {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Formula, error) {
	switch p.tok.kind {
	case tokLParen:
		p.next()
		f, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing ) at offset %d", p.tok.pos)
		}
		p.next()
		return f, nil
	case tokNumber:
		text := p.tok.text
		p.next()
		if text == "0" {
			return False, nil
		}
		return True, nil
	case tokIdent:
		name := p.tok.text
		p.next()
		if name == "defined" {
			return p.parseDefined()
		}
		if p.tok.kind == tokLParen {
			return p.parseCall()
		}
		return p.maybeComparison(Variable{Name: name})
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", p.tok.text, p.tok.pos)
	}
}

// parseDefined handles defined(X) and the parenthesis-free defined X form.
func (p *parser) parseDefined() (Formula, error) {
	parens := false
	if p.tok.kind == tokLParen {
		parens = true
		p.next()
	}
	if p.tok.kind != tokIdent {
		return nil, fmt.Errorf("defined requires an identifier at offset %d", p.tok.pos)
	}
	name := p.tok.text
	p.next()
	if parens {
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing ) after defined(%s)", name)
		}
		p.next()
	}
	return Variable{Name: name}, nil
}

// parseCall handles function-like macros such as IS_ENABLED(CONFIG_X). The
// call collapses to the conjunction of the variables referenced by its
// arguments, or True when none are.
func (p *parser) parseCall() (Formula, error) {
	p.next() // consume (
	var args []Formula
	for p.tok.kind != tokRParen {
		if p.tok.kind == tokEOF {
			return nil, fmt.Errorf("unterminated macro call at offset %d", p.tok.pos)
		}
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			p.next()
		}
	}
	p.next() // consume )
	return Conjunction(args...), nil
}

// maybeComparison collapses `X = y`, `X != n`, `X == 1` and relational forms
// to the variables they reference.
func (p *parser) maybeComparison(left Variable) (Formula, error) {
	if p.tok.kind != tokCompare {
		return left, nil
	}
	p.next()
	switch p.tok.kind {
	case tokIdent:
		rhs := p.tok.text
		p.next()
		if rhs == "y" || rhs == "m" || rhs == "n" {
			return left, nil
		}
		return And{Left: left, Right: Variable{Name: rhs}}, nil
	case tokNumber:
		p.next()
		return left, nil
	default:
		return nil, fmt.Errorf("invalid comparison operand at offset %d", p.tok.pos)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\\'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
