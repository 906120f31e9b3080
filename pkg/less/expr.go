package less

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
)

// errUnparsed marks values the expression grammar does not cover. Callers
// fall back to emitting the text with variables substituted.
var errUnparsed = errors.New("less: value not parsed")

type token struct {
	typ   fmt.Stringer
	val   string
	space bool
}

func lex(text string) ([]token, error) {
	s := scanner.New(text)
	var out []token
	space := false
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return out, nil
		case scanner.TokenError:
			return nil, errUnparsed
		case scanner.TokenS, scanner.TokenComment:
			space = true
			continue
		}
		out = append(out, token{typ: tok.Type, val: tok.Value, space: space})
		space = false
	}
}

type exprParser struct {
	ev     *evaluator
	sc     *scope
	toks   []token
	pos    int
	parens int
	line   int
}

func (p *exprParser) peek(offset int) (token, bool) {
	if p.pos+offset >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos+offset], true
}

func (p *exprParser) isChar(offset int, c string) bool {
	tok, ok := p.peek(offset)
	return ok && tok.typ == scanner.TokenChar && tok.val == c
}

func (p *exprParser) parseCommaList() (value, error) {
	first, err := p.parseSpaceList()
	if err != nil {
		return nil, err
	}
	items := []value{first}
	for p.isChar(0, ",") {
		p.pos++
		next, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return first, nil
	}
	return list{items: items, sep: ", "}, nil
}

func (p *exprParser) parseSpaceList() (value, error) {
	var items []value
	for {
		if _, ok := p.peek(0); !ok || p.isChar(0, ",") || p.isChar(0, ")") {
			break
		}
		item, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	switch len(items) {
	case 0:
		return nil, errUnparsed
	case 1:
		return items[0], nil
	default:
		return list{items: items, sep: " "}, nil
	}
}

func (p *exprParser) parseAdditive() (value, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isChar(0, "+") || p.isChar(0, "-") {
		op, _ := p.peek(0)
		next, ok := p.peek(1)
		// `a -b` is a list of two values, not a subtraction.
		if op.space && ok && !next.space {
			break
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left, err = operate(op.val[0], left, right, p.line)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseMultiplicative() (value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isChar(0, "*") || p.isChar(0, "/") {
		op, _ := p.peek(0)
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op.val == "/" && p.parens == 0 {
			// Outside parentheses a slash is a separator, as in `12px/1.5`.
			left = list{items: []value{left, right}, sep: "/"}
			continue
		}
		left, err = operate(op.val[0], left, right, p.line)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (value, error) {
	if p.isChar(0, "-") {
		if next, ok := p.peek(1); ok && !next.space {
			p.pos++
			v, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if n, ok := v.(number); ok {
				return number{val: -n.val, unit: n.unit}, nil
			}
			return keyword("-" + v.css()), nil
		}
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (value, error) {
	tok, ok := p.peek(0)
	if !ok {
		return nil, errUnparsed
	}
	p.pos++
	switch tok.typ {
	case scanner.TokenNumber:
		return parseNumber(tok.val, "")
	case scanner.TokenPercentage:
		return parseNumber(strings.TrimSuffix(tok.val, "%"), "%")
	case scanner.TokenDimension:
		idx := strings.IndexFunc(tok.val, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		return parseNumber(tok.val[:idx], tok.val[idx:])
	case scanner.TokenHash:
		if c, ok := parseHexColor(tok.val); ok {
			return c, nil
		}
		return keyword(tok.val), nil
	case scanner.TokenString:
		return quoted{s: tok.val[1 : len(tok.val)-1], quote: tok.val[0]}, nil
	case scanner.TokenIdent, scanner.TokenURI, scanner.TokenUnicodeRange:
		return keyword(tok.val), nil
	case scanner.TokenAtKeyword:
		return p.ev.lookupVar(p.sc, tok.val[1:], p.line)
	case scanner.TokenFunction:
		return p.parseFunction(strings.TrimSuffix(tok.val, "("))
	case scanner.TokenChar:
		switch tok.val {
		case "~":
			next, ok := p.peek(0)
			if !ok || next.typ != scanner.TokenString {
				return nil, errUnparsed
			}
			p.pos++
			return quoted{s: next.val[1 : len(next.val)-1], quote: next.val[0], escaped: true}, nil
		case "(":
			p.parens++
			v, err := p.parseCommaList()
			if err != nil {
				return nil, err
			}
			if !p.isChar(0, ")") {
				return nil, errUnparsed
			}
			p.pos++
			p.parens--
			return v, nil
		}
	}
	return nil, errUnparsed
}

func (p *exprParser) parseFunction(name string) (value, error) {
	if strings.EqualFold(name, "calc") {
		return p.rawFunction(name)
	}
	p.parens++
	var args []value
	for !p.isChar(0, ")") {
		if _, ok := p.peek(0); !ok {
			return nil, errUnparsed
		}
		arg, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isChar(0, ",") {
			p.pos++
		}
	}
	p.pos++
	p.parens--
	return p.ev.callFunction(name, args, p.line)
}

// rawFunction keeps the argument text of functions the browser evaluates,
// substituting variables only.
func (p *exprParser) rawFunction(name string) (value, error) {
	var b strings.Builder
	depth := 1
	for {
		tok, ok := p.peek(0)
		if !ok {
			return nil, errUnparsed
		}
		p.pos++
		if tok.space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch {
		case tok.typ == scanner.TokenFunction || tok.typ == scanner.TokenChar && tok.val == "(":
			depth++
		case tok.typ == scanner.TokenChar && tok.val == ")":
			depth--
			if depth == 0 {
				return keyword(name + "(" + b.String() + ")"), nil
			}
		case tok.typ == scanner.TokenAtKeyword:
			v, err := p.ev.lookupVar(p.sc, tok.val[1:], p.line)
			if err != nil {
				return nil, err
			}
			b.WriteString(plain(v))
			continue
		}
		b.WriteString(tok.val)
	}
}

func parseNumber(digits, unit string) (value, error) {
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil, errUnparsed
	}
	return number{val: f, unit: unit}, nil
}
