package umlcalc

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// ============================================================
// Lexer
// ============================================================

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokAssign
	tokIllegal
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	s string
	i int
}

func (l *lexer) next() token {
	for l.i < len(l.s) && unicode.IsSpace(rune(l.s[l.i])) {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}
	}

	start := l.i
	single := func(kind tokenKind) token {
		l.i++
		return token{kind: kind, text: l.s[start:l.i], pos: start}
	}
	switch l.s[l.i] {
	case '+':
		return single(tokPlus)
	case '-':
		return single(tokMinus)
	case '*':
		if l.i+1 < len(l.s) && l.s[l.i+1] == '*' {
			l.i += 2
			return token{kind: tokCaret, text: "**", pos: start}
		}
		return single(tokStar)
	case '/':
		return single(tokSlash)
	case '^':
		return single(tokCaret)
	case '(', '[':
		return single(tokLParen)
	case ')', ']':
		return single(tokRParen)
	case '=':
		return single(tokAssign)
	}

	ch := rune(l.s[l.i])
	if isIdentStart(ch) {
		l.i++
		for l.i < len(l.s) && isIdentContinue(rune(l.s[l.i])) {
			l.i++
		}
		return token{kind: tokIdent, text: l.s[start:l.i], pos: start}
	}
	if ch == '.' || unicode.IsDigit(ch) {
		l.i = scanNumber(l.s, l.i)
		if l.i == start {
			l.i++
			return token{kind: tokIllegal, text: l.s[start:l.i], pos: start}
		}
		return token{kind: tokNumber, text: l.s[start:l.i], pos: start}
	}

	l.i++
	return token{kind: tokIllegal, text: l.s[start:l.i], pos: start}
}

func scanNumber(s string, i int) int {
	start := i
	digits := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && unicode.IsDigit(rune(s[i])) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return start
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && unicode.IsDigit(rune(s[k])) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

// maxDecimalExponent bounds literal exponents such as 1e999999999.
const maxDecimalExponent = 400

func parseNumber(txt string) (*Num, bool) {
	if idx := strings.IndexAny(txt, "eE"); idx >= 0 {
		exp, err := strconv.Atoi(txt[idx+1:])
		if err != nil || exp > maxDecimalExponent || exp < -maxDecimalExponent {
			return nil, false
		}
	}
	if strings.HasPrefix(txt, ".") {
		txt = "0" + txt
	}
	r, ok := new(big.Rat).SetString(txt)
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// ============================================================
// Parser
// ============================================================

// Input is a parsed line of calculator input. For an equation "l = r" with a
// non-empty right side, Equation is set and Expr holds l - (r).
type Input struct {
	Source   string
	Expr     Expr
	Equation bool
}

var constants = map[string]*Const{
	"pi": Pi,
	"E":  Euler,
}

// aliases for function names that map onto a supported function.
var funcAliases = map[string]string{
	"log": "ln",
}

type parser struct {
	src string
	l   lexer
	cur token
}

func (p *parser) next() { p.cur = p.l.next() }

func (p *parser) errorf(format string, args ...interface{}) error {
	return parseError(p.src, p.cur.pos, format, args...)
}

// ParseInput parses a calculator line, splitting an equation on '='.
func ParseInput(text string) (Input, error) {
	p := &parser{src: text, l: lexer{s: text}}
	p.next()
	if p.cur.kind == tokEOF {
		return Input{}, p.errorf("empty expression")
	}
	left, err := p.parseSum()
	if err != nil {
		return Input{}, err
	}
	in := Input{Source: text, Expr: left}
	if p.cur.kind == tokAssign {
		p.next()
		if p.cur.kind != tokEOF {
			right, err := p.parseSum()
			if err != nil {
				return Input{}, err
			}
			in.Expr = AddOf(left, MulOf(N(-1), right))
			in.Equation = true
		}
	}
	if p.cur.kind != tokEOF {
		return Input{}, p.errorf("unexpected %q", p.cur.text)
	}
	return in, nil
}

// Parse parses a single expression. Equations are rejected.
func Parse(text string) (Expr, error) {
	in, err := ParseInput(text)
	if err != nil {
		return nil, err
	}
	if in.Equation {
		return nil, parseError(text, strings.IndexByte(text, '='), "unexpected '=' in expression")
	}
	return in.Expr, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed expressions.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		neg := p.cur.kind == tokMinus
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if neg {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
	return left, nil
}

// startsOperand reports whether the current token can begin an implicitly multiplied operand.
func (p *parser) startsOperand() bool {
	return p.cur.kind == tokIdent || p.cur.kind == tokLParen
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur.kind == tokStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case p.cur.kind == tokSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, PowOf(right, N(-1)))
		case p.startsOperand():
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case p.cur.kind == tokNumber:
			return nil, p.errorf("unexpected number %q", p.cur.text)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		neg := p.cur.kind == tokMinus
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if neg {
			return MulOf(N(-1), x), nil
		}
		return x, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokCaret {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokNumber:
		n, ok := parseNumber(p.cur.text)
		if !ok {
			return nil, p.errorf("invalid number %q", p.cur.text)
		}
		p.next()
		return n, nil
	case tokIdent:
		return p.parseIdent()
	case tokLParen:
		p.next()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, p.errorf("expected ')'")
		}
		p.next()
		return e, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of input")
	case tokIllegal:
		return nil, p.errorf("unknown character %q", p.cur.text)
	}
	return nil, p.errorf("unexpected %q", p.cur.text)
}

func (p *parser) parseIdent() (Expr, error) {
	tok := p.cur
	name := tok.text
	if alias, ok := funcAliases[name]; ok {
		name = alias
	}
	if name == "sqrt" || IsFunc(name) {
		p.next()
		var arg Expr
		var err error
		if p.cur.kind == tokLParen {
			p.next()
			arg, err = p.parseSum()
			if err != nil {
				return nil, err
			}
			if p.cur.kind != tokRParen {
				return nil, p.errorf("expected ')'")
			}
			p.next()
		} else {
			arg, err = p.parseUnary()
			if err != nil {
				return nil, err
			}
		}
		if name == "sqrt" {
			return SqrtOf(arg), nil
		}
		return FuncOf(name, arg), nil
	}
	if c, ok := constants[name]; ok {
		p.next()
		return c, nil
	}
	if len(name) == 1 {
		p.next()
		return S(name), nil
	}
	if strings.Trim(name, "xyz") == "" {
		p.next()
		factors := make([]Expr, len(name))
		for i := range name {
			factors[i] = S(name[i : i+1])
		}
		return MulOf(factors...), nil
	}
	return nil, p.errorf("unknown identifier %q", tok.text)
}
