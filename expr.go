// Package umlcalc is the evaluation core of the UML Calculator.
//
// It parses scalar expressions in the variables x, y and z, evaluates them,
// solves equations for a single variable and samples functions for plotting.
// The companion package ris holds the rule-dispatch binary operator.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat) wherever the input allows it
//   - Deterministic simplification and stable, re-parseable output
//   - No shared mutable state: every call is safe for concurrent use
package umlcalc

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("umlcalc: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float64 exactly. It panics on NaN or ±Inf;
// use floatNum when the value may be non-finite.
func NFloat(f float64) *Num {
	n, ok := floatNum(f)
	if !ok {
		panic("umlcalc: non-finite number")
	}
	return n
}

func floatNum(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(f)}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numSub(a, b *Num) *Num { return &Num{val: new(big.Rat).Sub(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("umlcalc: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num    { return &Num{val: new(big.Rat).Abs(a.val)} }

// numPowInt raises a to an integer power. a must be non-zero when e < 0.
func numPowInt(a *Num, e int64) *Num {
	neg := e < 0
	if neg {
		e = -e
	}
	num := new(big.Int).Exp(a.val.Num(), big.NewInt(e), nil)
	den := new(big.Int).Exp(a.val.Denom(), big.NewInt(e), nil)
	r := &Num{val: new(big.Rat).SetFrac(num, den)}
	if neg {
		return numRecip(r)
	}
	return r
}

// intRoot returns the exact q-th root of a non-negative integer, if there is one.
func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	if n.Sign() == 0 || n.Cmp(big.NewInt(1)) == 0 {
		return new(big.Int).Set(n), true
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(f, 0) {
		return nil, false
	}
	guess := int64(math.Round(math.Pow(f, 1/float64(q))))
	for _, c := range []int64{guess - 1, guess, guess + 1} {
		if c < 0 {
			continue
		}
		r := big.NewInt(c)
		if new(big.Int).Exp(r, big.NewInt(q), nil).Cmp(n) == 0 {
			return r, true
		}
	}
	return nil, false
}

// ratRoot returns the exact q-th root of a non-negative rational, if there is one.
func ratRoot(a *Num, q int64) (*Num, bool) {
	if a.IsNegative() {
		return nil, false
	}
	num, ok := intRoot(a.val.Num(), q)
	if !ok {
		return nil, false
	}
	den, ok := intRoot(a.val.Denom(), q)
	if !ok {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFrac(num, den)}, true
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Const: named real constants (pi, E)
// ============================================================

type Const struct {
	name  string
	value float64
}

var (
	Pi    = &Const{name: "pi", value: math.Pi}
	Euler = &Const{name: "E", value: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return floatNum(c.value) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Value() float64        { return c.value }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			constant = numAdd(constant, v)
			continue
		}
		c, rest := splitCoeff(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		c := coeffs[key]
		switch {
		case c.IsZero() && !undefined(rests[key]):
		case c.IsOne():
			result = append(result, rests[key])
		default:
			result = append(result, MulOf(c, rests[key]))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		di, dj := termDegree(result[i]), termDegree(result[j])
		if di != dj {
			return di > dj
		}
		_, ri := splitCoeff(result[i])
		_, rj := splitCoeff(result[j])
		return ri.String() < rj.String()
	})
	if !constant.IsZero() {
		result = append(result, constant)
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff separates the leading numeric coefficient of a term.
func splitCoeff(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, N(1)
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			rest := v.factors[1:]
			if len(rest) == 1 {
				return c, rest[0]
			}
			return c, &Mul{factors: append([]Expr(nil), rest...)}
		}
	}
	return N(1), e
}

// termDegree is the total numeric power of the symbols in a term; used for ordering only.
func termDegree(e Expr) float64 {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if n, ok := v.exp.(*Num); ok {
			return termDegree(v.base) * n.Float64()
		}
		return termDegree(v.base)
	case *Mul:
		d := 0.0
		for _, f := range v.factors {
			d += termDegree(f)
		}
		return d
	case *Func:
		return 0.5
	}
	return 0
}

// isNegativeTerm reports whether a term prints with a leading minus sign.
func isNegativeTerm(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsNegative()
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			return c.IsNegative()
		}
	}
	return false
}

func negate(e Expr) Expr { return MulOf(N(-1), e) }

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range a.terms {
		switch {
		case i == 0:
			b.WriteString(t.String())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			b.WriteString(negate(t).String())
		default:
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	bases := map[string]Expr{}
	exps := map[string][]Expr{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := splitPow(f)
		key := base.String()
		if _, seen := bases[key]; !seen {
			order = append(order, key)
			bases[key] = base
		}
		exps[key] = append(exps[key], exp)
	}
	if coeff.IsZero() {
		return zeroProduct(flat)
	}

	type keyed struct {
		e   Expr
		key string
	}
	others := make([]keyed, 0, len(order))
	for _, key := range order {
		var merged Expr
		if len(exps[key]) == 1 {
			merged = exps[key][0]
		} else {
			merged = AddOf(exps[key]...)
		}
		f := PowOf(bases[key], merged)
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		if inner, ok := f.(*Mul); ok {
			for _, g := range inner.factors {
				if n, ok := g.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, keyed{e: g, key: g.String()})
				}
			}
			continue
		}
		others = append(others, keyed{e: f, key: f.String()})
	}
	if coeff.IsZero() {
		return zeroProduct(flat)
	}
	if len(others) == 0 {
		return coeff
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].key < others[j].key })
	sorted := make([]Expr, len(others))
	for i := range others {
		sorted[i] = others[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	// A number times a single sum is distributed: 2*(x + 1) -> 2*x + 2.
	if sum, ok := sorted[0].(*Add); ok && len(sorted) == 1 {
		terms := make([]Expr, len(sum.terms))
		for i, t := range sum.terms {
			terms[i] = MulOf(coeff, t)
		}
		return AddOf(terms...)
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

// zeroProduct is the value of a product whose numeric factors multiply to
// zero: 0, unless another factor has no value, in which case the product
// stays unevaluated so that Eval fails.
func zeroProduct(factors []Expr) Expr {
	rest := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if _, ok := f.(*Num); !ok {
			rest = append(rest, f)
		}
	}
	for _, f := range rest {
		if undefined(f) {
			return &Mul{factors: append([]Expr{N(0)}, rest...)}
		}
	}
	return N(0)
}

// undefined reports whether e has no value for any binding of its symbols:
// it divides by zero, or it is constant and does not evaluate.
func undefined(e Expr) bool {
	if dividesByZero(e) {
		return true
	}
	if len(FreeSymbols(e)) == 0 {
		_, ok := e.Eval()
		return !ok
	}
	return false
}

// dividesByZero reports whether e contains 0 raised to a power that is not
// a positive number.
func dividesByZero(e Expr) bool {
	switch v := e.(type) {
	case *Pow:
		if b, ok := v.base.(*Num); ok && b.IsZero() {
			if n, ok := v.exp.(*Num); !ok || !n.IsPositive() {
				return true
			}
		}
		return dividesByZero(v.base) || dividesByZero(v.exp)
	case *Mul:
		for _, f := range v.factors {
			if dividesByZero(f) {
				return true
			}
		}
	case *Add:
		for _, t := range v.terms {
			if dividesByZero(t) {
				return true
			}
		}
	case *Func:
		return dividesByZero(v.arg)
	}
	return false
}

// splitPow views any factor as base^exp.
func splitPow(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	var coeff *Num
	factors := m.factors
	if c, ok := factors[0].(*Num); ok {
		coeff = c
		factors = factors[1:]
	}

	var num, den []string
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if n, ok := p.exp.(*Num); ok && n.IsNegative() {
				den = append(den, factorString(PowOf(p.base, numNeg(n))))
				continue
			}
		}
		num = append(num, factorString(f))
	}

	var b strings.Builder
	switch {
	case coeff == nil:
	case coeff.IsNegOne() && len(num) > 0:
		b.WriteString("-")
	case coeff.IsNegOne():
		b.WriteString("-1")
	default:
		b.WriteString(coeff.String())
		if len(num) > 0 {
			b.WriteString("*")
		}
	}
	if len(num) == 0 && coeff == nil {
		b.WriteString("1")
	}
	b.WriteString(strings.Join(num, "*"))
	switch len(den) {
	case 0:
	case 1:
		b.WriteString("/")
		b.WriteString(den[0])
	default:
		b.WriteString("/(")
		b.WriteString(strings.Join(den, "*"))
		b.WriteString(")")
	}
	return b.String()
}

// factorString parenthesizes a factor that would otherwise bind looser than '*'.
func factorString(f Expr) string {
	switch v := f.(type) {
	case *Add:
		return "(" + v.String() + ")"
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return "(" + v.String() + ")"
		}
	}
	return f.String()
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

// maxExactPower bounds exact folding of rational powers.
const maxExactPower = 64

// maxExactBits bounds the numerator and denominator of an exactly folded
// power. Larger powers are left to the float path.
const maxExactBits = 1 << 16

// exactPow reports whether a^e may be folded exactly.
func exactPow(a *Num, e int64) bool {
	e = abs64(e)
	if e > maxExactPower {
		return false
	}
	return int64(a.val.Num().BitLen())*e <= maxExactBits &&
		int64(a.val.Denom().BitLen())*e <= maxExactBits
}

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		switch {
		case bn.IsZero():
			// 0^negative is a division by zero and stays unevaluated.
			if expIsNum && en.IsPositive() {
				return N(0)
			}
			return &Pow{base: base, exp: exp}
		case bn.IsOne():
			return N(1)
		}
		if expIsNum && en.IsInteger() {
			e := en.val.Num()
			if e.IsInt64() && exactPow(bn, e.Int64()) {
				return numPowInt(bn, e.Int64())
			}
		}
		if expIsNum && !en.IsInteger() && bn.IsPositive() {
			q := en.val.Denom()
			pNum := en.val.Num()
			if q.IsInt64() && pNum.IsInt64() && q.Int64() <= maxExactPower && abs64(pNum.Int64()) <= maxExactPower {
				if root, ok := ratRoot(bn, q.Int64()); ok && exactPow(root, pNum.Int64()) {
					return numPowInt(root, pNum.Int64())
				}
			}
		}
	}

	// (c*X)^r = |c|^r * (±X)^r for a numeric coefficient c.
	if m, ok := base.(*Mul); ok && expIsNum && !en.IsInteger() {
		if c, ok := m.factors[0].(*Num); ok && !c.IsOne() && !c.IsNegOne() {
			mag := numAbs(c)
			inner := MulOf(append([]Expr{numDiv(c, mag)}, m.factors[1:]...)...)
			return MulOf(PowOf(mag, exp), PowOf(inner, exp))
		}
	}

	if expIsNum && en.IsInteger() {
		if inner, ok := base.(*Pow); ok {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
		if m, ok := base.(*Mul); ok {
			factors := make([]Expr, len(m.factors))
			for i, f := range m.factors {
				factors[i] = PowOf(f, exp)
			}
			return MulOf(factors...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	if n, ok := p.exp.(*Num); ok {
		if n.Equal(F(1, 2)) {
			return "sqrt(" + p.base.String() + ")"
		}
		if n.IsNegative() {
			return "1/" + factorString(PowOf(p.base, numNeg(n)))
		}
	}
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if b.IsNegative() || !b.IsInteger() {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym, *Const, *Func:
	case *Num:
		if !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), FuncOf("ln", p.base), dv)
	}
	logTerm := MulOf(dv, FuncOf("ln", p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if e.IsInteger() && !(b.IsZero() && e.IsNegative()) {
		k := e.val.Num()
		if k.IsInt64() && exactPow(b, k.Int64()) {
			return numPowInt(b, k.Int64()), true
		}
	}
	return floatNum(math.Pow(b.Float64(), e.Float64()))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

// funcTable maps each supported function to its float implementation.
var funcTable = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"exp":   math.Exp,
	"ln":    math.Log,
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign": func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	},
}

// IsFunc reports whether name is a supported function.
func IsFunc(name string) bool {
	_, ok := funcTable[name]
	return ok
}

func FuncOf(name string, arg Expr) Expr { return (&Func{name: name, arg: arg}).Simplify() }

func SinOf(arg Expr) Expr  { return FuncOf("sin", arg) }
func CosOf(arg Expr) Expr  { return FuncOf("cos", arg) }
func ExpOf(arg Expr) Expr  { return FuncOf("exp", arg) }
func LnOf(arg Expr) Expr   { return FuncOf("ln", arg) }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

// Simplify folds only exact identities; inexact numeric values are left for Eval.
func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	n, isNum := arg.(*Num)
	switch f.name {
	case "sin", "tan", "asin", "atan", "sinh", "tanh":
		if isNum && n.IsZero() {
			return N(0)
		}
	case "cos", "cosh":
		if isNum && n.IsZero() {
			return N(1)
		}
	case "exp":
		if isNum && n.IsZero() {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "ln":
		if isNum && n.IsOne() {
			return N(0)
		}
		if arg.Equal(Euler) {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "abs":
		if isNum {
			return numAbs(n)
		}
	case "floor", "ceil":
		if isNum && n.IsInteger() {
			return n
		}
	case "sign":
		if isNum {
			return N(int64(n.val.Sign()))
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) Sub(varName string, value Expr) Expr {
	return FuncOf(f.name, f.arg.Sub(varName, value))
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(FuncOf("tan", f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = FuncOf("cosh", f.arg)
	case "cosh":
		outer = FuncOf("sinh", f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(FuncOf("tanh", f.arg), N(2))))
	case "abs":
		outer = FuncOf("sign", f.arg)
	default:
		// floor, ceil and sign are piecewise constant.
		return N(0)
	}
	return MulOf(outer, du)
}

func (f *Func) Eval() (*Num, bool) {
	fn, known := funcTable[f.name]
	if !known {
		return nil, false
	}
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	return floatNum(fn(n.Float64()))
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// ============================================================
// Top-level helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

// Expand distributes products over sums and small positive integer powers of sums.
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			sum, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(expanded)-1)
			rest = append(rest, expanded[:i]...)
			rest = append(rest, expanded[i+1:]...)
			terms := make([]Expr, len(sum.terms))
			for k, t := range sum.terms {
				terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
			}
			return AddOf(terms...)
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			k := n.val.Num().Int64()
			if _, isSum := base.(*Add); isSum && k >= 2 && k <= 12 {
				result := base
				for i := int64(1); i < k; i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return PowOf(base, expandExpr(v.exp))
	case *Func:
		return FuncOf(v.name, expandExpr(v.arg))
	}
	return e
}

// distribute multiplies two sums term by term. Multiplying the sums directly
// would fold them back into a power.
func distribute(a, b Expr) Expr {
	var terms []Expr
	for _, s := range addTerms(a) {
		for _, t := range addTerms(b) {
			terms = append(terms, expandExpr(MulOf(s, t)))
		}
	}
	return AddOf(terms...)
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the sorted names of the variables that occur in e.
func FreeSymbols(e Expr) []string {
	set := map[string]struct{}{}
	collectSymbols(e, set)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func HasSymbol(e Expr, name string) bool {
	set := map[string]struct{}{}
	collectSymbols(e, set)
	_, ok := set[name]
	return ok
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}
