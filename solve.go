package umlcalc

import (
	"encoding/json"
	"math"
	"math/big"
	"math/cmplx"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Solution types
// ============================================================

// Root is one solution of an equation. Real roots carry only Value. Complex
// roots carry Value (real part), Imag and their text in Symbolic; roots with
// symbolic coefficients carry only Symbolic.
type Root struct {
	Value    float64
	Imag     float64
	Symbolic string
}

func (r Root) IsReal() bool { return r.Symbolic == "" }

func (r Root) String() string {
	if r.IsReal() {
		return FormatFloat(r.Value)
	}
	return r.Symbolic
}

func (r Root) value() interface{} {
	if r.IsReal() {
		return r.Value
	}
	return r.Symbolic
}

func (r Root) MarshalJSON() ([]byte, error) { return json.Marshal(r.value()) }

// Solution is the root set of an equation for one variable.
type Solution struct {
	Variable string
	Roots    []Root
}

// Value returns a single root unwrapped and any other count as a []interface{}.
func (s Solution) Value() interface{} {
	if len(s.Roots) == 1 {
		return s.Roots[0].value()
	}
	out := make([]interface{}, len(s.Roots))
	for i, r := range s.Roots {
		out[i] = r.value()
	}
	return out
}

func (s Solution) String() string {
	if len(s.Roots) == 1 {
		return s.Roots[0].String()
	}
	parts := make([]string, len(s.Roots))
	for i, r := range s.Roots {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s Solution) MarshalJSON() ([]byte, error) { return json.Marshal(s.Value()) }

// RealRoots returns the real roots in ascending order.
func (s Solution) RealRoots() []float64 {
	var out []float64
	for _, r := range s.Roots {
		if r.IsReal() {
			out = append(out, r.Value)
		}
	}
	return out
}

// ============================================================
// Options
// ============================================================

type solveConfig struct {
	min, max float64
	starts   int
	tol      float64
	maxIter  int
}

// SolveOption configures Solve.
type SolveOption func(*solveConfig)

// WithSearchRange sets the interval scanned for roots of non-polynomial equations.
func WithSearchRange(min, max float64) SolveOption {
	return func(c *solveConfig) {
		if min < max && !math.IsInf(min, 0) && !math.IsInf(max, 0) {
			c.min, c.max = min, max
		}
	}
}

// WithNewtonStarts sets how many evenly spaced starting points the numeric scan uses.
func WithNewtonStarts(n int) SolveOption {
	return func(c *solveConfig) {
		if n > 1 {
			c.starts = n
		}
	}
}

const (
	// DefaultSearchMin and DefaultSearchMax bound the numeric root scan.
	DefaultSearchMin = -100.0
	DefaultSearchMax = 100.0

	maxPolyDegree = 64
	imagTolerance = 1e-9
)

// ============================================================
// Solve
// ============================================================

// SolveText parses "lhs = rhs" (or an expression implicitly equal to zero) and solves for x.
func SolveText(text string, opts ...SolveOption) (Solution, error) {
	in, err := ParseInput(text)
	if err != nil {
		return Solution{}, err
	}
	return Solve(in.Expr, "x", opts...)
}

// Solve returns the distinct roots of e == 0 for variable: real roots in
// ascending order followed by complex roots ordered by real then imaginary part.
func Solve(e Expr, variable string, opts ...SolveOption) (Solution, error) {
	if variable == "" {
		variable = "x"
	}
	cfg := solveConfig{min: DefaultSearchMin, max: DefaultSearchMax, starts: 400, tol: 1e-10, maxIter: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := e.String()
	sol := Solution{Variable: variable}

	expr := Expand(e)
	if !HasSymbol(expr, variable) {
		return sol, nil
	}

	cleared, denominators := clearDenominators(expr, variable)
	var roots []Root
	if coeffs, ok := polynomial(cleared, variable); ok {
		var err error
		roots, err = solvePolynomial(coeffs, variable, input)
		if err != nil {
			return Solution{}, err
		}
	} else {
		var err error
		roots, err = solveNumeric(cleared, variable, input, cfg)
		if err != nil {
			return Solution{}, err
		}
	}

	sol.Roots = sortRoots(excludePoles(roots, denominators, variable))
	return sol, nil
}

// clearDenominators multiplies e through by every negative integer power of an
// expression in variable and returns the product together with those bases.
func clearDenominators(e Expr, variable string) (Expr, []Expr) {
	bases := map[string]Expr{}
	powers := map[string]int64{}
	order := []string{}
	for _, t := range addTerms(e) {
		for _, f := range mulFactors(t) {
			p, ok := f.(*Pow)
			if !ok || !HasSymbol(p.base, variable) {
				continue
			}
			n, ok := p.exp.(*Num)
			if !ok || !n.IsInteger() || !n.IsNegative() {
				continue
			}
			k := -n.val.Num().Int64()
			key := p.base.String()
			if _, seen := bases[key]; !seen {
				order = append(order, key)
				bases[key] = p.base
			}
			if k > powers[key] {
				powers[key] = k
			}
		}
	}
	if len(order) == 0 {
		return e, nil
	}
	factors := []Expr{e}
	dens := make([]Expr, 0, len(order))
	for _, key := range order {
		factors = append(factors, PowOf(bases[key], N(powers[key])))
		dens = append(dens, bases[key])
	}
	return Expand(MulOf(factors...)), dens
}

// excludePoles drops real roots at which a cleared denominator vanishes.
func excludePoles(roots []Root, denominators []Expr, variable string) []Root {
	if len(denominators) == 0 {
		return roots
	}
	out := roots[:0]
	for _, r := range roots {
		if r.IsReal() && isPole(r.Value, denominators, variable) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isPole(x float64, denominators []Expr, variable string) bool {
	for _, d := range denominators {
		fn, err := compile(d, variable)
		if err != nil {
			continue
		}
		v := fn(x)
		if !math.IsNaN(v) && math.Abs(v) < 1e-9 {
			return true
		}
	}
	return false
}

func addTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

func mulFactors(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}

// polynomial returns the coefficients of e in variable, lowest degree first.
func polynomial(e Expr, variable string) ([]Expr, bool) {
	byDegree := map[int][]Expr{}
	maxDeg := 0
	for _, t := range addTerms(e) {
		deg := 0
		rest := []Expr{N(1)}
		for _, f := range mulFactors(t) {
			if s, ok := f.(*Sym); ok && s.name == variable {
				deg++
				continue
			}
			if p, ok := f.(*Pow); ok {
				if s, ok := p.base.(*Sym); ok && s.name == variable {
					n, ok := p.exp.(*Num)
					if !ok || !n.IsInteger() || !n.IsPositive() || n.val.Num().Int64() > maxPolyDegree {
						return nil, false
					}
					deg += int(n.val.Num().Int64())
					continue
				}
			}
			if HasSymbol(f, variable) {
				return nil, false
			}
			rest = append(rest, f)
		}
		if deg > maxPolyDegree {
			return nil, false
		}
		byDegree[deg] = append(byDegree[deg], MulOf(rest...))
		if deg > maxDeg {
			maxDeg = deg
		}
	}
	coeffs := make([]Expr, maxDeg+1)
	for d := range coeffs {
		if terms, ok := byDegree[d]; ok {
			coeffs[d] = AddOf(terms...)
		} else {
			coeffs[d] = N(0)
		}
	}
	for len(coeffs) > 1 {
		if n, ok := coeffs[len(coeffs)-1].(*Num); ok && n.IsZero() {
			coeffs = coeffs[:len(coeffs)-1]
			continue
		}
		break
	}
	return coeffs, true
}

func solvePolynomial(coeffs []Expr, variable, input string) ([]Root, error) {
	if len(coeffs) < 2 {
		return nil, nil
	}

	exact := make([]*big.Rat, len(coeffs))
	allExact := true
	for i, c := range coeffs {
		n, ok := c.(*Num)
		if !ok {
			allExact = false
			break
		}
		exact[i] = n.Rat()
	}
	if allExact {
		return solveRational(exact), nil
	}

	floats := make([]float64, len(coeffs))
	allNumeric := true
	for i, c := range coeffs {
		n, ok := c.Eval()
		if !ok || len(FreeSymbols(c)) > 0 {
			allNumeric = false
			break
		}
		floats[i] = n.Float64()
	}
	if allNumeric {
		return solveFloat(floats), nil
	}
	return solveSymbolic(coeffs, variable, input)
}

// ============================================================
// Exact rational coefficients
// ============================================================

func solveRational(coeffs []*big.Rat) []Root {
	var roots []Root
	if coeffs[0].Sign() == 0 {
		roots = append(roots, Root{Value: 0})
		for len(coeffs) > 1 && coeffs[0].Sign() == 0 {
			coeffs = coeffs[1:]
		}
	}

	for _, cand := range rationalCandidates(coeffs) {
		if len(coeffs) < 2 {
			break
		}
		found := false
		for len(coeffs) > 1 && ratPolyEval(coeffs, cand).Sign() == 0 {
			coeffs = ratDeflate(coeffs, cand)
			found = true
		}
		if found {
			f, _ := cand.Float64()
			roots = append(roots, Root{Value: f})
		}
	}

	switch len(coeffs) - 1 {
	case 0:
	case 1:
		r := new(big.Rat).Quo(new(big.Rat).Neg(coeffs[0]), coeffs[1])
		f, _ := r.Float64()
		roots = append(roots, Root{Value: f})
	case 2:
		roots = append(roots, quadraticRational(coeffs[2], coeffs[1], coeffs[0])...)
	default:
		floats := make([]float64, len(coeffs))
		for i, c := range coeffs {
			floats[i], _ = c.Float64()
		}
		roots = append(roots, durandKernerRoots(floats)...)
	}
	return roots
}

// maxCandidateMagnitude bounds the integers whose divisors are enumerated.
var maxCandidateMagnitude = big.NewInt(1_000_000_000_000)

// rationalCandidates lists ±p/q for p | a0 and q | an after scaling to integers.
func rationalCandidates(coeffs []*big.Rat) []*big.Rat {
	ints := integerCoefficients(coeffs)
	a0 := new(big.Int).Abs(ints[0])
	an := new(big.Int).Abs(ints[len(ints)-1])
	if a0.Sign() == 0 || a0.Cmp(maxCandidateMagnitude) > 0 || an.Cmp(maxCandidateMagnitude) > 0 {
		return nil
	}
	ps := divisors(a0.Int64())
	qs := divisors(an.Int64())
	seen := map[string]bool{}
	var out []*big.Rat
	for _, p := range ps {
		for _, q := range qs {
			for _, sign := range []int64{1, -1} {
				r := big.NewRat(sign*p, q)
				key := r.RatString()
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func integerCoefficients(coeffs []*big.Rat) []*big.Int {
	lcm := big.NewInt(1)
	for _, c := range coeffs {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		scaled := new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
		out[i] = new(big.Int).Set(scaled.Num())
	}
	return out
}

func divisors(n int64) []int64 {
	var small, large []int64
	for i := int64(1); i*i <= n; i++ {
		if n%i == 0 {
			small = append(small, i)
			if i != n/i {
				large = append(large, n/i)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

func ratPolyEval(coeffs []*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, coeffs[i])
	}
	return acc
}

// ratDeflate divides the polynomial by (x - r), which must be a root.
func ratDeflate(coeffs []*big.Rat, r *big.Rat) []*big.Rat {
	n := len(coeffs) - 1
	out := make([]*big.Rat, n)
	carry := new(big.Rat)
	for i := n; i >= 1; i-- {
		carry = new(big.Rat).Add(coeffs[i], new(big.Rat).Mul(carry, r))
		out[i-1] = carry
	}
	return out
}

func quadraticRational(a, b, c *big.Rat) []Root {
	disc := new(big.Rat).Sub(new(big.Rat).Mul(b, b), new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	re := new(big.Rat).Quo(new(big.Rat).Neg(b), twoA)

	if disc.Sign() >= 0 {
		if root, ok := ratRoot(&Num{val: disc}, 2); ok {
			off := new(big.Rat).Quo(root.val, twoA)
			r1, _ := new(big.Rat).Sub(re, off).Float64()
			r2, _ := new(big.Rat).Add(re, off).Float64()
			return []Root{{Value: r1}, {Value: r2}}
		}
		af, _ := a.Float64()
		bf, _ := b.Float64()
		df, _ := disc.Float64()
		sq := math.Sqrt(df)
		return []Root{{Value: (-bf - sq) / (2 * af)}, {Value: (-bf + sq) / (2 * af)}}
	}

	// Complex pair: re ± sqrt(-disc)/|2a| * I.
	im := MulOf(PowOf(&Num{val: new(big.Rat).Neg(disc)}, F(1, 2)), &Num{val: new(big.Rat).Inv(new(big.Rat).Abs(twoA))})
	reNum := &Num{val: re}
	imf, _ := im.Eval()
	return []Root{
		{Value: reNum.Float64(), Imag: -imf.Float64(), Symbolic: complexString(reNum, im, true)},
		{Value: reNum.Float64(), Imag: imf.Float64(), Symbolic: complexString(reNum, im, false)},
	}
}

// complexString renders re ± im*I with im non-negative.
func complexString(re *Num, im Expr, negative bool) string {
	imStr := "I"
	if n, ok := im.(*Num); !ok || !n.IsOne() {
		imStr = factorString(im) + "*I"
	}
	switch {
	case re.IsZero() && negative:
		return "-" + imStr
	case re.IsZero():
		return imStr
	case negative:
		return re.String() + " - " + imStr
	}
	return re.String() + " + " + imStr
}

// ============================================================
// Numeric coefficients
// ============================================================

func solveFloat(coeffs []float64) []Root {
	switch len(coeffs) - 1 {
	case 1:
		return []Root{{Value: -coeffs[0] / coeffs[1]}}
	case 2:
		a, b, c := coeffs[2], coeffs[1], coeffs[0]
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			return []Root{{Value: (-b - sq) / (2 * a)}, {Value: (-b + sq) / (2 * a)}}
		}
		re := -b / (2 * a)
		im := math.Abs(math.Sqrt(-disc) / (2 * a))
		return []Root{floatComplexRoot(complex(re, -im)), floatComplexRoot(complex(re, im))}
	}
	return durandKernerRoots(coeffs)
}

func durandKernerRoots(coeffs []float64) []Root {
	var roots []Root
	for _, z := range durandKerner(coeffs) {
		scale := math.Max(1, cmplx.Abs(z))
		if math.Abs(imag(z)) < imagTolerance*scale {
			roots = append(roots, Root{Value: polishReal(coeffs, real(z))})
			continue
		}
		roots = append(roots, floatComplexRoot(z))
	}
	return dedupeRoots(roots)
}

// durandKerner finds all complex roots of the polynomial with the given
// coefficients (lowest degree first) by simultaneous iteration.
func durandKerner(coeffs []float64) []complex128 {
	n := len(coeffs) - 1
	lead := coeffs[n]
	monic := make([]complex128, n+1)
	for i, c := range coeffs {
		monic[i] = complex(c/lead, 0)
	}
	eval := func(z complex128) complex128 {
		acc := complex(0, 0)
		for i := n; i >= 0; i-- {
			acc = acc*z + monic[i]
		}
		return acc
	}

	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	roots[0] = 1
	for i := 1; i < n; i++ {
		roots[i] = roots[i-1] * seed
	}
	for i := range roots {
		roots[i] *= seed
	}

	for iter := 0; iter < 1000; iter++ {
		maxDelta := 0.0
		for i := range roots {
			den := complex(1, 0)
			for j := range roots {
				if i != j {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				den = complex(1e-12, 0)
			}
			delta := eval(roots[i]) / den
			roots[i] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < 1e-14 {
			break
		}
	}
	return roots
}

// polishReal applies a few Newton steps to a real root estimate.
func polishReal(coeffs []float64, x float64) float64 {
	for i := 0; i < 20; i++ {
		p, dp := 0.0, 0.0
		for k := len(coeffs) - 1; k >= 0; k-- {
			dp = dp*x + p
			p = p*x + coeffs[k]
		}
		if dp == 0 || p == 0 {
			break
		}
		next := x - p/dp
		if math.IsNaN(next) || math.Abs(next-x) < 1e-16*math.Max(1, math.Abs(x)) {
			x = next
			break
		}
		x = next
	}
	return snapInteger(x)
}

func floatComplexRoot(z complex128) Root {
	re, im := snapInteger(real(z)), snapInteger(imag(z))
	mag := strconv.FormatFloat(math.Abs(im), 'g', 15, 64)
	imStr := mag + "*I"
	if mag == "1" {
		imStr = "I"
	}
	var text string
	switch {
	case re == 0 && im < 0:
		text = "-" + imStr
	case re == 0:
		text = imStr
	case im < 0:
		text = strconv.FormatFloat(re, 'g', 15, 64) + " - " + imStr
	default:
		text = strconv.FormatFloat(re, 'g', 15, 64) + " + " + imStr
	}
	return Root{Value: re, Imag: im, Symbolic: text}
}

func snapInteger(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < 1e-12*math.Max(1, math.Abs(x)) {
		return r
	}
	return x
}

// ============================================================
// Symbolic coefficients
// ============================================================

func solveSymbolic(coeffs []Expr, variable, input string) ([]Root, error) {
	switch len(coeffs) - 1 {
	case 1:
		r := Expand(MulOf(N(-1), coeffs[0], PowOf(coeffs[1], N(-1))))
		return []Root{symbolicRoot(r)}, nil
	case 2:
		a, b, c := coeffs[2], coeffs[1], coeffs[0]
		disc := Expand(AddOf(PowOf(b, N(2)), MulOf(N(-4), a, c)))
		inv := PowOf(MulOf(N(2), a), N(-1))
		negB := MulOf(N(-1), b)
		r1 := Expand(MulOf(AddOf(negB, MulOf(N(-1), SqrtOf(disc))), inv))
		r2 := Expand(MulOf(AddOf(negB, SqrtOf(disc)), inv))
		if r1.Equal(r2) {
			return []Root{symbolicRoot(r1)}, nil
		}
		return []Root{symbolicRoot(r1), symbolicRoot(r2)}, nil
	}
	return nil, newError(KindSolve, "solve", input,
		"degree %d equation in %s has symbolic coefficients", len(coeffs)-1, variable)
}

func symbolicRoot(e Expr) Root {
	if len(FreeSymbols(e)) == 0 {
		if n, ok := e.Eval(); ok {
			return Root{Value: n.Float64()}
		}
	}
	return Root{Symbolic: e.String()}
}

// ============================================================
// Non-polynomial equations
// ============================================================

// solveNumeric scans the search range with Newton's method.
func solveNumeric(e Expr, variable, input string, cfg solveConfig) ([]Root, error) {
	for _, name := range FreeSymbols(e) {
		if name != variable {
			return nil, newError(KindSolve, "solve", input, "cannot solve for %s: equation also depends on %s", variable, name)
		}
	}
	f, err := compile(e, variable)
	if err != nil {
		return nil, newError(KindSolve, "solve", input, "%v", err)
	}
	df, err := compile(Diff(e, variable), variable)
	if err != nil {
		return nil, newError(KindSolve, "solve", input, "%v", err)
	}

	span := cfg.max - cfg.min
	var found []float64
	for i := 0; i <= cfg.starts; i++ {
		x := cfg.min + span*float64(i)/float64(cfg.starts)
		// A root is accepted only once the Newton step itself vanishes, so
		// asymptotes such as exp(x) -> 0 are not reported.
		for iter := 0; iter < cfg.maxIter; iter++ {
			fx := f(x)
			if math.IsNaN(fx) || math.IsInf(fx, 0) {
				break
			}
			if fx == 0 {
				found = append(found, snapInteger(x))
				break
			}
			dfx := df(x)
			if math.IsNaN(dfx) || math.IsInf(dfx, 0) || dfx == 0 {
				break
			}
			step := fx / dfx
			x -= step
			if math.Abs(step) <= 1e-12*math.Max(1, math.Abs(x)) {
				if math.Abs(f(x)) < cfg.tol {
					found = append(found, snapInteger(x))
				}
				break
			}
			if x < cfg.min-span || x > cfg.max+span {
				break
			}
		}
	}

	var roots []Root
	for _, x := range found {
		if x < cfg.min || x > cfg.max {
			continue
		}
		roots = append(roots, Root{Value: x})
	}
	roots = dedupeRoots(roots)
	if len(roots) == 0 {
		return nil, newError(KindSolve, "solve", input,
			"no real roots found in [%s, %s]", FormatFloat(cfg.min), FormatFloat(cfg.max))
	}
	return roots, nil
}

// ============================================================
// Ordering
// ============================================================

func sortRoots(roots []Root) []Root {
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := roots[i], roots[j]
		ra, rb := rootRank(a), rootRank(b)
		if ra != rb {
			return ra < rb
		}
		switch ra {
		case 0:
			return a.Value < b.Value
		case 1:
			// Conjugate pairs from the numeric path may differ in the last bits of the real part.
			if math.Abs(a.Value-b.Value) > 1e-9*math.Max(1, math.Abs(a.Value)) {
				return a.Value < b.Value
			}
			return a.Imag < b.Imag
		}
		return false
	})
	return dedupeRoots(roots)
}

// rootRank orders real roots before complex roots before symbolic roots.
func rootRank(r Root) int {
	switch {
	case r.IsReal():
		return 0
	case r.Imag != 0:
		return 1
	}
	return 2
}

func dedupeRoots(roots []Root) []Root {
	out := make([]Root, 0, len(roots))
	for _, r := range roots {
		dup := false
		for _, o := range out {
			if r.IsReal() && o.IsReal() && math.Abs(r.Value-o.Value) <= 1e-8*math.Max(1, math.Abs(r.Value)) {
				dup = true
				break
			}
			if !r.IsReal() && r.Symbolic == o.Symbolic {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}
