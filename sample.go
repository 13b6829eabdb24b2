package umlcalc

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================
// Float compilation
// ============================================================

// compile turns e into a float closure over variable. Points outside the
// domain yield NaN or ±Inf rather than an error.
func compile(e Expr, variable string) (func(float64) float64, error) {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(float64) float64 { return c }, nil
	case *Const:
		c := v.value
		return func(float64) float64 { return c }, nil
	case *Sym:
		if v.name != variable {
			return nil, fmt.Errorf("free symbol %s is not bound", v.name)
		}
		return func(x float64) float64 { return x }, nil
	case *Add:
		fns, err := compileAll(v.terms, variable)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 {
			sum := 0.0
			for _, f := range fns {
				sum += f(x)
			}
			return sum
		}, nil
	case *Mul:
		fns, err := compileAll(v.factors, variable)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 {
			prod := 1.0
			for _, f := range fns {
				prod *= f(x)
			}
			return prod
		}, nil
	case *Pow:
		base, err := compile(v.base, variable)
		if err != nil {
			return nil, err
		}
		exp, err := compile(v.exp, variable)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 { return math.Pow(base(x), exp(x)) }, nil
	case *Func:
		fn, ok := funcTable[v.name]
		if !ok {
			return nil, fmt.Errorf("unknown function %s", v.name)
		}
		arg, err := compile(v.arg, variable)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 { return fn(arg(x)) }, nil
	}
	return nil, fmt.Errorf("cannot compile %T", e)
}

func compileAll(es []Expr, variable string) ([]func(float64) float64, error) {
	fns := make([]func(float64) float64, len(es))
	for i, e := range es {
		f, err := compile(e, variable)
		if err != nil {
			return nil, err
		}
		fns[i] = f
	}
	return fns, nil
}

// Compile returns e as a function of x.
func Compile(e Expr) (func(float64) float64, error) {
	fn, err := compile(e, "x")
	if err != nil {
		return nil, &Error{Kind: KindSample, Op: "compile", Input: e.String(), Pos: -1, Err: err}
	}
	return fn, nil
}

// ============================================================
// Sampling
// ============================================================

// MaxSamples caps the number of points a single Sample call may produce.
const MaxSamples = 1_000_000

// Y is one sampled output; Valid is false where the function is not finite.
type Y struct {
	Value float64
	Valid bool
}

// Invalid marks a non-finite sample.
var Invalid = Y{Value: math.NaN()}

func (y Y) MarshalJSON() ([]byte, error) {
	if !y.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(y.Value)
}

func (y Y) String() string {
	if !y.Valid {
		return "INVALID"
	}
	return FormatFloat(y.Value)
}

// SampleSet holds index-aligned inputs and outputs.
type SampleSet struct {
	Xs []float64 `json:"xs"`
	Ys []Y       `json:"ys"`
}

type Point struct {
	X float64 `json:"x"`
	Y Y       `json:"y"`
}

func (s SampleSet) Len() int { return len(s.Xs) }

func (s SampleSet) Points() []Point {
	pts := make([]Point, len(s.Xs))
	for i := range s.Xs {
		pts[i] = Point{X: s.Xs[i], Y: s.Ys[i]}
	}
	return pts
}

func (s SampleSet) ValidCount() int {
	n := 0
	for _, y := range s.Ys {
		if y.Valid {
			n++
		}
	}
	return n
}

// YRange returns the smallest and largest valid output. ok is false when no point is valid.
func (s SampleSet) YRange() (min, max float64, ok bool) {
	for _, y := range s.Ys {
		if !y.Valid {
			continue
		}
		if !ok {
			min, max, ok = y.Value, y.Value, true
			continue
		}
		min = math.Min(min, y.Value)
		max = math.Max(max, y.Value)
	}
	return min, max, ok
}

// Sample evaluates e at count evenly spaced points of [xMin, xMax], both ends included.
func Sample(e Expr, xMin, xMax float64, count int) (SampleSet, error) {
	input := e.String()
	fail := func(format string, args ...interface{}) (SampleSet, error) {
		return SampleSet{}, newError(KindSample, "sample", input, format, args...)
	}
	switch {
	case count < 2:
		return fail("need at least 2 points, got %d", count)
	case count > MaxSamples:
		return fail("%d points exceeds the limit of %d", count, MaxSamples)
	case math.IsNaN(xMin) || math.IsInf(xMin, 0) || math.IsNaN(xMax) || math.IsInf(xMax, 0):
		return fail("range bounds must be finite")
	case xMin > xMax:
		return fail("empty range [%s, %s]", FormatFloat(xMin), FormatFloat(xMax))
	}

	fn, err := compile(e.Simplify(), "x")
	if err != nil {
		return fail("%v", err)
	}

	set := SampleSet{Xs: make([]float64, count), Ys: make([]Y, count)}
	width := xMax - xMin
	for i := 0; i < count; i++ {
		t := float64(i) / float64(count-1)
		x := xMin + width*t
		if math.IsInf(width, 0) {
			// The range is wider than float64 can hold; weight the ends instead.
			x = xMin*(1-t) + xMax*t
		}
		if i == count-1 {
			x = xMax
		}
		set.Xs[i] = x
		v := fn(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			set.Ys[i] = Invalid
			continue
		}
		set.Ys[i] = Y{Value: v, Valid: true}
	}
	return set, nil
}
