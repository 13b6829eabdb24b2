package umlcalc

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Evaluation
// ============================================================

// Result is either a finite real number or a simplified symbolic expression.
type Result struct {
	numeric bool
	value   float64
	exact   *Num
	expr    Expr
}

func (r Result) IsNumeric() bool { return r.numeric }

// Float64 returns the numeric value; it is 0 for symbolic results.
func (r Result) Float64() float64 { return r.value }

// Expr returns the expression form of the result. Numeric results return their exact value.
func (r Result) Expr() Expr {
	if r.numeric {
		return r.exact
	}
	return r.expr
}

func (r Result) String() string {
	if r.numeric {
		return FormatFloat(r.value)
	}
	if r.expr == nil {
		return ""
	}
	return r.expr.String()
}

// MarshalJSON encodes numeric results as JSON numbers and symbolic ones as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.numeric {
		return json.Marshal(r.value)
	}
	return json.Marshal(r.String())
}

// FormatFloat renders a float the way results are shown to users.
func FormatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Evaluate simplifies e and reduces it to a number when no free symbols remain.
func Evaluate(e Expr) (Result, error) {
	s := e.Simplify()
	if len(FreeSymbols(s)) > 0 {
		return Result{expr: s}, nil
	}
	return reduce(s, "evaluate", e.String())
}

// EvaluateAt binds x and reduces e to a number. Any other free symbol is an error.
func EvaluateAt(e Expr, x float64) (Result, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Result{}, newError(KindEval, "evaluate", e.String(), "binding x=%v is not finite", x)
	}
	return EvaluateWith(e, map[string]float64{"x": x})
}

// EvaluateWith substitutes every binding and reduces e to a number.
func EvaluateWith(e Expr, bindings map[string]float64) (Result, error) {
	s := e
	for name, v := range bindings {
		n, ok := floatNum(v)
		if !ok {
			return Result{}, newError(KindEval, "evaluate", e.String(), "binding %s=%v is not finite", name, v)
		}
		s = s.Sub(name, n)
	}
	s = s.Simplify()
	if free := FreeSymbols(s); len(free) > 0 {
		return Result{}, newError(KindEval, "evaluate", e.String(), "unbound symbols: %s", strings.Join(free, ", "))
	}
	return reduce(s, "evaluate", e.String())
}

func reduce(e Expr, op, input string) (Result, error) {
	n, ok := e.Eval()
	if !ok {
		return Result{}, newError(KindEval, op, input, "%s does not reduce to a finite real number", e.String())
	}
	f := n.Float64()
	if math.IsInf(f, 0) {
		return Result{}, newError(KindEval, op, input, "result overflows float64")
	}
	return Result{numeric: true, value: f, exact: n}, nil
}

// ============================================================
// Calculator entry point
// ============================================================

// Answer is the outcome of one line of calculator input. Exactly one of
// Result and Solution is set.
type Answer struct {
	Input    Input
	Result   *Result
	Solution *Solution
}

func (a Answer) String() string {
	if a.Solution != nil {
		return a.Solution.String()
	}
	if a.Result != nil {
		return a.Result.String()
	}
	return ""
}

// Value is the plain Go value of the answer: float64, string or []interface{}.
func (a Answer) Value() interface{} {
	if a.Solution != nil {
		return a.Solution.Value()
	}
	if a.Result != nil {
		if a.Result.IsNumeric() {
			return a.Result.Float64()
		}
		return a.Result.String()
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) { return json.Marshal(a.Value()) }

// Calc parses text and either evaluates it or, for an equation, solves it for x.
func Calc(text string) (Answer, error) {
	in, err := ParseInput(text)
	if err != nil {
		return Answer{}, err
	}
	if in.Equation {
		sol, err := Solve(in.Expr, "x")
		if err != nil {
			return Answer{}, err
		}
		return Answer{Input: in, Solution: &sol}, nil
	}
	r, err := Evaluate(in.Expr)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Input: in, Result: &r}, nil
}
