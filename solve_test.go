package umlcalc_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/umlcalc"
)

func realRoots(t *testing.T, text string, opts ...umlcalc.SolveOption) []float64 {
	t.Helper()
	sol, err := umlcalc.SolveText(text, opts...)
	if err != nil {
		t.Fatalf("SolveText(%q): %v", text, err)
	}
	return sol.RealRoots()
}

func approxEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestSolve_Polynomials(t *testing.T) {
	cases := []struct {
		in   string
		want []float64
	}{
		{"x^2 - 4", []float64{-2, 2}},
		{"x^2 - x", []float64{0, 1}},
		{"2x + 3 = 7", []float64{2}},
		{"x^3 - 6x^2 + 11x - 6", []float64{1, 2, 3}},
		{"x^2 - 2x + 1", []float64{1}},
		{"4x^2 = 1", []float64{-0.5, 0.5}},
		{"x^4 - 5x^2 + 4", []float64{-2, -1, 1, 2}},
		{"x^2 - 2", []float64{-math.Sqrt2, math.Sqrt2}},
	}
	for _, tc := range cases {
		got := realRoots(t, tc.in)
		if !approxEqual(got, tc.want, 1e-12) {
			t.Errorf("SolveText(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestSolve_ComplexRoots(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"x^2 + 1", "[-I, I]"},
		{"x^2 + 2x + 5", "[-1 - 2*I, -1 + 2*I]"},
		{"x^2 + 4", "[-2*I, 2*I]"},
	}
	for _, tc := range cases {
		sol, err := umlcalc.SolveText(tc.in)
		if err != nil {
			t.Errorf("SolveText(%q): %v", tc.in, err)
			continue
		}
		if sol.String() != tc.want {
			t.Errorf("SolveText(%q): want %s, got %s", tc.in, tc.want, sol.String())
		}
		if len(sol.RealRoots()) != 0 {
			t.Errorf("SolveText(%q): want no real roots, got %v", tc.in, sol.RealRoots())
		}
	}
}

func TestSolve_CubicWithComplexPair(t *testing.T) {
	sol, err := umlcalc.SolveText("x^3 - 2")
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.Roots) != 3 {
		t.Fatalf("want 3 roots, got %v", sol)
	}
	if !sol.Roots[0].IsReal() || math.Abs(sol.Roots[0].Value-math.Cbrt(2)) > 1e-9 {
		t.Errorf("want real cube root of 2 first, got %v", sol.Roots[0])
	}
	for _, r := range sol.Roots[1:] {
		if r.IsReal() {
			t.Errorf("want complex root, got %v", r)
		}
		if math.Abs(r.Value+math.Cbrt(2)/2) > 1e-9 {
			t.Errorf("want real part %v, got %v", -math.Cbrt(2)/2, r.Value)
		}
	}
	if sol.Roots[1].Imag >= sol.Roots[2].Imag {
		t.Errorf("complex roots should be ordered by imaginary part: %v", sol)
	}
}

func TestSolve_HighDegreeNumeric(t *testing.T) {
	// x^5 - x - 1 has no rational roots and exactly one real root.
	got := realRoots(t, "x^5 - x - 1")
	if len(got) != 1 || math.Abs(got[0]-1.1673039782614187) > 1e-9 {
		t.Errorf("want [1.1673...], got %v", got)
	}
}

func TestSolve_Rational(t *testing.T) {
	cases := []struct {
		in   string
		want []float64
	}{
		{"1/x = 2", []float64{0.5}},
		{"(x^2 - 1)/(x - 1) = 0", []float64{-1}},
		{"x + 1/x = 2", []float64{1}},
	}
	for _, tc := range cases {
		got := realRoots(t, tc.in)
		if !approxEqual(got, tc.want, 1e-12) {
			t.Errorf("SolveText(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestSolve_Transcendental(t *testing.T) {
	// The scan is bounded by the search range and returns every root in it,
	// not a principal set.
	got := realRoots(t, "sin(x) = 0", umlcalc.WithSearchRange(-4, 4))
	want := []float64{-math.Pi, 0, math.Pi}
	if !approxEqual(got, want, 1e-9) {
		t.Errorf("want %v, got %v", want, got)
	}

	// 31 multiples of pi either side of 0 in the default [-100, 100].
	if got := realRoots(t, "sin(x) = 0"); len(got) != 63 {
		t.Errorf("want 63 roots in the default range, got %d", len(got))
	}

	got = realRoots(t, "exp(x) = 2")
	if !approxEqual(got, []float64{math.Ln2}, 1e-9) {
		t.Errorf("want [ln 2], got %v", got)
	}
}

func TestSolve_NoRealRoots(t *testing.T) {
	_, err := umlcalc.SolveText("exp(x) = 0")
	if !errors.Is(err, umlcalc.ErrSolve) {
		t.Fatalf("want ErrSolve, got %v", err)
	}
	var e *umlcalc.Error
	if !errors.As(err, &e) || e.Kind != umlcalc.KindSolve {
		t.Errorf("want *Error with KindSolve, got %v", err)
	}
}

func TestSolve_Symbolic(t *testing.T) {
	sol, err := umlcalc.Solve(umlcalc.MustParse("x^2 - y"), "x")
	if err != nil {
		t.Fatal(err)
	}
	if sol.String() != "[-sqrt(y), sqrt(y)]" {
		t.Errorf("want [-sqrt(y), sqrt(y)], got %s", sol.String())
	}

	sol, err = umlcalc.Solve(umlcalc.MustParse("a*x - b"), "x")
	if err != nil {
		t.Fatal(err)
	}
	if sol.String() != "b/a" {
		t.Errorf("want b/a, got %s", sol.String())
	}

	_, err = umlcalc.Solve(umlcalc.MustParse("x^3 - y"), "x")
	if !errors.Is(err, umlcalc.ErrSolve) {
		t.Errorf("symbolic cubic: want ErrSolve, got %v", err)
	}
}

func TestSolve_OtherVariable(t *testing.T) {
	sol, err := umlcalc.Solve(umlcalc.MustParse("y^2 - 9"), "y")
	if err != nil {
		t.Fatal(err)
	}
	if sol.Variable != "y" || sol.String() != "[-3, 3]" {
		t.Errorf("want y in [-3, 3], got %s %s", sol.Variable, sol.String())
	}
}

func TestSolve_NoVariable(t *testing.T) {
	sol, err := umlcalc.SolveText("5 = 3")
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.Roots) != 0 {
		t.Errorf("want no roots, got %v", sol.Roots)
	}
	if sol.String() != "[]" {
		t.Errorf("want [], got %s", sol.String())
	}
}

func TestSolve_SingleRootUnwrapped(t *testing.T) {
	sol, err := umlcalc.SolveText("3x = 12")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := sol.Value().(float64); !ok || v != 4 {
		t.Errorf("want float64 4, got %#v", sol.Value())
	}
}
