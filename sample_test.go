package umlcalc_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/umlcalc"
)

func TestSample_Reciprocal(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("1/x"), -1, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	wantX := []float64{-1, -0.5, 0, 0.5, 1}
	for i, x := range wantX {
		if set.Xs[i] != x {
			t.Errorf("x[%d]: want %v, got %v", i, x, set.Xs[i])
		}
	}
	if set.Ys[2].Valid {
		t.Errorf("1/0 should be invalid, got %v", set.Ys[2])
	}
	if set.Ys[2].String() != "INVALID" {
		t.Errorf("want INVALID, got %s", set.Ys[2])
	}
	if set.Ys[0].Value != -1 || set.Ys[4].Value != 1 {
		t.Errorf("unexpected ends: %v %v", set.Ys[0], set.Ys[4])
	}
	if set.ValidCount() != 4 {
		t.Errorf("want 4 valid points, got %d", set.ValidCount())
	}
}

func TestSample_LastPointIsExactlyMax(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("x"), 0, 0.3, 7)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 7 {
		t.Fatalf("want 7 points, got %d", set.Len())
	}
	if set.Xs[0] != 0 || set.Xs[6] != 0.3 {
		t.Errorf("want ends 0 and 0.3, got %v and %v", set.Xs[0], set.Xs[6])
	}
}

func TestSample_DomainGaps(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("sqrt(x) + ln(x)"), -2, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if set.Ys[i].Valid {
			t.Errorf("point %d (x=%v) should be invalid, got %v", i, set.Xs[i], set.Ys[i])
		}
	}
	if !set.Ys[4].Valid || math.Abs(set.Ys[4].Value-(math.Sqrt2+math.Ln2)) > 1e-12 {
		t.Errorf("want sqrt(2)+ln(2) at x=2, got %v", set.Ys[4])
	}
	lo, hi, ok := set.YRange()
	if !ok || lo != 1 || hi != set.Ys[4].Value {
		t.Errorf("unexpected range %v %v %v", lo, hi, ok)
	}
}

func TestSample_IndeterminateIsInvalid(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("(x-x)/(x-x)"), -1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if set.ValidCount() != 0 {
		t.Errorf("want every point invalid, got %v", set.Ys)
	}
}

func TestSample_HugeRange(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("x"), -1e308, 1e308, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-1e308, -5e307, 0, 5e307, 1e308}
	for i, x := range set.Xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("Xs[%d] = %v is not finite", i, x)
		}
		if math.Abs(x-want[i]) > 1e293 {
			t.Errorf("Xs[%d]: want %v, got %v", i, want[i], x)
		}
		if i > 0 && x < set.Xs[i-1] {
			t.Errorf("Xs not increasing at %d: %v", i, set.Xs)
		}
	}
}

func TestSample_ConstantExpression(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("pi"), 0, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range set.Ys {
		if !y.Valid || y.Value != math.Pi {
			t.Errorf("want pi, got %v", y)
		}
	}
}

func TestSample_DegenerateRange(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("x^2"), 3, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range set.Ys {
		if y.Value != 9 {
			t.Errorf("want 9, got %v", y)
		}
	}
}

func TestSample_Errors(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		xMin, xMax float64
		count      int
	}{
		{"too few points", "x", 0, 1, 1},
		{"too many points", "x", 0, 1, umlcalc.MaxSamples + 1},
		{"other symbol", "y + x", 0, 1, 10},
		{"reversed range", "x", 1, 0, 10},
		{"nan bound", "x", math.NaN(), 1, 10},
		{"infinite bound", "x", 0, math.Inf(1), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := umlcalc.Sample(umlcalc.MustParse(tc.in), tc.xMin, tc.xMax, tc.count)
			if !errors.Is(err, umlcalc.ErrSample) {
				t.Errorf("want ErrSample, got %v", err)
			}
		})
	}
}

func TestSample_JSON(t *testing.T) {
	set, err := umlcalc.Sample(umlcalc.MustParse("1/x"), -1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"xs":[-1,0,1],"ys":[-1,null,1]}`
	if string(b) != want {
		t.Errorf("want %s, got %s", want, b)
	}
}

func TestCompile(t *testing.T) {
	f, err := umlcalc.Compile(umlcalc.MustParse("3x^2 + sin(x)"))
	if err != nil {
		t.Fatal(err)
	}
	if got := f(0); got != 0 {
		t.Errorf("f(0): want 0, got %v", got)
	}
	if got := f(1); math.Abs(got-(3+math.Sin(1))) > 1e-12 {
		t.Errorf("f(1): want %v, got %v", 3+math.Sin(1), got)
	}
	if _, err := umlcalc.Compile(umlcalc.MustParse("x*z")); !errors.Is(err, umlcalc.ErrSample) {
		t.Errorf("want ErrSample for a second symbol, got %v", err)
	}
}
