package ris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_RuleTable(t *testing.T) {
	cases := []struct {
		name   string
		a, b   float64
		want   float64
		rule   RuleName
		ruleID string
	}{
		{"equal operands", 5, 5, 25, Multiplication, "equality"},
		{"zero b", 5, 0, 5, Addition, "zero-identity"},
		{"zero a", 0, 5, 5, Addition, "zero-identity"},
		{"both zero", 0, 0, 0, Addition, "zero-identity"},
		{"divisible", 10, 5, 2, Division, "divisibility"},
		{"ternary a", 9, 2, 18, SpecialMultiplication, "ternary-special"},
		{"ternary b", 7, 3, 21, SpecialMultiplication, "ternary-special"},
		{"default", 7, 4, 11, Addition, "default"},
		{"a smaller than b", 2, 10, 12, Addition, "default"},
		{"fractional", 2.5, 1.5, 4, Addition, "default"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.a, tc.b)
			assert.Equal(t, tc.want, got.Value)
			assert.Equal(t, tc.rule, got.Rule)
			assert.Equal(t, tc.ruleID, got.RuleID)
		})
	}
}

func TestEvaluate_ZeroIdentityWinsOverLaterRules(t *testing.T) {
	for _, v := range []float64{-9, -3, -1, 0, 1, 3, 6, 12.5} {
		assert.Equal(t, v, Evaluate(v, 0).Value, "a=%v b=0", v)
		assert.Equal(t, v, Evaluate(0, v).Value, "a=0 b=%v", v)
		assert.Equal(t, "zero-identity", Evaluate(v, 0).RuleID)
	}
}

func TestEvaluate_FloorModForNegatives(t *testing.T) {
	// -6 mod -3 == 0 and -6 < -3, so divisibility does not fire; -3 > -6 fires ternary.
	assert.Equal(t, "default", Evaluate(-6, -3).RuleID)
	assert.Equal(t, "ternary-special", Evaluate(-3, -6).RuleID)
	assert.Equal(t, 18.0, Evaluate(-3, -6).Value)

	// 6 mod -3 == 0 and 6 > -3.
	got := Evaluate(6, -3)
	assert.Equal(t, Division, got.Rule)
	assert.Equal(t, -2.0, got.Value)
}

func TestFloorMod(t *testing.T) {
	assert.Equal(t, 2.0, FloorMod(-7, 3))
	assert.Equal(t, -2.0, FloorMod(7, -3))
	assert.Equal(t, 1.0, FloorMod(7, 3))
	assert.Equal(t, 0.0, FloorMod(9, 3))
	assert.Equal(t, 0.5, FloorMod(3.5, 1.5))
}

func TestExplain(t *testing.T) {
	v, text := Explain(10, 5)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "When a is divisible by b, RIS performs Division: 10 ÷ 5 = 2", text)

	_, text = Explain(5, 5)
	assert.Equal(t, "When values are equal, RIS performs Multiplication: 5 × 5 = 25", text)

	_, text = Explain(0, 5)
	assert.Equal(t, "When one value is zero, RIS performs Addition: 0 + 5 = 5", text)

	_, text = Explain(9, 2)
	assert.Equal(t, "Special case demonstration: 9 × 2 = 18", text)

	_, text = Explain(7, 4)
	assert.Equal(t, "Default operation is Addition: 7 + 4 = 11", text)
}

func TestEvaluate_Deterministic(t *testing.T) {
	first := Evaluate(12, 4)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Evaluate(12, 4))
	}
}

type countingRule struct {
	Rule
	matches int
}

func (c *countingRule) Match(a, b float64) bool {
	c.matches++
	return c.Rule.Match(a, b)
}

func TestEngine_FirstMatchStops(t *testing.T) {
	later := &countingRule{Rule: &DefaultRule{}}
	e := New(&ZeroIdentityRule{}, later)

	out := e.Evaluate(0, 4)
	assert.Equal(t, "zero-identity", out.RuleID)
	assert.Equal(t, 0, later.matches)

	out = e.Evaluate(2, 4)
	assert.Equal(t, "default", out.RuleID)
	assert.Equal(t, 1, later.matches)
}

func TestEngine_DefaultsAndFallback(t *testing.T) {
	assert.Len(t, New().Rules(), 5)

	e := New(&EqualityRule{})
	out := e.Evaluate(2, 3)
	assert.Equal(t, 5.0, out.Value)
	assert.Equal(t, Addition, out.Rule)
}

func TestDivisibilityRule_GuardsZeroDivisor(t *testing.T) {
	r := &DivisibilityRule{}
	assert.False(t, r.Match(5, 0))
	assert.False(t, r.Match(0, 0))
}
