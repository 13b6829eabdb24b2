package ris

import (
	"fmt"
	"math"
	"strconv"
)

// RuleName is the arithmetic operation a rule performs.
type RuleName string

const (
	Addition              RuleName = "Addition"
	Multiplication        RuleName = "Multiplication"
	Division              RuleName = "Division"
	SpecialMultiplication RuleName = "SpecialMultiplication"
)

// Rule is one entry of the ordered dispatch list.
type Rule interface {
	// ID returns a unique identifier for this rule.
	ID() string

	// Name returns the operation the rule performs.
	Name() RuleName

	// Match returns true if this rule applies to the operands.
	Match(a, b float64) bool

	// Apply computes the outcome. Only called when Match returned true.
	Apply(a, b float64) float64

	// Describe explains the arithmetic that produced v.
	Describe(a, b, v float64) string
}

// FloorMod returns a mod b with the sign of b, so FloorMod(-7, 3) == 2.
func FloorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func format(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ZeroIdentityRule adds when either operand is zero.
type ZeroIdentityRule struct{}

func (r *ZeroIdentityRule) ID() string                 { return "zero-identity" }
func (r *ZeroIdentityRule) Name() RuleName             { return Addition }
func (r *ZeroIdentityRule) Match(a, b float64) bool    { return a == 0 || b == 0 }
func (r *ZeroIdentityRule) Apply(a, b float64) float64 { return a + b }
func (r *ZeroIdentityRule) Describe(a, b, v float64) string {
	return fmt.Sprintf("When one value is zero, RIS performs Addition: %s + %s = %s", format(a), format(b), format(v))
}

// EqualityRule multiplies equal operands.
type EqualityRule struct{}

func (r *EqualityRule) ID() string                 { return "equality" }
func (r *EqualityRule) Name() RuleName             { return Multiplication }
func (r *EqualityRule) Match(a, b float64) bool    { return a == b }
func (r *EqualityRule) Apply(a, b float64) float64 { return a * b }
func (r *EqualityRule) Describe(a, b, v float64) string {
	return fmt.Sprintf("When values are equal, RIS performs Multiplication: %s × %s = %s", format(a), format(b), format(v))
}

// DivisibilityRule divides when a is a larger exact multiple of b.
type DivisibilityRule struct{}

func (r *DivisibilityRule) ID() string     { return "divisibility" }
func (r *DivisibilityRule) Name() RuleName { return Division }

// Match guards b != 0 itself rather than relying on rule order.
func (r *DivisibilityRule) Match(a, b float64) bool {
	return b != 0 && FloorMod(a, b) == 0 && a > b
}
func (r *DivisibilityRule) Apply(a, b float64) float64 { return a / b }
func (r *DivisibilityRule) Describe(a, b, v float64) string {
	return fmt.Sprintf("When a is divisible by b, RIS performs Division: %s ÷ %s = %s", format(a), format(b), format(v))
}

// TernaryRule multiplies when a > b and either operand is a multiple of three.
type TernaryRule struct{}

func (r *TernaryRule) ID() string     { return "ternary-special" }
func (r *TernaryRule) Name() RuleName { return SpecialMultiplication }
func (r *TernaryRule) Match(a, b float64) bool {
	return a > b && (FloorMod(a, 3) == 0 || FloorMod(b, 3) == 0)
}
func (r *TernaryRule) Apply(a, b float64) float64 { return a * b }
func (r *TernaryRule) Describe(a, b, v float64) string {
	return fmt.Sprintf("Special case demonstration: %s × %s = %s", format(a), format(b), format(v))
}

// DefaultRule always matches and adds.
type DefaultRule struct{}

func (r *DefaultRule) ID() string                 { return "default" }
func (r *DefaultRule) Name() RuleName             { return Addition }
func (r *DefaultRule) Match(a, b float64) bool    { return true }
func (r *DefaultRule) Apply(a, b float64) float64 { return a + b }
func (r *DefaultRule) Describe(a, b, v float64) string {
	return fmt.Sprintf("Default operation is Addition: %s + %s = %s", format(a), format(b), format(v))
}

// DefaultRules returns the dispatch list in priority order.
func DefaultRules() []Rule {
	return []Rule{
		&ZeroIdentityRule{},
		&EqualityRule{},
		&DivisibilityRule{},
		&TernaryRule{},
		&DefaultRule{},
	}
}
