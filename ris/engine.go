// Package ris implements the RIS binary operator: an ordered list of rules
// where the first rule whose predicate matches decides the operation.
package ris

// Outcome is the result of one RIS evaluation.
type Outcome struct {
	Value       float64  `json:"value"`
	Rule        RuleName `json:"rule"`
	RuleID      string   `json:"rule_id"`
	Explanation string   `json:"explanation"`
}

// Engine evaluates operands against a fixed rule list. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	rules []Rule
}

// New returns an engine over rules, or over DefaultRules when none are given.
// The last rule should always match; if none does, the operands are added.
func New(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the engine's rule list.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Evaluate applies the first matching rule. Later rules are not consulted.
func (e *Engine) Evaluate(a, b float64) Outcome {
	for _, rule := range e.rules {
		if !rule.Match(a, b) {
			continue
		}
		v := rule.Apply(a, b)
		return Outcome{
			Value:       v,
			Rule:        rule.Name(),
			RuleID:      rule.ID(),
			Explanation: rule.Describe(a, b, v),
		}
	}
	fallback := &DefaultRule{}
	v := fallback.Apply(a, b)
	return Outcome{Value: v, Rule: fallback.Name(), RuleID: fallback.ID(), Explanation: fallback.Describe(a, b, v)}
}

// Explain returns the value and a sentence naming the rule that fired.
func (e *Engine) Explain(a, b float64) (float64, string) {
	o := e.Evaluate(a, b)
	return o.Value, o.Explanation
}

var defaultEngine = New()

// Evaluate runs the default rule list.
func Evaluate(a, b float64) Outcome { return defaultEngine.Evaluate(a, b) }

// Explain runs the default rule list and returns the value with its explanation.
func Explain(a, b float64) (float64, string) { return defaultEngine.Explain(a, b) }
