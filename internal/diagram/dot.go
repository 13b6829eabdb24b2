// Package diagram renders calculator structures as Graphviz DOT text.
//
// Output is plain DOT; turning it into an image is left to the dot tool.
package diagram

import (
	"fmt"
	"strings"

	"github.com/njchilds90/umlcalc"
	"github.com/njchilds90/umlcalc/ris"
)

// RIS draws one evaluation: both inputs feed the rule that fired, which feeds the result.
func RIS(a, b float64, out ris.Outcome) string {
	var sb strings.Builder
	sb.WriteString("digraph RIS {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "    a [label=\"%s\"];\n", escapeDOTLabel("Input A\nValue: "+umlcalc.FormatFloat(a)))
	fmt.Fprintf(&sb, "    b [label=\"%s\"];\n", escapeDOTLabel("Input B\nValue: "+umlcalc.FormatFloat(b)))
	fmt.Fprintf(&sb, "    op [label=\"%s\", shape=ellipse];\n", escapeDOTLabel("RIS Operation\n"+string(out.Rule)+" ("+out.RuleID+")"))
	fmt.Fprintf(&sb, "    result [label=\"%s\"];\n", escapeDOTLabel("Result\nValue: "+umlcalc.FormatFloat(out.Value)))
	sb.WriteString("\n")
	sb.WriteString("    a -> op;\n")
	sb.WriteString("    b -> op;\n")
	sb.WriteString("    op -> result;\n")
	sb.WriteString("}\n")
	return sb.String()
}

// Rules draws the dispatch order: each rule either fires its operation or
// falls through to the next rule.
func Rules(rules []ris.Rule) string {
	var sb strings.Builder
	sb.WriteString("digraph RISRules {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=diamond];\n")
	sb.WriteString("\n")

	ops := map[ris.RuleName]bool{}
	for i, r := range rules {
		fmt.Fprintf(&sb, "    %s [label=\"%s\"];\n", sanitizeDOTID(r.ID()), escapeDOTLabel(fmt.Sprintf("%d. %s", i+1, r.ID())))
		ops[r.Name()] = true
	}
	for _, name := range []ris.RuleName{ris.Addition, ris.Multiplication, ris.Division, ris.SpecialMultiplication} {
		if ops[name] {
			fmt.Fprintf(&sb, "    %s [label=\"%s\", shape=box];\n", sanitizeDOTID("op:"+string(name)), name)
		}
	}
	sb.WriteString("\n")
	for i, r := range rules {
		fmt.Fprintf(&sb, "    %s -> %s [label=\"match\"];\n", sanitizeDOTID(r.ID()), sanitizeDOTID("op:"+string(r.Name())))
		if i+1 < len(rules) {
			fmt.Fprintf(&sb, "    %s -> %s [label=\"no match\", style=dashed];\n", sanitizeDOTID(r.ID()), sanitizeDOTID(rules[i+1].ID()))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Equation draws the equation text above the tree of its normalized form
// (lhs - rhs). When sol is non-nil its roots are attached.
func Equation(in umlcalc.Input, sol *umlcalc.Solution) string {
	var sb strings.Builder
	sb.WriteString("digraph Equation {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "    eq [label=\"%s\"];\n", escapeDOTLabel("Equation\n"+in.Source))
	t := &tree{sb: &sb}
	root := t.walk(in.Expr)
	fmt.Fprintf(&sb, "    eq -> %s [label=\"= 0\"];\n", root)
	if sol != nil {
		fmt.Fprintf(&sb, "    roots [label=\"%s\", shape=note];\n", escapeDOTLabel("Roots in "+sol.Variable+"\n"+sol.String()))
		sb.WriteString("    eq -> roots;\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Function draws the expression tree of f together with its derivative in x.
func Function(f umlcalc.Expr) string {
	var sb strings.Builder
	sb.WriteString("digraph Function {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "    fn [label=\"%s\"];\n", escapeDOTLabel("Function\nf(x) = "+f.String()))
	fmt.Fprintf(&sb, "    deriv [label=\"%s\", shape=note];\n", escapeDOTLabel("Derivative\nf'(x) = "+umlcalc.Diff(f, "x").String()))
	t := &tree{sb: &sb}
	root := t.walk(f)
	fmt.Fprintf(&sb, "    fn -> %s;\n", root)
	sb.WriteString("    fn -> deriv [style=dashed];\n")
	sb.WriteString("}\n")
	return sb.String()
}

// tree emits one node per expression node, numbered in visit order.
type tree struct {
	sb *strings.Builder
	n  int
}

func (t *tree) walk(e umlcalc.Expr) string {
	id := fmt.Sprintf("n%d", t.n)
	t.n++

	var label string
	var children []umlcalc.Expr
	shape := "ellipse"
	switch v := e.(type) {
	case *umlcalc.Add:
		label, children = "+", v.Terms()
	case *umlcalc.Mul:
		label, children = "*", v.Factors()
	case *umlcalc.Pow:
		label, children = "^", []umlcalc.Expr{v.Base(), v.ExpExpr()}
	case *umlcalc.Func:
		label, children = v.FuncName(), []umlcalc.Expr{v.Arg()}
	default:
		label, shape = e.String(), "box"
	}
	fmt.Fprintf(t.sb, "    %s [label=\"%s\", shape=%s];\n", id, escapeDOTLabel(label), shape)
	for _, c := range children {
		child := t.walk(c)
		fmt.Fprintf(t.sb, "    %s -> %s;\n", id, child)
	}
	return id
}

func sanitizeDOTID(s string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, "\"", "\\\""))
}

func escapeDOTLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "\\\"",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}
