package umlcalc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/njchilds90/umlcalc/ris"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   string      `json:"kind,omitempty"`
}

// ToolNames lists every tool HandleToolCall understands.
var ToolNames = []string{"calc", "evaluate_at", "solve", "sample", "parse", "free_symbols", "ris", "tool_spec"}

func errorResponse(err error) ToolResponse {
	resp := ToolResponse{Error: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.String()
	}
	return resp
}

func HandleToolCall(req ToolRequest) ToolResponse {
	// getExpr accepts either expression text or the JSON tree form.
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return Parse(val)
		case map[string]interface{}:
			return FromJSON(val)
		}
		return nil, fmt.Errorf("param %s must be a string or expression object", key)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		}
		return 0, fmt.Errorf("param %s must be a number", key)
	}
	optNumber := func(key string, def float64) (float64, error) {
		if _, ok := req.Params[key]; !ok {
			return def, nil
		}
		return getNumber(key)
	}

	switch req.Tool {
	case "calc":
		text, err := getString("expression")
		if err != nil {
			return errorResponse(err)
		}
		ans, err := Calc(text)
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: ans.Value(), String: ans.String()}

	case "evaluate_at":
		e, err := getExpr("expression")
		if err != nil {
			return errorResponse(err)
		}
		x, err := getNumber("x")
		if err != nil {
			return errorResponse(err)
		}
		r, err := EvaluateAt(e, x)
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: r.Float64(), String: r.String()}

	case "solve":
		text, err := getString("equation")
		if err != nil {
			return errorResponse(err)
		}
		variable := "x"
		if _, ok := req.Params["var"]; ok {
			if variable, err = getString("var"); err != nil {
				return errorResponse(err)
			}
		}
		lo, err := optNumber("range_min", DefaultSearchMin)
		if err != nil {
			return errorResponse(err)
		}
		hi, err := optNumber("range_max", DefaultSearchMax)
		if err != nil {
			return errorResponse(err)
		}
		in, err := ParseInput(text)
		if err != nil {
			return errorResponse(err)
		}
		sol, err := Solve(in.Expr, variable, WithSearchRange(lo, hi))
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: sol.Value(), String: sol.String()}

	case "sample":
		e, err := getExpr("expression")
		if err != nil {
			return errorResponse(err)
		}
		lo, err := optNumber("x_min", -10)
		if err != nil {
			return errorResponse(err)
		}
		hi, err := optNumber("x_max", 10)
		if err != nil {
			return errorResponse(err)
		}
		count, err := optNumber("count", 500)
		if err != nil {
			return errorResponse(err)
		}
		set, err := Sample(e, lo, hi, int(count))
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: set, String: fmt.Sprintf("%d points, %d valid", set.Len(), set.ValidCount())}

	case "parse":
		e, err := getExpr("expression")
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: ToJSONMap(e), String: e.String()}

	case "free_symbols":
		e, err := getExpr("expression")
		if err != nil {
			return errorResponse(err)
		}
		syms := FreeSymbols(e)
		return ToolResponse{Result: syms, String: strings.Join(syms, ", ")}

	case "ris":
		a, err := getNumber("a")
		if err != nil {
			return errorResponse(err)
		}
		b, err := getNumber("b")
		if err != nil {
			return errorResponse(err)
		}
		out := ris.Evaluate(a, b)
		return ToolResponse{Result: out, String: out.Explanation}

	case "tool_spec":
		return ToolResponse{Result: ToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// Tool spec
// ============================================================

func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("calc", "Evaluate an expression, or solve it for x when it contains '='", []string{"expression"}, map[string]string{"expression": "string"}),
		ts("evaluate_at", "Evaluate an expression at a value of x", []string{"expression", "x"}, map[string]string{"expression": "string", "x": "number"}),
		ts("solve", "Solve an equation for a variable. Optional: var, range_min, range_max", []string{"equation"}, map[string]string{"equation": "string", "var": "string", "range_min": "number", "range_max": "number"}),
		ts("sample", "Sample an expression in x over [x_min, x_max]; invalid points are null", []string{"expression"}, map[string]string{"expression": "string", "x_min": "number", "x_max": "number", "count": "integer"}),
		ts("parse", "Parse an expression into its JSON tree", []string{"expression"}, map[string]string{"expression": "string"}),
		ts("free_symbols", "Return free symbol names", []string{"expression"}, map[string]string{"expression": "string"}),
		ts("ris", "Apply the RIS operator to a and b", []string{"a", "b"}, map[string]string{"a": "number", "b": "number"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
