package umlcalc_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/umlcalc"
	"github.com/njchilds90/umlcalc/ris"
)

func TestHandleToolCall_Calc(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "calc",
		Params: map[string]interface{}{"expression": "x^2 = 16"},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	if resp.String != "[-4, 4]" {
		t.Errorf("want [-4, 4], got %s", resp.String)
	}
}

func TestHandleToolCall_ErrorKind(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "calc",
		Params: map[string]interface{}{"expression": "1/0"},
	})
	if resp.Error == "" {
		t.Fatal("expected error")
	}
	if resp.Kind != "EvalError" {
		t.Errorf("want EvalError, got %q", resp.Kind)
	}

	resp = umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "calc",
		Params: map[string]interface{}{"expression": "2 +"},
	})
	if resp.Kind != "ParseError" {
		t.Errorf("want ParseError, got %q", resp.Kind)
	}
}

func TestHandleToolCall_EvaluateAt(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "evaluate_at",
		Params: map[string]interface{}{"expression": "x^2 + 1", "x": 3.0},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	if resp.Result != 10.0 {
		t.Errorf("want 10, got %v", resp.Result)
	}
}

func TestHandleToolCall_Solve(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool: "solve",
		Params: map[string]interface{}{
			"equation":  "cos(x) = 0",
			"range_min": 0.0,
			"range_max": 3.0,
		},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	if !strings.HasPrefix(resp.String, "1.5707963") {
		t.Errorf("want pi/2, got %s", resp.String)
	}
}

func TestHandleToolCall_Sample(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "sample",
		Params: map[string]interface{}{"expression": "1/x", "x_min": -1.0, "x_max": 1.0, "count": 5.0},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	if resp.String != "5 points, 4 valid" {
		t.Errorf("want 5 points, 4 valid, got %s", resp.String)
	}
}

func TestHandleToolCall_ParseAndFreeSymbols(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "parse",
		Params: map[string]interface{}{"expression": "2x + y"},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	tree, ok := resp.Result.(map[string]interface{})
	if !ok || tree["type"] != "add" {
		t.Fatalf("want add tree, got %#v", resp.Result)
	}

	resp = umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "free_symbols",
		Params: map[string]interface{}{"expression": tree},
	})
	if resp.String != "x, y" {
		t.Errorf("want x, y, got %s", resp.String)
	}
}

func TestHandleToolCall_RIS(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{
		Tool:   "ris",
		Params: map[string]interface{}{"a": 10.0, "b": 5.0},
	})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	out, ok := resp.Result.(ris.Outcome)
	if !ok {
		t.Fatalf("want ris.Outcome, got %T", resp.Result)
	}
	if out.Value != 2 || out.Rule != ris.Division {
		t.Errorf("want Division to 2, got %+v", out)
	}
}

func TestHandleToolCall_MissingParam(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{Tool: "ris", Params: map[string]interface{}{"a": 1.0}})
	if resp.Error != "missing param: b" {
		t.Errorf("want missing param: b, got %q", resp.Error)
	}
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	resp := umlcalc.HandleToolCall(umlcalc.ToolRequest{Tool: "integrate"})
	if resp.Error != "unknown tool: integrate" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(umlcalc.ToolSpec()), &spec); err != nil {
		t.Fatal(err)
	}
	if len(spec.Tools) != len(umlcalc.ToolNames) {
		t.Fatalf("want %d tools, got %d", len(umlcalc.ToolNames), len(spec.Tools))
	}
	for i, tool := range spec.Tools {
		if tool.Name != umlcalc.ToolNames[i] {
			t.Errorf("tool %d: want %s, got %s", i, umlcalc.ToolNames[i], tool.Name)
		}
	}
}
