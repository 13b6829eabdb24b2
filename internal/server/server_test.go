package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/umlcalc"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleTool_Calc(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodPost, "/tool", `{"tool":"calc","params":{"expression":"x^2 = 9"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp umlcalc.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, "[-3, 3]", resp.String)
	assert.Equal(t, []interface{}{-3.0, 3.0}, resp.Result)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.calls.WithLabelValues("calc", "ok")))
}

func TestHandleTool_ToolErrorIsReported(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodPost, "/tool", `{"tool":"solve","params":{"equation":"exp(x) = 0"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp umlcalc.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SolveError", resp.Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.calls.WithLabelValues("solve", "error")))
}

func TestHandleTool_UnknownToolLabel(t *testing.T) {
	s := New(Options{})
	do(t, s, http.MethodPost, "/tool", `{"tool":"integrate","params":{}}`)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.calls.WithLabelValues("unknown", "error")))
}

func TestHandleTool_BadRequests(t *testing.T) {
	s := New(Options{})
	tests := map[string]string{
		"malformed":     `{"tool":`,
		"unknown field": `{"tool":"calc","extra":1}`,
		"trailing data": `{"tool":"calc","params":{}} {}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/tool", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestHandleTool_BodyTooLarge(t *testing.T) {
	s := New(Options{})
	body := `{"tool":"calc","params":{"expression":"` + strings.Repeat("1", maxBodyBytes) + `"}}`
	w := do(t, s, http.MethodPost, "/tool", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleTool_GetIsNotRouted(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/tool", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSchema(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	tools, ok := spec["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, len(umlcalc.ToolNames))
}

func TestHandleHealth(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["time"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Options{})
	do(t, s, http.MethodPost, "/tool", `{"tool":"ris","params":{"a":3,"b":3}}`)

	w := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `umlcalc_tool_calls_total{outcome="ok",tool="ris"} 1`)
	assert.Contains(t, body, "umlcalc_tool_call_duration_seconds_bucket")
}

func TestRecoverPanics(t *testing.T) {
	s := New(Options{})
	s.router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(t, s, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
