// Package server exposes the calculator tools over HTTP.
//
// Routes:
//
//	POST /tool    execute a tool call (umlcalc.ToolRequest -> umlcalc.ToolResponse)
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness check
//	GET  /metrics Prometheus metrics
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/umlcalc"
	"github.com/njchilds90/umlcalc/internal/logging"
)

const maxBodyBytes = 1 << 20

// Options configures New. Nil fields get defaults: a discarding logger and a
// fresh metrics registry.
type Options struct {
	Logger   *logging.Logger
	Registry *prometheus.Registry
}

// Server is the HTTP front end of HandleToolCall.
type Server struct {
	router   *gin.Engine
	logger   *logging.Logger
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New builds the router and registers metrics.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	s := &Server{
		router:   gin.New(),
		logger:   logger,
		registry: reg,
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umlcalc",
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "umlcalc",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"tool"}),
	}

	s.router.Use(s.recoverPanics(), s.logRequests())
	s.router.POST("/tool", s.handleTool)
	s.router.GET("/schema", s.handleSchema)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return s
}

// Handler returns the router for use with an http.Server or httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("tool server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("tool server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleTool(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var req umlcalc.ToolRequest
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dec.More() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: trailing data"})
		return
	}

	tool := req.Tool
	if !slices.Contains(umlcalc.ToolNames, tool) {
		tool = "unknown"
	}
	start := time.Now()
	resp := umlcalc.HandleToolCall(req)
	s.duration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if resp.Error != "" {
		outcome = "error"
		s.logger.Debug("tool call failed", "tool", req.Tool, "kind", resp.Kind, "error", resp.Error)
	}
	s.calls.WithLabelValues(tool, outcome).Inc()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(umlcalc.ToolSpec()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) recoverPanics() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", c.Request.URL.Path, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
