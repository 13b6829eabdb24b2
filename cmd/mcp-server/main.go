// Command mcp-server exposes the umlcalc tools as an HTTP endpoint for agent
// frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -addr 127.0.0.1:8080
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/njchilds90/umlcalc/internal/config"
	"github.com/njchilds90/umlcalc/internal/logging"
	"github.com/njchilds90/umlcalc/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "Path to the config file (default ~/.umlcalc/config.yaml)")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "umlcalc-mcp",
	})
	defer logger.Close()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(server.Options{Logger: logger}).Run(ctx, cfg.Server.Addr)
}
