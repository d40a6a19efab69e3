// Package main provides the standalone MCP server entry point for groundchat.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/groundchat/internal/api"
	"github.com/bull/groundchat/internal/app"
	"github.com/bull/groundchat/internal/config"
	"github.com/bull/groundchat/internal/logger"
	mcpserver "github.com/bull/groundchat/internal/mcp"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	v, err := config.InitViper(os.Getenv("GROUNDCHAT_CONFIG"))
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// stdout carries the MCP stream in stdio mode, so logs always go to stderr.
	lg := logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithFormat(cfg.Log.Format),
		logger.WithWriter(os.Stderr),
	)

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	server, err := mcpserver.NewServer(&mcpserver.Config{
		Assistant: a.Manager,
		Stats:     a.Indexer,
		Logger:    lg,
	})
	if err != nil {
		log.Fatalf("failed to create MCP server: %v", err)
	}

	router, err := api.NewRouter(api.Config{
		Assistant: a.Manager,
		Stats:     a.Indexer,
		Health:    a.Store,
		MCP:       mcpserver.NewHTTPHandler(server, nil),
		Logger:    lg,
	})
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}

	addr := cfg.Server.Listen
	if port := os.Getenv("PORT"); port != "" {
		addr = "0.0.0.0:" + port
	}

	// Check if running in server mode (HTTP) or stdio mode (local development)
	if os.Getenv("SERVER_MODE") == "true" {
		lg.Info("Starting HTTP server (MCP at /mcp, health at /health)", "addr", addr)
		if err := http.ListenAndServe(addr, router); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: run MCP server over stdin/stdout for local clients
	// Also start HTTP endpoints in background for local testing
	go func() {
		lg.Info("Starting health server", "addr", addr)
		if err := http.ListenAndServe(addr, router); err != nil {
			lg.Warn("Health server error", "error", err)
		}
	}()

	if err := server.Run(ctx); err != nil {
		lg.Error("server error", "error", err)
		a.Close()
		os.Exit(1)
	}
}
