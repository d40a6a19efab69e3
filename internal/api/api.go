// Package api serves the assistant over HTTP: REST routes under /api, the
// health check and the MCP Streamable HTTP endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/indexer"
)

// StatsSource reports the state of the index. *indexer.Indexer implements it.
type StatsSource interface {
	Stats(ctx context.Context) (*indexer.Stats, error)
}

// Config holds router dependencies. MCP is optional.
type Config struct {
	Assistant *assistant.Manager
	Stats     StatsSource
	Health    HealthChecker
	MCP       http.Handler
	Logger    *slog.Logger
}

// NewRouter builds the HTTP handler for every route.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Stats == nil {
		return nil, errors.New("stats source is required")
	}
	if cfg.Health == nil {
		return nil, errors.New("health checker is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", NewLandingHandler())
	r.Get("/health", NewHealthHandler(cfg.Health))
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	h := &handlers{m: cfg.Assistant, stats: cfg.Stats, logger: logger}
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.listSessions)
			r.Post("/{id}/ask", h.ask)
			r.Get("/{id}/history", h.history)
			r.Delete("/{id}/history", h.clearHistory)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", h.listFiles)
			r.Post("/", h.uploadFile)
			r.Delete("/*", h.deleteFile)
		})

		r.Post("/snippets", h.pasteSnippet)
	})

	return r, nil
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
