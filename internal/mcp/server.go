package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/indexer"
)

// StatsSource reports the state of the index. *indexer.Indexer implements it.
type StatsSource interface {
	Stats(ctx context.Context) (*indexer.Stats, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	assistant *assistant.Manager
	logger    *slog.Logger
}

// Config holds server dependencies.
type Config struct {
	Assistant *assistant.Manager
	Stats     StatsSource
	Logger    *slog.Logger
	Version   string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Stats == nil {
		return nil, errors.New("stats source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "groundchat",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question in a chat session. The answer is grounded on the uploaded files and snippets and carries a warning when it may not be.",
	}, makeAskHandler(cfg.Assistant, logger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upload_file",
		Description: "Add a text file to the context. Uploading an existing name replaces it. Returns the chunk count and, for markdown, the heading outline.",
	}, makeUploadHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "paste_snippet",
		Description: "Add a code or text snippet to the context.",
	}, makePasteHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_file",
		Description: "Remove a file and all of its chunks from the context.",
	}, makeDeleteHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List the names of all files in the context.",
	}, makeListHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Get the conversation of a chat session, oldest turn first.",
	}, makeHistoryHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Delete every turn of a chat session.",
	}, makeClearHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Get the state of the index: collection, chunk count, files and number of stored sessions.",
	}, makeStatusHandler(cfg.Assistant, cfg.Stats))

	return &Server{
		server:    server,
		assistant: cfg.Assistant,
		logger:    logger,
	}, nil
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting groundchat MCP server (stdio mode)")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
