package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the Streamable HTTP endpoint.
type HTTPHandlerOptions struct {
	// Stateless skips MCP session tracking; every request stands alone.
	// Chat sessions are unaffected, they are keyed by the session_id argument.
	Stateless bool
}

// NewHTTPHandler serves s over MCP Streamable HTTP. The api router mounts it
// at /mcp. A nil opts keeps stateful MCP sessions.
func NewHTTPHandler(s *Server, opts *HTTPHandlerOptions) http.Handler {
	var stateless bool
	if opts != nil {
		stateless = opts.Stateless
	}

	getServer := func(*http.Request) *mcp.Server { return s.server }
	return mcp.NewStreamableHTTPHandler(getServer, &mcp.StreamableHTTPOptions{Stateless: stateless})
}
