package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/groundchat/internal/api"
	"github.com/bull/groundchat/internal/app"
	mcpserver "github.com/bull/groundchat/internal/mcp"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vector store health and index contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if err := a.Store.Health(ctx); err != nil {
				fmt.Fprintf(out, "Vector store: unhealthy (%v)\n", err)
				return err
			}
			fmt.Fprintf(out, "Vector store: %s, healthy\n", c.cfg.Storage.Provider)

			st, err := a.Indexer.Stats(ctx)
			if err != nil {
				return err
			}
			sessions, err := a.Manager.Sessions(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Collection:   %s\n", st.Collection)
			fmt.Fprintf(out, "Chunks:       %d\n", st.Points)
			fmt.Fprintf(out, "Files:        %d\n", len(st.Sources))
			fmt.Fprintf(out, "Sessions:     %d\n", len(sessions))
			return nil
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var (
		listen    string
		stdio     bool
		stateless bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP endpoint",
		Long: `Serve the REST API and MCP endpoint.

Routes:
  /api/...  REST API (sessions, files, snippets, status)
  /mcp      MCP Streamable HTTP
  /health   Health check

With --stdio the MCP server speaks over stdin/stdout instead and the HTTP
server only serves the health check and REST API in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = c.cfg.Server.Listen
			}

			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, c, a, listen, stdio, stateless)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default: server.listen)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "Run MCP over stdio")
	cmd.Flags().BoolVar(&stateless, "stateless", false, "Disable MCP HTTP session management")
	return cmd
}

func serve(ctx context.Context, c *cli, a *app.App, listen string, stdio, stateless bool) error {
	server, err := mcpserver.NewServer(&mcpserver.Config{
		Assistant: a.Manager,
		Stats:     a.Indexer,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	router, err := api.NewRouter(api.Config{
		Assistant: a.Manager,
		Stats:     a.Indexer,
		Health:    a.Store,
		MCP:       mcpserver.NewHTTPHandler(server, &mcpserver.HTTPHandlerOptions{Stateless: stateless}),
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("Starting HTTP server", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if stdio {
		runErr := server.Run(ctx)
		shutdown(srv, c)
		return runErr
	}

	select {
	case <-ctx.Done():
		shutdown(srv, c)
		return nil
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

func shutdown(srv *http.Server, c *cli) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		c.logger.Warn("HTTP server shutdown", "error", err)
	}
}
