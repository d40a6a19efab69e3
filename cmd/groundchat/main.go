// Package main provides the groundchat CLI: index files, ask questions about
// them, manage chat sessions and run the HTTP/MCP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bull/groundchat/internal/app"
	"github.com/bull/groundchat/internal/config"
	"github.com/bull/groundchat/internal/logger"
)

const rootLongDesc = `groundchat answers questions about your own files.

Files and snippets are chunked, embedded and stored in a vector store. Each
question is answered from the most relevant chunks (or a summary of all of
them), and answers that do not appear to come from those chunks are flagged.

Configuration is read from groundchat.toml or groundchat.yaml in the working
directory or ~/.groundchat, and every key can be overridden with a
GROUNDCHAT_ environment variable, e.g. GROUNDCHAT_STORAGE_PROVIDER=memory.

Environment variables:
  GROQ_API_KEY       API key for the default language model (Groq)
  ANTHROPIC_API_KEY  API key when llm.provider is anthropic
  OPENAI_API_KEY     API key when embedding.provider is openai
  GITHUB_TOKEN       GitHub token for higher rate limits (optional)`

// cli carries state shared by every subcommand once flags are parsed.
type cli struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "groundchat",
		Short:         "Grounded Q&A over your own files",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "Path to config file")
	flags.BoolP("debug", "d", false, "Enable debug logging")
	flags.String("log-format", "", "Log format: text, json or pretty")
	flags.String("storage", "", "Vector store: qdrant or memory")
	flags.String("history", "", "Conversation log: bolt, redis or memory")

	cmd.AddCommand(
		newIndexCmd(c),
		newSnippetCmd(c),
		newAskCmd(c),
		newChatCmd(c),
		newFilesCmd(c),
		newDeleteCmd(c),
		newHistoryCmd(c),
		newClearCmd(c),
		newSessionsCmd(c),
		newWatchCmd(c),
		newStatusCmd(c),
		newServeCmd(c),
	)
	return cmd
}

// load resolves the configuration and the logger. Flags that were set on the
// command line win over every other source.
func (c *cli) load(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithFormat(cfg.Log.Format),
	)
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"log.debug":        "debug",
		"log.format":       "log-format",
		"storage.provider": "storage",
		"history.provider": "history",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// build wires the application for one command run.
func (c *cli) build(ctx context.Context) (*app.App, error) {
	return app.Build(ctx, c.cfg, c.logger)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
