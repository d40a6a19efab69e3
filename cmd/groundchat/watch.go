package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/groundchat/internal/watcher"
)

func newWatchCmd(c *cli) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Index files and keep them in sync until interrupted",
		Long: `Index files and keep them in sync until interrupted.

Each file is indexed once on start. Changed files are re-indexed and removed
files are dropped from the index.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d file(s), press Ctrl+C to stop\n", len(args))
			err = watcher.New(a.Indexer, debounce, c.logger).Watch(ctx, args)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before a changed file is re-indexed")
	return cmd
}
