package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bull/groundchat/internal/app"
	"github.com/bull/groundchat/internal/github"
	"github.com/bull/groundchat/internal/indexer"
	"github.com/bull/groundchat/internal/watcher"
)

// artifact is one piece of text to index.
type artifact struct {
	name    string
	content string
}

// indexOutcome is the result for one artifact; err is set when it failed.
type indexOutcome struct {
	name   string
	result *indexer.Result
	err    error
}

func newIndexCmd(c *cli) *cobra.Command {
	var (
		refs        []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "Index local files and GitHub paths",
		Long: `Index local files and GitHub paths.

Each file is stored under its base name; indexing a name again replaces it.
GitHub paths are given as owner/repo/path[@ref] or as a github.com blob/tree
URL. Directories are fetched recursively, keeping text files only.`,
		Example: `  groundchat index README.md docs/guide.md
  groundchat index --github cloudwego/eino/README.md
  groundchat index --github https://github.com/cloudwego/eino/tree/main/docs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(refs) == 0 {
				return errors.New("nothing to index: pass files or --github paths")
			}

			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			artifacts, err := collectArtifacts(ctx, a, args, refs)
			if err != nil {
				return err
			}
			return reportIndexed(cmd.OutOrStdout(), indexAll(ctx, a, artifacts, concurrency))
		},
	}

	cmd.Flags().StringSliceVarP(&refs, "github", "g", nil, "GitHub path to index (repeatable)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Artifacts indexed in parallel")
	return cmd
}

func collectArtifacts(ctx context.Context, a *app.App, files, refs []string) ([]artifact, error) {
	artifacts := make([]artifact, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		artifacts = append(artifacts, artifact{name: watcher.SourceID(path), content: string(data)})
	}

	if len(refs) > 0 && a.GitHub == nil {
		return nil, errors.New("github client is not available")
	}
	for _, raw := range refs {
		ref, err := github.ParseRef(raw)
		if err != nil {
			return nil, err
		}
		fetched, err := a.GitHub.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ref, err)
		}
		for _, f := range fetched {
			artifacts = append(artifacts, artifact{name: f.Name, content: f.Content})
		}
	}
	return artifacts, nil
}

// indexAll indexes artifacts concurrently. One failing artifact does not stop
// the others; each outcome carries its own error.
func indexAll(ctx context.Context, a *app.App, artifacts []artifact, concurrency int) []indexOutcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	outcomes := make([]indexOutcome, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, art := range artifacts {
		g.Go(func() error {
			res, err := a.Manager.Replace(gctx, art.name, art.content)
			outcomes[i] = indexOutcome{name: art.name, result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func reportIndexed(w io.Writer, outcomes []indexOutcome) error {
	var failed int
	var chunks int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(w, "  x %s: %v\n", o.name, o.err)
			continue
		}
		chunks += o.result.Chunks
		fmt.Fprintf(w, "  ok %s (%d chunks, %s)\n", o.name, o.result.Chunks, o.result.Duration.Round(time.Millisecond))
		for _, h := range o.result.Outline {
			fmt.Fprintf(w, "      %s\n", h.Path)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Indexed %d/%d artifacts, %d chunks\n", len(outcomes)-failed, len(outcomes), chunks)
	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed", failed, len(outcomes))
	}
	return nil
}

func newSnippetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snippet [text]",
		Short: "Index a pasted snippet (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("snippet is empty")
			}

			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Manager.Paste(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed snippet (%d chunks)\n", res.Chunks)
			return nil
		},
	}
}
