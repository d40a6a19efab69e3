// Package prompt decides how retrieved context is merged into the prompt sent
// to the language model.
package prompt

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bull/groundchat/internal/storage"
)

// Mode is the prompt construction path chosen for a query.
type Mode string

const (
	ModeRaw       Mode = "raw"       // No context, the query is sent as is
	ModeSummarize Mode = "summarize" // Whole corpus
	ModeTargeted  Mode = "targeted"  // Top-K chunks
)

var summaryTriggers = []string{
	"summarize",
	"summary",
	"summarise",
	"give me a summary",
	"what is this file about",
	"explain this file",
}

// Classify picks ModeSummarize when the query asks for a summary and
// ModeTargeted otherwise. It never returns ModeRaw.
func Classify(query string) Mode {
	q := strings.ToLower(query)
	for _, kw := range summaryTriggers {
		if strings.Contains(q, kw) {
			return ModeSummarize
		}
	}
	return ModeTargeted
}

// ContextSource is what the policy needs from the retriever.
type ContextSource interface {
	HasContext(ctx context.Context) (bool, error)
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
	All(ctx context.Context, limit int) ([]string, error)
}

// Prompt is the rendered model input and the chunks it was grounded on.
type Prompt struct {
	Text   string
	Mode   Mode
	Chunks []string // Retrieved top-K, used by the groundedness check
}

// Options tune retrieval sizes. Zero values use the retriever defaults.
type Options struct {
	TopK        int
	ScrollLimit int
}

// Policy builds prompts from a query and the indexed corpus.
type Policy struct {
	source ContextSource
	opts   Options
	logger *slog.Logger
}

// NewPolicy creates a prompt policy over source.
func NewPolicy(source ContextSource, opts Options, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{source: source, opts: opts, logger: logger}
}

// Build renders the prompt for query. Retrieval problems degrade to a
// context-free prompt; only cancellation of ctx and a collection built with
// another embedder are returned as errors.
func (p *Policy) Build(ctx context.Context, query string) (*Prompt, error) {
	raw := &Prompt{Text: query, Mode: ModeRaw}

	ok, err := p.source.HasContext(ctx)
	if err != nil {
		if err := fatal(ctx, err); err != nil {
			return nil, err
		}
		p.logger.Warn("Context check failed, answering without context", "error", err)
		return raw, nil
	}
	if !ok {
		return raw, nil
	}

	chunks, err := p.source.Retrieve(ctx, query, p.opts.TopK)
	if err != nil {
		if err := fatal(ctx, err); err != nil {
			return nil, err
		}
		p.logger.Warn("Retrieval failed, answering without context", "error", err)
		return raw, nil
	}
	if len(chunks) == 0 {
		return raw, nil
	}

	result := &Prompt{Mode: Classify(query), Chunks: chunks}

	switch result.Mode {
	case ModeSummarize:
		all, err := p.source.All(ctx, p.opts.ScrollLimit)
		if err != nil {
			if err := fatal(ctx, err); err != nil {
				return nil, err
			}
			p.logger.Error("Error retrieving all chunks for summary", "error", err)
			result.Text = query
			return result, nil
		}
		result.Text = SummarizePrompt(query, all)
	default:
		result.Text = TargetedPrompt(query, chunks)
	}

	p.logger.Debug("Built prompt", "mode", result.Mode, "chunks", len(chunks))
	return result, nil
}

// fatal returns the error Build must not hide behind a raw prompt, or nil.
func fatal(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, storage.ErrDimensionMismatch) {
		return err
	}
	return nil
}
