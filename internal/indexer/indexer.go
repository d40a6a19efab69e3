// Package indexer turns artifacts into stored vectors: chunk, embed, upsert.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/groundchat/internal/chunker"
	"github.com/bull/groundchat/internal/embedding"
	"github.com/bull/groundchat/internal/markdown"
	"github.com/bull/groundchat/internal/storage"
)

// DefaultScanLimit bounds how many points Sources and Stats look at.
const DefaultScanLimit = 1000

// Result describes one indexed artifact.
type Result struct {
	SourceID string
	Chunks   int
	Duration time.Duration
	Outline  []markdown.Heading // Set for markdown artifacts only
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Collection string
	Points     uint64
	Sources    []string
}

// Options tune chunking.
type Options struct {
	MaxChunkChars int
}

// Indexer orchestrates chunking, embedding and storage for uploaded artifacts.
type Indexer struct {
	store         storage.VectorStore
	guard         *storage.CollectionGuard
	embedder      embedding.Embedder
	maxChunkChars int
	logger        *slog.Logger
}

// New creates an indexer writing into the collection managed by guard.
func New(
	store storage.VectorStore,
	guard *storage.CollectionGuard,
	embedder embedding.Embedder,
	opts Options,
	logger *slog.Logger,
) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxChunkChars <= 0 {
		opts.MaxChunkChars = chunker.DefaultMaxChunkChars
	}
	return &Indexer{
		store:         store,
		guard:         guard,
		embedder:      embedder,
		maxChunkChars: opts.MaxChunkChars,
		logger:        logger,
	}
}

// Index chunks content, embeds every chunk and upserts it under sourceID.
// Chunks stored before a failure stay stored.
func (ix *Indexer) Index(ctx context.Context, sourceID, content string) (*Result, error) {
	start := time.Now()

	if err := ix.ensure(ctx); err != nil {
		return nil, err
	}

	chunks := chunker.Chunks(sourceID, content, ix.maxChunkChars)
	ix.logger.Debug("Chunked artifact", "source", sourceID, "chunks", len(chunks))

	for _, c := range chunks {
		vec, err := ix.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d of %s: %w", ErrEmbeddingFailed, c.Sequence, sourceID, err)
		}

		point := storage.Point{
			ID:     storage.PointID(c.SourceID, c.Sequence, c.Text),
			Vector: vec,
			Payload: storage.Payload{
				Chunk:    c.Text,
				SourceID: c.SourceID,
				Sequence: c.Sequence,
			},
		}
		if err := ix.store.Upsert(ctx, ix.guard.Name(), []storage.Point{point}); err != nil {
			if errors.Is(err, storage.ErrCollectionNotFound) {
				ix.guard.Reset()
			}
			return nil, fmt.Errorf("%w: chunk %d of %s: %w", ErrStoreUnavailable, c.Sequence, sourceID, err)
		}
	}

	result := &Result{
		SourceID: sourceID,
		Chunks:   len(chunks),
		Duration: time.Since(start),
	}

	if markdown.IsMarkdown(sourceID) {
		outline, err := markdown.Outline([]byte(content))
		if err != nil {
			ix.logger.Warn("Outline extraction failed", "source", sourceID, "error", err)
		}
		result.Outline = outline
	}

	ix.logger.Info("Indexed artifact", "source", sourceID, "chunks", result.Chunks, "duration", result.Duration)
	return result, nil
}

// IndexSnippet stores pasted text under the shared snippet source.
func (ix *Indexer) IndexSnippet(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyArtifact
	}
	return ix.Index(ctx, chunker.SnippetSource, text)
}

// DeleteBySource removes every point of an artifact. Unknown sources are a no-op.
func (ix *Indexer) DeleteBySource(ctx context.Context, sourceID string) error {
	if err := ix.ensure(ctx); err != nil {
		return err
	}
	if err := ix.store.DeleteBySource(ctx, ix.guard.Name(), sourceID); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStoreUnavailable, sourceID, err)
	}
	ix.logger.Info("Deleted artifact", "source", sourceID)
	return nil
}

// Sources lists distinct source ids in storage order, looking at no more than
// DefaultScanLimit points.
func (ix *Indexer) Sources(ctx context.Context) ([]string, error) {
	if err := ix.ensure(ctx); err != nil {
		return nil, err
	}

	points, err := ix.store.Scroll(ctx, ix.guard.Name(), DefaultScanLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: scroll: %w", ErrStoreUnavailable, err)
	}

	seen := make(map[string]bool)
	var sources []string
	for _, p := range points {
		if id := p.Payload.SourceID; id != "" && !seen[id] {
			seen[id] = true
			sources = append(sources, id)
		}
	}
	return sources, nil
}

// Stats reports the point count and known sources of the collection.
func (ix *Indexer) Stats(ctx context.Context) (*Stats, error) {
	sources, err := ix.Sources(ctx)
	if err != nil {
		return nil, err
	}

	count, err := ix.store.Count(ctx, ix.guard.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: count: %w", ErrStoreUnavailable, err)
	}

	return &Stats{Collection: ix.guard.Name(), Points: count, Sources: sources}, nil
}

// ensure prepares the collection. A dimension mismatch is a configuration
// problem and is returned as is rather than as ErrStoreUnavailable.
func (ix *Indexer) ensure(ctx context.Context) error {
	if err := ix.guard.Ensure(ctx); err != nil {
		if errors.Is(err, storage.ErrDimensionMismatch) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
