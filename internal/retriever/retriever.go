// Package retriever finds the stored chunks most similar to a query.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bull/groundchat/internal/embedding"
	"github.com/bull/groundchat/internal/storage"
)

const (
	// DefaultTopK is how many chunks Retrieve returns when topK <= 0.
	DefaultTopK = 3

	// DefaultScrollLimit bounds the full-corpus fetch used for summaries.
	DefaultScrollLimit = 1000
)

// ErrServiceUnavailable means the embedder or the vector store could not be reached.
var ErrServiceUnavailable = errors.New("retrieval service unavailable")

// Retriever embeds queries and searches the guarded collection.
type Retriever struct {
	store    storage.VectorStore
	guard    *storage.CollectionGuard
	embedder embedding.Embedder
	logger   *slog.Logger
}

// New creates a retriever. embedder must be the one used for indexing.
func New(store storage.VectorStore, guard *storage.CollectionGuard, embedder embedding.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, guard: guard, embedder: embedder, logger: logger}
}

// Retrieve returns the text of the topK chunks nearest to query, best first.
// A fresh collection yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrServiceUnavailable, err)
	}

	hits, err := r.store.Search(ctx, r.guard.Name(), vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrServiceUnavailable, err)
	}

	chunks := make([]string, len(hits))
	for i, h := range hits {
		chunks[i] = h.Payload.Chunk
	}
	r.logger.Debug("Retrieved chunks", "query", query, "count", len(chunks))
	return chunks, nil
}

// HasContext reports whether anything is indexed. An empty or missing
// collection is (false, nil); an unreachable store is (false, ErrServiceUnavailable).
// A collection built with another embedder fails with storage.ErrDimensionMismatch.
func (r *Retriever) HasContext(ctx context.Context) (bool, error) {
	names, err := r.store.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	found := false
	for _, name := range names {
		if name == r.guard.Name() {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	if err := r.ensure(ctx); err != nil {
		return false, err
	}

	count, err := r.store.Count(ctx, r.guard.Name())
	if err != nil {
		if errors.Is(err, storage.ErrCollectionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return count > 0, nil
}

// All returns up to limit stored chunks in storage order.
func (r *Retriever) All(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultScrollLimit
	}

	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	points, err := r.store.Scroll(ctx, r.guard.Name(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: scroll: %w", ErrServiceUnavailable, err)
	}

	chunks := make([]string, len(points))
	for i, p := range points {
		chunks[i] = p.Payload.Chunk
	}
	return chunks, nil
}

func (r *Retriever) ensure(ctx context.Context) error {
	if err := r.guard.Ensure(ctx); err != nil {
		if errors.Is(err, storage.ErrDimensionMismatch) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return nil
}
