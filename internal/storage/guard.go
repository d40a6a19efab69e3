package storage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// CollectionGuard makes sure a collection exists before it is written to or
// read from. Once the collection has been seen the check is skipped.
type CollectionGuard struct {
	store  VectorStore
	name   string
	schema CollectionSchema
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

// NewCollectionGuard creates a guard for the named collection.
func NewCollectionGuard(store VectorStore, name string, schema CollectionSchema, logger *slog.Logger) *CollectionGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionGuard{store: store, name: name, schema: schema, logger: logger}
}

// Name returns the guarded collection name.
func (g *CollectionGuard) Name() string { return g.name }

// Ensure creates the collection if it is missing. It is safe for concurrent
// use and losing a creation race to another process is not an error. An
// existing collection with another vector size fails with ErrDimensionMismatch.
func (g *CollectionGuard) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ready {
		return nil
	}

	exists, err := g.exists(ctx)
	if err != nil {
		return err
	}
	created := false
	if !exists {
		g.logger.Info("creating collection", "collection", g.name, "dimension", g.schema.VectorDimension)
		if err := g.store.CreateCollection(ctx, g.name, g.schema); err != nil {
			// Someone else may have created it in between.
			exists, checkErr := g.exists(ctx)
			if checkErr != nil || !exists {
				return fmt.Errorf("failed to create collection %s: %w", g.name, err)
			}
			g.logger.Debug("collection created concurrently", "collection", g.name)
		} else {
			created = true
		}
	}

	if !created {
		if err := g.checkSchema(ctx); err != nil {
			return err
		}
	}

	g.ready = true
	return nil
}

// Reset forgets the cached result so the next Ensure checks the store again.
func (g *CollectionGuard) Reset() {
	g.mu.Lock()
	g.ready = false
	g.mu.Unlock()
}

func (g *CollectionGuard) checkSchema(ctx context.Context) error {
	got, err := g.store.DescribeCollection(ctx, g.name)
	if err != nil {
		return fmt.Errorf("failed to describe collection %s: %w", g.name, err)
	}
	if got.VectorDimension != g.schema.VectorDimension {
		return fmt.Errorf("%w: collection %s stores %d dimensions, embedder produces %d",
			ErrDimensionMismatch, g.name, got.VectorDimension, g.schema.VectorDimension)
	}
	if got.Distance != g.schema.Distance && g.schema.Distance != "" {
		g.logger.Warn("collection distance differs from config",
			"collection", g.name, "stored", got.Distance, "configured", g.schema.Distance)
	}
	return nil
}

func (g *CollectionGuard) exists(ctx context.Context) (bool, error) {
	names, err := g.store.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return slices.Contains(names, g.name), nil
}
