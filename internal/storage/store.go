package storage

import "context"

// VectorStore is the collection-oriented contract the indexer and retriever
// depend on. QdrantStorage and MemoryStorage implement it.
type VectorStore interface {
	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// DescribeCollection returns the schema of an existing collection.
	DescribeCollection(ctx context.Context, name string) (CollectionSchema, error)

	// CreateCollection creates a collection with the given schema.
	// Creating a collection that already exists is an error.
	CreateCollection(ctx context.Context, name string, schema CollectionSchema) error

	// Upsert writes points, replacing any existing point with the same ID.
	Upsert(ctx context.Context, name string, points []Point) error

	// Search returns up to limit points nearest to vector, best first.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error)

	// Scroll returns up to limit points in storage order.
	Scroll(ctx context.Context, name string, limit int) ([]Point, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, name string) (uint64, error)

	// DeleteBySource removes all points whose payload source matches sourceID.
	DeleteBySource(ctx context.Context, name, sourceID string) error

	// Close releases the underlying connection.
	Close() error
}
