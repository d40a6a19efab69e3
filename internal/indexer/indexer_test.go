package indexer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/groundchat/internal/storage"
	"github.com/bull/groundchat/internal/testutil"
)

type fixture struct {
	store    *storage.MemoryStorage
	embedder *testutil.StubEmbedder
	indexer  *Indexer
}

func newFixture(t *testing.T, maxChunk int) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	embedder := testutil.NewStubEmbedder()
	guard := storage.NewCollectionGuard(store, "test", storage.CollectionSchema{
		VectorDimension: embedder.Dimension(),
		Distance:        storage.DistanceCosine,
	}, nil)
	return &fixture{
		store:    store,
		embedder: embedder,
		indexer:  New(store, guard, embedder, Options{MaxChunkChars: maxChunk}, nil),
	}
}

func (f *fixture) points(t *testing.T) []storage.Point {
	t.Helper()
	points, err := f.store.Scroll(context.Background(), "test", 1000)
	require.NoError(t, err)
	return points
}

func TestIndex_StoresEveryChunk(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()

	result, err := f.indexer.Index(ctx, "notes.txt", "alpha beta\ngamma delta\nepsilon\n")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", result.SourceID)
	assert.Equal(t, 3, result.Chunks)
	assert.Nil(t, result.Outline)

	points := f.points(t)
	require.Len(t, points, 3)
	for i, p := range points {
		assert.Equal(t, "notes.txt", p.Payload.SourceID)
		assert.Equal(t, i, p.Payload.Sequence)
		assert.Equal(t, storage.PointID("notes.txt", i, p.Payload.Chunk), p.ID)
		assert.Len(t, p.Vector, f.embedder.Dimension())
	}
	assert.Equal(t, "alpha beta\n", points[0].Payload.Chunk)
}

func TestIndex_ReindexOverwrites(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.indexer.Index(ctx, "a.txt", "same content\n")
	require.NoError(t, err)
	_, err = f.indexer.Index(ctx, "a.txt", "same content\n")
	require.NoError(t, err)

	assert.Len(t, f.points(t), 1)
}

func TestIndex_CreatesCollectionWithEmbedderDimension(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.indexer.Index(ctx, "a.txt", "")
	require.NoError(t, err)

	names, err := f.store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, names)
}

func TestIndex_EmbeddingFailureKeepsEarlierChunks(t *testing.T) {
	f := newFixture(t, 6)
	f.embedder.FailOn = "two\n"

	_, err := f.indexer.Index(context.Background(), "a.txt", "one\ntwo\nthree\n")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)

	points := f.points(t)
	require.Len(t, points, 1)
	assert.Equal(t, "one\n", points[0].Payload.Chunk)
}

func TestIndex_MarkdownOutline(t *testing.T) {
	f := newFixture(t, 0)

	result, err := f.indexer.Index(context.Background(), "README.md", "# Title\n\n## Setup\n\ntext\n")
	require.NoError(t, err)
	require.Len(t, result.Outline, 2)
	assert.Equal(t, "# Title > ## Setup", result.Outline[1].Path)
}

func TestIndex_StoreUnavailable(t *testing.T) {
	store := &failingStore{MemoryStorage: storage.NewMemoryStorage()}
	embedder := testutil.NewStubEmbedder()
	guard := storage.NewCollectionGuard(store, "test", storage.CollectionSchema{VectorDimension: embedder.Dimension()}, nil)
	ix := New(store, guard, embedder, Options{}, nil)

	_, err := ix.Index(context.Background(), "a.txt", "hello\n")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, storage.ErrQdrantUnreachable)

	err = ix.DeleteBySource(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestIndex_MissingCollectionIsRecheckedNextTime(t *testing.T) {
	store := &droppedStore{MemoryStorage: storage.NewMemoryStorage(), drops: 1}
	embedder := testutil.NewStubEmbedder()
	guard := storage.NewCollectionGuard(store, "test", storage.CollectionSchema{VectorDimension: embedder.Dimension()}, nil)
	ix := New(store, guard, embedder, Options{}, nil)
	ctx := context.Background()

	_, err := ix.Index(ctx, "a.txt", "hello\n")
	require.ErrorIs(t, err, storage.ErrCollectionNotFound)
	assert.Equal(t, 1, store.lists)

	_, err = ix.Index(ctx, "a.txt", "hello\n")
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
}

func TestIndexSnippet(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.indexer.IndexSnippet(ctx, "  \n\t")
	assert.ErrorIs(t, err, ErrEmptyArtifact)
	assert.Empty(t, f.embedder.Calls())

	result, err := f.indexer.IndexSnippet(ctx, "func main() {}")
	require.NoError(t, err)
	assert.Equal(t, "snippet", result.SourceID)
	assert.Equal(t, "snippet", f.points(t)[0].Payload.SourceID)
}

func TestDeleteBySource(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.indexer.Index(ctx, "a.txt", "from a\n")
	require.NoError(t, err)
	_, err = f.indexer.Index(ctx, "b.txt", "from b\n")
	require.NoError(t, err)

	require.NoError(t, f.indexer.DeleteBySource(ctx, "a.txt"))
	require.NoError(t, f.indexer.DeleteBySource(ctx, "missing.txt"))

	sources, err := f.indexer.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, sources)
}

func TestSourcesAndStats(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	_, err := f.indexer.Index(ctx, "a.txt", strings.Repeat("line\n", 5))
	require.NoError(t, err)
	_, err = f.indexer.IndexSnippet(ctx, "x := 1")
	require.NoError(t, err)

	stats, err := f.indexer.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", stats.Collection)
	assert.Equal(t, []string{"a.txt", "snippet"}, stats.Sources)
	assert.Equal(t, uint64(4), stats.Points)
}

// failingStore rejects every write as if Qdrant were down.
type failingStore struct {
	*storage.MemoryStorage
}

func (failingStore) Upsert(context.Context, string, []storage.Point) error {
	return storage.ErrQdrantUnreachable
}

func (failingStore) DeleteBySource(context.Context, string, string) error {
	return storage.ErrQdrantUnreachable
}

// droppedStore fails the first upserts as if the collection had been removed.
type droppedStore struct {
	*storage.MemoryStorage
	drops int
	lists int
}

func (d *droppedStore) ListCollections(ctx context.Context) ([]string, error) {
	d.lists++
	return d.MemoryStorage.ListCollections(ctx)
}

func (d *droppedStore) Upsert(ctx context.Context, name string, points []storage.Point) error {
	if d.drops > 0 {
		d.drops--
		return storage.ErrCollectionNotFound
	}
	return d.MemoryStorage.Upsert(ctx, name, points)
}
