package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, dim int) *MemoryStorage {
	t.Helper()
	s := NewMemoryStorage()
	require.NoError(t, s.CreateCollection(context.Background(), "c", CollectionSchema{VectorDimension: dim, Distance: DistanceCosine}))
	return s
}

func point(source string, seq int, text string, vec ...float32) Point {
	return Point{
		ID:      PointID(source, seq, text),
		Vector:  vec,
		Payload: Payload{Chunk: text, SourceID: source, Sequence: seq},
	}
}

func TestMemory_SearchOrdersBySimilarity(t *testing.T) {
	s := newTestMemory(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c", []Point{
		point("a", 0, "east", 1, 0),
		point("a", 1, "north", 0, 1),
		point("a", 2, "northeast", 1, 1),
	}))

	hits, err := s.Search(ctx, "c", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].Payload.Chunk)
	assert.Equal(t, "northeast", hits[1].Payload.Chunk)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestMemory_SearchLimitExceedsSize(t *testing.T) {
	s := newTestMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "c", []Point{point("a", 0, "x", 1, 0)}))

	hits, err := s.Search(ctx, "c", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMemory_UpsertReplacesSameID(t *testing.T) {
	s := newTestMemory(t, 2)
	ctx := context.Background()

	p := point("a", 0, "x", 1, 0)
	require.NoError(t, s.Upsert(ctx, "c", []Point{p}))
	p.Vector = []float32{0, 1}
	require.NoError(t, s.Upsert(ctx, "c", []Point{p}))

	count, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	points, err := s.Scroll(ctx, "c", 10)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, points[0].Vector)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	s := newTestMemory(t, 3)
	ctx := context.Background()

	err := s.Upsert(ctx, "c", []Point{point("a", 0, "x", 1, 0)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.Search(ctx, "c", []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemory_MissingCollection(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.Search(ctx, "nope", []float32{1}, 1)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	_, err = s.Count(ctx, "nope")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.ErrorIs(t, s.Upsert(ctx, "nope", nil), ErrCollectionNotFound)
}

func TestMemory_CreateTwiceFails(t *testing.T) {
	s := newTestMemory(t, 2)
	err := s.CreateCollection(context.Background(), "c", CollectionSchema{VectorDimension: 2})
	assert.Error(t, err)
}

func TestMemory_DeleteBySource(t *testing.T) {
	s := newTestMemory(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c", []Point{
		point("a", 0, "one", 1, 0),
		point("b", 0, "two", 0, 1),
		point("a", 1, "three", 1, 1),
	}))
	require.NoError(t, s.DeleteBySource(ctx, "c", "a"))

	points, err := s.Scroll(ctx, "c", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "two", points[0].Payload.Chunk)

	// Re-adding after delete must not collide with stale index entries.
	require.NoError(t, s.Upsert(ctx, "c", []Point{point("a", 0, "one", 1, 0)}))
	count, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestMemory_ScrollRespectsLimitAndOrder(t *testing.T) {
	s := newTestMemory(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c", []Point{
		point("a", 0, "first", 1, 0),
		point("a", 1, "second", 0, 1),
		point("a", 2, "third", 1, 1),
	}))

	points, err := s.Scroll(ctx, "c", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "first", points[0].Payload.Chunk)
	assert.Equal(t, "second", points[1].Payload.Chunk)
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("a.go", 0, "x"), PointID("a.go", 0, "x"))
	assert.NotEqual(t, PointID("a.go", 0, "x"), PointID("a.go", 1, "x"))
	assert.NotEqual(t, PointID("a.go", 0, "x"), PointID("b.go", 0, "x"))
}

func TestScore_Metrics(t *testing.T) {
	assert.InDelta(t, 1.0, score(DistanceCosine, []float32{2, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, score(DistanceCosine, []float32{0, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 2.0, score(DistanceDot, []float32{2, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, -5.0, score(DistanceEuclid, []float32{0, 0}, []float32{3, 4}), 1e-6)
}

func TestMemory_DescribeCollection(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	_, err := store.DescribeCollection(ctx, "c")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	schema := CollectionSchema{VectorDimension: 3, Distance: DistanceDot}
	require.NoError(t, store.CreateCollection(ctx, "c", schema))
	got, err := store.DescribeCollection(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, schema, got)
}
