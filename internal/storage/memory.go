package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStorage is an in-process VectorStore using brute-force similarity.
// Used for local runs without Qdrant and as the fake in tests.
type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	schema CollectionSchema
	points []Point
	index  map[string]int // point id -> position in points
}

var _ VectorStore = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{collections: make(map[string]*memCollection)}
}

func (s *MemoryStorage) Health(context.Context) error { return nil }

func (s *MemoryStorage) ListCollections(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) DescribeCollection(_ context.Context, name string) (CollectionSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return CollectionSchema{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c.schema, nil
}

func (s *MemoryStorage) CreateCollection(_ context.Context, name string, schema CollectionSchema) error {
	if schema.VectorDimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", schema.VectorDimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	s.collections[name] = &memCollection{schema: schema, index: make(map[string]int)}
	return nil
}

func (s *MemoryStorage) Upsert(_ context.Context, name string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	for i, p := range points {
		if len(p.Vector) != c.schema.VectorDimension {
			return fmt.Errorf("%w: point %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(p.Vector), c.schema.VectorDimension)
		}
	}

	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		if pos, exists := c.index[p.ID]; exists {
			c.points[pos] = p
			continue
		}
		c.index[p.ID] = len(c.points)
		c.points = append(c.points, p)
	}
	return nil
}

func (s *MemoryStorage) Search(_ context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if len(vector) != c.schema.VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), c.schema.VectorDimension)
	}

	hits := make([]ScoredPoint, len(c.points))
	for i, p := range c.points {
		hits[i] = ScoredPoint{Point: p, Score: score(c.schema.Distance, vector, p.Vector)}
	}
	// Stable so ties keep insertion order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *MemoryStorage) Scroll(_ context.Context, name string, limit int) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	n := min(limit, len(c.points))
	out := make([]Point, n)
	copy(out, c.points[:n])
	return out, nil
}

func (s *MemoryStorage) Count(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return uint64(len(c.points)), nil
}

func (s *MemoryStorage) DeleteBySource(_ context.Context, name, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	kept := c.points[:0]
	for _, p := range c.points {
		if p.Payload.SourceID != sourceID {
			kept = append(kept, p)
		}
	}
	c.points = kept

	c.index = make(map[string]int, len(kept))
	for i, p := range kept {
		c.index[p.ID] = i
	}
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// score returns a similarity where higher is better for every metric.
func score(d Distance, a, b []float32) float32 {
	switch d {
	case DistanceDot:
		return dot(a, b)
	case DistanceEuclid:
		var sum float64
		for i := range a {
			diff := float64(a[i] - b[i])
			sum += diff * diff
		}
		return -float32(math.Sqrt(sum))
	default:
		na, nb := dot(a, a), dot(b, b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
