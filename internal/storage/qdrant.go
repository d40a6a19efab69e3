package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Payload field names as stored in Qdrant.
const (
	fieldChunk    = "chunk"
	fieldSourceID = "source_id"
	fieldSequence = "sequence"
)

// QdrantConfig holds connection settings for the Qdrant gRPC endpoint.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client *qdrant.Client
	host   string
	port   int

	mu   sync.RWMutex
	dims map[string]int // collection -> vector dimension, when known
}

var _ VectorStore = (*QdrantStorage)(nil)

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(ctx context.Context, cfg QdrantConfig) (*QdrantStorage, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		host:   cfg.Host,
		port:   cfg.Port,
		dims:   make(map[string]int),
	}

	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// ListCollections returns the names of all collections.
func (s *QdrantStorage) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list collections: %w", err), err)
	}
	return names, nil
}

// DescribeCollection reads the vector size and distance of an existing
// collection and remembers the size for later dimension checks.
func (s *QdrantStorage) DescribeCollection(ctx context.Context, name string) (CollectionSchema, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return CollectionSchema{}, classify(fmt.Errorf("failed to get collection info: %w", err), err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return CollectionSchema{}, fmt.Errorf("collection %s has no unnamed vector config", name)
	}

	schema := CollectionSchema{
		VectorDimension: int(params.GetSize()),
		Distance:        fromQdrantDistance(params.GetDistance()),
	}

	s.mu.Lock()
	s.dims[name] = schema.VectorDimension
	s.mu.Unlock()

	return schema, nil
}

// CreateCollection creates an unnamed-vector collection and a keyword index on the
// source field so delete-by-source stays cheap.
func (s *QdrantStorage) CreateCollection(ctx context.Context, name string, schema CollectionSchema) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(schema.VectorDimension),
			Distance: toQdrantDistance(schema.Distance),
		}),
	})
	if err != nil {
		return classify(fmt.Errorf("failed to create collection: %w", err), err)
	}

	s.mu.Lock()
	s.dims[name] = schema.VectorDimension
	s.mu.Unlock()

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      fieldSourceID,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field %s: %w", fieldSourceID, err)
	}

	return nil
}

// Upsert stores points in batches of 100, retrying each batch with backoff.
func (s *QdrantStorage) Upsert(ctx context.Context, name string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	for i, p := range points {
		if err := s.checkDimension(name, len(p.Vector)); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}

	batchSize := 100
	for i := 0; i < len(points); i += batchSize {
		end := min(i+batchSize, len(points))

		batch := make([]*qdrant.PointStruct, 0, end-i)
		for _, p := range points[i:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					fieldChunk:    p.Payload.Chunk,
					fieldSourceID: p.Payload.SourceID,
					fieldSequence: p.Payload.Sequence,
				}),
			})
		}

		if err := s.upsertWithRetry(ctx, name, batch); err != nil {
			return classify(fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err), err)
		}
	}

	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, name string, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
}

// Search performs vector similarity search and returns hits ordered by score descending.
func (s *QdrantStorage) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	if err := s.checkDimension(name, len(vector)); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to search points: %w", err), err)
	}

	hits := make([]ScoredPoint, 0, len(results))
	for _, result := range results {
		payload, err := decodePayload(result.Payload)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", result.Id.GetUuid(), err)
		}
		hits = append(hits, ScoredPoint{
			Point: Point{ID: result.Id.GetUuid(), Payload: payload},
			Score: result.Score,
		})
	}

	return hits, nil
}

// Scroll fetches up to limit points without a query vector.
// Pages through the collection 100 points at a time.
func (s *QdrantStorage) Scroll(ctx context.Context, name string, limit int) ([]Point, error) {
	var points []Point
	var offset *qdrant.PointId

	for len(points) < limit {
		pageSize := uint32(min(100, limit-len(points)))

		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: name,
			Limit:          qdrant.PtrOf(pageSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, classify(fmt.Errorf("failed to scroll points: %w", err), err)
		}

		for _, result := range results {
			payload, err := decodePayload(result.Payload)
			if err != nil {
				return nil, fmt.Errorf("point %s: %w", result.Id.GetUuid(), err)
			}
			points = append(points, Point{ID: result.Id.GetUuid(), Payload: payload})
		}

		// Stop if we got fewer results than page size (no more pages)
		if uint32(len(results)) < pageSize {
			break
		}

		// Next page starts after the last point ID
		offset = results[len(results)-1].Id
	}

	return points, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStorage) Count(ctx context.Context, name string) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classify(fmt.Errorf("failed to count points: %w", err), err)
	}
	return count, nil
}

// DeleteBySource deletes every point whose source_id matches.
func (s *QdrantStorage) DeleteBySource(ctx context.Context, name, sourceID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldSourceID, sourceID),
			},
		}),
	})
	if err != nil {
		return classify(fmt.Errorf("failed to delete points for %s: %w", sourceID, err), err)
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *QdrantStorage) checkDimension(name string, got int) error {
	s.mu.RLock()
	want, ok := s.dims[name]
	s.mu.RUnlock()

	if ok && got != want {
		return fmt.Errorf("%w: got %d dimensions, expected %d", ErrDimensionMismatch, got, want)
	}
	return nil
}

// decodePayload validates the payload shape at the boundary.
func decodePayload(payload map[string]*qdrant.Value) (Payload, error) {
	chunk, ok := payload[fieldChunk].GetKind().(*qdrant.Value_StringValue)
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing string field %q", ErrMalformedPayload, fieldChunk)
	}

	return Payload{
		Chunk:    chunk.StringValue,
		SourceID: payload[fieldSourceID].GetStringValue(),
		Sequence: int(payload[fieldSequence].GetIntegerValue()),
	}, nil
}

func toQdrantDistance(d Distance) qdrant.Distance {
	switch d {
	case DistanceDot:
		return qdrant.Distance_Dot
	case DistanceEuclid:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func fromQdrantDistance(d qdrant.Distance) Distance {
	switch d {
	case qdrant.Distance_Dot:
		return DistanceDot
	case qdrant.Distance_Euclid:
		return DistanceEuclid
	default:
		return DistanceCosine
	}
}

// classify maps gRPC status codes onto storage sentinels while keeping the
// wrapped message.
func classify(wrapped, cause error) error {
	switch status.Code(cause) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrCollectionNotFound, wrapped)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", ErrQdrantUnreachable, wrapped)
	default:
		return wrapped
	}
}

// retryable reports whether an error looks like a transient network failure.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}
