package storage

import (
	"strconv"

	"github.com/google/uuid"
)

// Distance is the similarity metric a collection is created with.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// DefaultCollection is the collection artifacts are indexed into.
const DefaultCollection = "file_chunks_v2"

// DefaultVectorDimension matches all-MiniLM-L6-v2 served by the local embedder.
const DefaultVectorDimension = 384

// CollectionSchema fixes the vector layout of a collection.
type CollectionSchema struct {
	VectorDimension int
	Distance        Distance
}

// Payload is the tagged payload stored alongside every vector.
type Payload struct {
	Chunk    string // Chunk text
	SourceID string // Artifact name, "snippet" for pasted code
	Sequence int    // Chunk position within the artifact
}

// Point is a vector and its payload as persisted in a collection.
type Point struct {
	ID      string // UUID
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit, higher Score means more similar.
type ScoredPoint struct {
	Point
	Score float32
}

// pointNamespace scopes the deterministic point ids.
var pointNamespace = uuid.MustParse("6f1c7a52-3d0e-4b7c-9a55-2f1f0e3b9d41")

// PointID derives a stable id from the chunk identity, so re-indexing the same
// artifact overwrites its points instead of duplicating them.
func PointID(sourceID string, sequence int, chunk string) string {
	key := sourceID + "\x00" + strconv.Itoa(sequence) + "\x00" + chunk
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}
