// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// StubEmbedder hashes words into buckets, so equal text gives equal vectors
// and texts sharing words point in similar directions.
type StubEmbedder struct {
	Dim int

	// FailOn causes Embed to return an error when the input text matches.
	FailOn string

	mu    sync.Mutex
	calls []string
}

// NewStubEmbedder returns a StubEmbedder with 32 dimensions.
func NewStubEmbedder() *StubEmbedder {
	return &StubEmbedder{Dim: 32}
}

func (s *StubEmbedder) Dimension() int { return s.Dim }

func (s *StubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.FailOn != "" && text == s.FailOn {
		return nil, fmt.Errorf("stub embedding failure for: %s", text)
	}

	vec := make([]float32, s.Dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(s.Dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

// Calls returns the texts embedded so far.
func (s *StubEmbedder) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
