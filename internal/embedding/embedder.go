// Package embedding converts text into fixed-length vectors through an
// external embedding service.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Embedder turns text into a vector. All vectors from one Embedder share
// Dimension, and vectors from different embedders are not comparable.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension is the length of every vector Embed returns.
	Dimension() int
}

// Provider names accepted by New.
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string
	BaseURL   string
	Model     string
	APIKey    string
	Dimension int
}

// New builds the Embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", ProviderHTTP:
		return NewHTTPEmbedder(HTTPConfig{BaseURL: cfg.BaseURL, Dimension: cfg.Dimension}), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// newBackoff mirrors the storage retry policy: 500ms initial, 10s cap, 30s total.
func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}
