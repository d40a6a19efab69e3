package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAIModel is the OpenAI model used for generating embeddings.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension is the vector dimension for text-embedding-3-small.
	DefaultOpenAIDimension = 1536
)

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	BaseURL   string // empty uses the SDK default
	APIKey    string
	Model     string
	Dimension int // 0 keeps the model's native size
}

// OpenAIEmbedder generates embeddings with an OpenAI-compatible API and
// retries rate-limited requests with exponential backoff.
type OpenAIEmbedder struct {
	client    openai.Client
	model     openai.EmbeddingModel
	dimension int
	shorten   bool // send dimension with every request
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder. It returns an error when no API key
// is configured.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set in environment")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultOpenAIDimension
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
		shorten:   cfg.Dimension > 0,
	}, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed generates the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	operation := func() error {
		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model: e.model,
		}
		if e.shorten {
			params.Dimensions = openai.Int(int64(e.dimension))
		}
		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) == 0 {
			return backoff.Permanent(errors.New("no embedding returned"))
		}
		vec = toFloat32(resp.Data[0].Embedding)
		return nil
	}

	if err := backoff.Retry(operation, newBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	if len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnexpectedDimension, len(vec), e.dimension)
	}
	return vec, nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// toFloat32 narrows the API's float64 values to the storage type.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
