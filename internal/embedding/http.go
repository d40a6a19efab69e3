package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultHTTPBaseURL is where the local sentence-transformers server listens.
	DefaultHTTPBaseURL = "http://127.0.0.1:8000"

	// DefaultHTTPDimension is the output size of all-MiniLM-L6-v2.
	DefaultHTTPDimension = 384
)

// HTTPConfig holds configuration for the HTTP embedder.
type HTTPConfig struct {
	// BaseURL of the embedding server. Defaults to DefaultHTTPBaseURL.
	BaseURL string

	// Dimension the server produces. Defaults to DefaultHTTPDimension.
	Dimension int

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// HTTPEmbedder calls a server exposing POST /embed {"inputs": text} -> {"embedding": [...]}.
type HTTPEmbedder struct {
	baseURL    string
	dimension  int
	httpClient *http.Client
}

type embedRequest struct {
	Inputs string `json:"inputs"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an embedder for the /embed endpoint.
func NewHTTPEmbedder(cfg HTTPConfig) *HTTPEmbedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultHTTPBaseURL
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultHTTPDimension
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPEmbedder{baseURL: baseURL, dimension: dimension, httpClient: client}
}

func (e *HTTPEmbedder) Dimension() int { return e.dimension }

// Embed sends one text to the server. Connection failures and 5xx responses are
// retried with backoff, anything else fails immediately.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrEmbedding, err)
	}

	var vec []float32
	operation := func() error {
		v, err := e.post(ctx, body)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}

	if err := backoff.Retry(operation, newBackoff(ctx)); err != nil {
		return nil, err
	}

	if len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnexpectedDimension, len(vec), e.dimension)
	}
	return vec, nil
}

func (e *HTTPEmbedder) post(ctx context.Context, body []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: creating request: %v", ErrEmbedding, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrEmbedding, ctx.Err()))
		}
		return nil, fmt.Errorf("%w: sending request: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("%w: server returned status %d: %s", ErrEmbedding, resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decoding response: %v", ErrEmbedding, err))
	}
	if len(out.Embedding) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("%w: no embedding returned", ErrEmbedding))
	}
	return out.Embedding, nil
}
