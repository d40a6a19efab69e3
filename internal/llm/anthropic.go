package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel  = "claude-3-5-haiku-latest"
	DefaultAnthropicKeyEnv = "ANTHROPIC_API_KEY"
)

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	cfg    Config
}

var _ Client = (*Anthropic)(nil)

func NewAnthropic(cfg Config) *Anthropic {
	cfg = cfg.withDefaults()
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAnthropicKeyEnv
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{client: anthropic.NewClient(opts...), cfg: cfg}
}

func (a *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	if a.cfg.APIKey == "" {
		return "", &CredentialError{Env: a.cfg.APIKeyEnv}
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: int64(a.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(ctx, "anthropic", err)
	}

	var text strings.Builder
	sawText := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			sawText = true
			text.WriteString(block.Text)
		}
	}
	if !sawText {
		return "", fmt.Errorf("%w: no text blocks", ErrNonTextResponse)
	}

	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}
