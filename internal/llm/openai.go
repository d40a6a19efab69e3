package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAIBaseURL points at Groq's OpenAI-compatible endpoint.
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel   = "llama3-70b-8192"
	DefaultOpenAIKeyEnv  = "GROQ_API_KEY"
)

// OpenAI talks to any OpenAI-compatible chat completion API.
type OpenAI struct {
	client openai.Client
	cfg    Config
}

var _ Client = (*OpenAI)(nil)

func NewOpenAI(cfg Config) *OpenAI {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultOpenAIKeyEnv
	}

	return &OpenAI{
		client: openai.NewClient(
			option.WithBaseURL(cfg.BaseURL),
			option.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		),
		cfg: cfg,
	}
}

func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	if o.cfg.APIKey == "" {
		return "", &CredentialError{Env: o.cfg.APIKeyEnv}
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:     openai.ChatModel(o.cfg.Model),
		MaxTokens: openai.Int(int64(o.cfg.MaxTokens)),
	})
	if err != nil {
		return "", classify(ctx, "openai", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrNonTextResponse)
	}
	msg := resp.Choices[0].Message
	if msg.Content == "" && (msg.Refusal != "" || len(msg.ToolCalls) > 0) {
		return "", fmt.Errorf("%w: message carries no text content", ErrNonTextResponse)
	}

	answer := strings.TrimSpace(msg.Content)
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}
