// Package llm calls a chat-completion language model with a bounded timeout.
package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultSystemPrompt is the system instruction sent with every question.
	DefaultSystemPrompt = "You are a helpful AI coding assistant."

	DefaultTimeout   = 10 * time.Second
	DefaultMaxTokens = 1024
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client answers a single user message under a system instruction.
type Client interface {
	// Complete returns the trimmed answer text.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and configures a provider. Zero values take provider defaults.
type Config struct {
	Provider  string
	BaseURL   string
	Model     string
	APIKey    string
	APIKeyEnv string // Named in the missing-credential message
	Timeout   time.Duration
	MaxTokens int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// New builds the client named by cfg.Provider. A missing API key is not an
// error here; it is reported by every Complete call instead.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
