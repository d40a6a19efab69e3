// Package config loads groundchat settings from defaults, an optional config
// file, environment variables and bound CLI flags.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the full application configuration. The file layout uses one
// section per struct.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	History   HistoryConfig   `mapstructure:"history"`
	Server    ServerConfig    `mapstructure:"server"`
	GitHub    GitHubConfig    `mapstructure:"github"`
}

type LogConfig struct {
	Debug  bool   `mapstructure:"debug"`
	Format string `mapstructure:"format"` // text, json or pretty
}

// StorageConfig selects the vector store.
type StorageConfig struct {
	Provider     string `mapstructure:"provider"` // qdrant or memory
	QdrantHost   string `mapstructure:"qdrant_host"`
	QdrantPort   int    `mapstructure:"qdrant_port"`
	QdrantAPIKey string `mapstructure:"qdrant_api_key"`
	QdrantTLS    bool   `mapstructure:"qdrant_tls"`
	Collection   string `mapstructure:"collection"`
	Distance     string `mapstructure:"distance"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // http or openai
	Target     string `mapstructure:"target"`   // Empty uses the provider's endpoint
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"` // 0 uses the model's native size
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // openai or anthropic
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyEnv    string        `mapstructure:"api_key_env"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	SystemPrompt string        `mapstructure:"system_prompt"`
}

type RetrievalConfig struct {
	TopK          int `mapstructure:"top_k"`
	ScrollLimit   int `mapstructure:"scroll_limit"`
	MaxChunkChars int `mapstructure:"max_chunk_chars"`
}

// HistoryConfig selects the conversation log backend.
type HistoryConfig struct {
	Provider      string `mapstructure:"provider"` // memory, bolt or redis
	BoltPath      string `mapstructure:"bolt_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type GitHubConfig struct {
	Token      string   `mapstructure:"token"`
	Extensions []string `mapstructure:"extensions"` // Files kept when a directory is fetched
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !oneOf(c.Storage.Provider, "qdrant", "memory") {
		return fmt.Errorf("storage.provider: unsupported value %q", c.Storage.Provider)
	}
	if !oneOf(c.Embedding.Provider, "http", "openai") {
		return fmt.Errorf("embedding.provider: unsupported value %q", c.Embedding.Provider)
	}
	if !oneOf(c.LLM.Provider, "openai", "anthropic") {
		return fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider)
	}
	if !oneOf(c.History.Provider, "memory", "bolt", "redis") {
		return fmt.Errorf("history.provider: unsupported value %q", c.History.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// resolveSecrets fills API keys from the provider's conventional environment
// variables when they were not set through config.
func (c *Config) resolveSecrets() {
	if c.LLM.APIKeyEnv == "" {
		if c.LLM.Provider == "anthropic" {
			c.LLM.APIKeyEnv = "ANTHROPIC_API_KEY"
		} else {
			c.LLM.APIKeyEnv = "GROQ_API_KEY"
		}
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
