package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GROUNDCHAT_STORAGE_PROVIDER.
const EnvPrefix = "GROUNDCHAT"

// InitViper creates a configured *viper.Viper. When configFile is empty it
// looks for groundchat.{toml,yaml} in the working directory and ~/.groundchat.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound)
//  2. Environment variables (GROUNDCHAT_LLM_MODEL, ...)
//  3. Config file values
//  4. Defaults from NewDefault()
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("groundchat")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".groundchat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load unmarshals v into a Config, resolves API keys and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.resolveSecrets()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setViperDefaults registers every default under its dotted key so that
// AutomaticEnv can override keys that no file mentions.
func setViperDefaults(v *viper.Viper) {
	d := NewDefault()

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.qdrant_host", d.Storage.QdrantHost)
	v.SetDefault("storage.qdrant_port", d.Storage.QdrantPort)
	v.SetDefault("storage.qdrant_api_key", d.Storage.QdrantAPIKey)
	v.SetDefault("storage.qdrant_tls", d.Storage.QdrantTLS)
	v.SetDefault("storage.collection", d.Storage.Collection)
	v.SetDefault("storage.distance", d.Storage.Distance)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.api_key_env", d.LLM.APIKeyEnv)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.system_prompt", d.LLM.SystemPrompt)

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.scroll_limit", d.Retrieval.ScrollLimit)
	v.SetDefault("retrieval.max_chunk_chars", d.Retrieval.MaxChunkChars)

	v.SetDefault("history.provider", d.History.Provider)
	v.SetDefault("history.bolt_path", d.History.BoltPath)
	v.SetDefault("history.redis_addr", d.History.RedisAddr)
	v.SetDefault("history.redis_password", d.History.RedisPassword)
	v.SetDefault("history.redis_db", d.History.RedisDB)
	v.SetDefault("history.redis_prefix", d.History.RedisPrefix)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("github.token", d.GitHub.Token)
	v.SetDefault("github.extensions", d.GitHub.Extensions)
}
