package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, file string) *Config {
	t.Helper()
	v, err := InitViper(file)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := load(t, "")

	assert.Equal(t, "qdrant", cfg.Storage.Provider)
	assert.Equal(t, 6334, cfg.Storage.QdrantPort)
	assert.Equal(t, "file_chunks_v2", cfg.Storage.Collection)
	assert.Equal(t, "http", cfg.Embedding.Provider)
	assert.Empty(t, cfg.Embedding.Target)
	assert.Zero(t, cfg.Embedding.Dimensions)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, "GROQ_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groundchat.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
provider = "memory"

[llm]
provider = "anthropic"
timeout = "3s"

[history]
provider = "redis"
redis_addr = "cache:6379"
`), 0o600))
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg := load(t, path)
	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
	assert.Equal(t, "cache:6379", cfg.History.RedisAddr)
	assert.Equal(t, "localhost", cfg.Storage.QdrantHost, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROUNDCHAT_RETRIEVAL_TOP_K", "7")
	t.Setenv("GROUNDCHAT_LLM_MODEL", "mixtral")
	t.Setenv("GROQ_API_KEY", "gsk")

	cfg := load(t, "")
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "mixtral", cfg.LLM.Model)
	assert.Equal(t, "gsk", cfg.LLM.APIKey)
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("GROUNDCHAT_HISTORY_PROVIDER", "sqlite")

	v, err := InitViper("")
	require.NoError(t, err)
	_, err = Load(v)
	assert.EqualError(t, err, `history.provider: unsupported value "sqlite"`)
}

func TestInitViper_MissingExplicitFile(t *testing.T) {
	_, err := InitViper(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
