package config

import "time"

// NewDefault returns the configuration used when nothing else is set: local
// Qdrant, the local sentence-transformers embedder and Groq.
func NewDefault() *Config {
	return &Config{
		Log: LogConfig{Format: "text"},
		Storage: StorageConfig{
			Provider:   "qdrant",
			QdrantHost: "localhost",
			QdrantPort: 6334,
			Collection: "file_chunks_v2",
			Distance:   "Cosine",
		},
		// Target and Dimensions stay empty so each provider applies its own
		// endpoint and native vector size.
		Embedding: EmbeddingConfig{Provider: "http"},
		LLM: LLMConfig{
			Provider:     "openai",
			BaseURL:      "https://api.groq.com/openai/v1",
			Model:        "llama3-70b-8192",
			Timeout:      10 * time.Second,
			MaxTokens:    1024,
			SystemPrompt: "You are a helpful AI coding assistant.",
		},
		Retrieval: RetrievalConfig{
			TopK:          3,
			ScrollLimit:   1000,
			MaxChunkChars: 500,
		},
		History: HistoryConfig{
			Provider:    "bolt",
			BoltPath:    "groundchat-history.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "groundchat:history:",
		},
		Server: ServerConfig{Listen: ":8080"},
		GitHub: GitHubConfig{
			Extensions: []string{".md", ".markdown", ".mdx", ".txt", ".go", ".py", ".js", ".ts", ".json", ".yaml", ".yml", ".toml"},
		},
	}
}
