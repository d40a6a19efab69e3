// Package app wires configuration into the running components shared by the
// CLI, the REST API and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/config"
	"github.com/bull/groundchat/internal/embedding"
	"github.com/bull/groundchat/internal/github"
	"github.com/bull/groundchat/internal/history"
	"github.com/bull/groundchat/internal/indexer"
	"github.com/bull/groundchat/internal/llm"
	"github.com/bull/groundchat/internal/prompt"
	"github.com/bull/groundchat/internal/retriever"
	"github.com/bull/groundchat/internal/storage"
)

// App holds every component built from one Config.
type App struct {
	Config    *config.Config
	Store     storage.VectorStore
	Guard     *storage.CollectionGuard
	Embedder  embedding.Embedder
	Indexer   *indexer.Indexer
	Retriever *retriever.Retriever
	Prompts   *prompt.Policy
	Model     llm.Client
	History   history.Store
	Manager   *assistant.Manager
	GitHub    *github.Fetcher

	logger *slog.Logger
}

// Build creates the components described by cfg. The vector store is contacted
// on startup when it is Qdrant; the collection itself is created lazily.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, logger: logger}

	store, err := newVectorStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Store = store

	a.Embedder, err = embedding.New(embedding.Config{
		Provider:  cfg.Embedding.Provider,
		BaseURL:   cfg.Embedding.Target,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	a.Guard = storage.NewCollectionGuard(store, cfg.Storage.Collection, storage.CollectionSchema{
		VectorDimension: a.Embedder.Dimension(),
		Distance:        storage.Distance(cfg.Storage.Distance),
	}, logger)

	a.Indexer = indexer.New(store, a.Guard, a.Embedder, indexer.Options{
		MaxChunkChars: cfg.Retrieval.MaxChunkChars,
	}, logger)
	a.Retriever = retriever.New(store, a.Guard, a.Embedder, logger)
	a.Prompts = prompt.NewPolicy(a.Retriever, prompt.Options{
		TopK:        cfg.Retrieval.TopK,
		ScrollLimit: cfg.Retrieval.ScrollLimit,
	}, logger)

	a.Model, err = llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	a.History, err = newHistoryStore(ctx, cfg.History)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Manager = assistant.NewManager(a.Indexer, a.Prompts, a.Model, a.History, assistant.Config{
		SystemPrompt: cfg.LLM.SystemPrompt,
	}, logger)

	gh, err := github.NewClient(cfg.GitHub.Token)
	if err != nil {
		logger.Warn("github client unavailable", "error", err)
	} else {
		a.GitHub = github.NewFetcher(gh, cfg.GitHub.Extensions...)
	}

	logger.Debug("app built",
		"storage", cfg.Storage.Provider,
		"embedding", cfg.Embedding.Provider,
		"llm", cfg.LLM.Provider,
		"history", cfg.History.Provider,
	)
	return a, nil
}

// Close releases the vector store and the conversation log.
func (a *App) Close() error {
	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func newVectorStore(ctx context.Context, cfg config.StorageConfig) (storage.VectorStore, error) {
	switch cfg.Provider {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "qdrant":
		s, err := storage.NewQdrantStorage(ctx, storage.QdrantConfig{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

func newHistoryStore(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Provider {
	case "memory":
		return history.NewMemoryStore(), nil
	case "bolt":
		s, err := history.NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history db: %w", err)
		}
		return s, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return history.NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported history provider: %s", cfg.Provider)
	}
}
