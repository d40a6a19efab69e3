package indexer

import "errors"

var (
	ErrStoreUnavailable = errors.New("vector store unavailable")
	ErrEmbeddingFailed  = errors.New("embedding failed")
	ErrEmptyArtifact    = errors.New("artifact is empty")
)
