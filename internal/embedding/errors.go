package embedding

import "errors"

var (
	ErrEmbedding           = errors.New("embedding request failed")
	ErrUnexpectedDimension = errors.New("embedding has unexpected dimension")
)
