// Package chunker splits artifact text into line-bounded segments for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkChars is the chunk budget used when callers pass a non-positive size.
const DefaultMaxChunkChars = 500

// SnippetSource is the source id given to pasted snippets.
const SnippetSource = "snippet"

// Chunk is a contiguous, line-aligned slice of an artifact.
type Chunk struct {
	Text     string // Chunk text, every line newline-terminated
	SourceID string // Artifact name or SnippetSource
	Sequence int    // Position within the artifact (0, 1, 2...)
}

// Split greedily packs lines into chunks of at most maxChunkChars characters.
//
// Boundaries always fall on line boundaries: a single line longer than the budget
// becomes its own oversized chunk. Each line is emitted with a trailing "\n", so
// concatenating the result reproduces the input with a normalized final newline.
// Empty input yields nil.
func Split(text string, maxChunkChars int) []string {
	if text == "" {
		return nil
	}
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}

	lines := strings.Split(text, "\n")
	// A trailing newline terminates the last line rather than opening a new one.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var chunks []string
	var buf strings.Builder
	size := 0

	for _, line := range lines {
		lineSize := utf8.RuneCountInString(line) + 1
		if size+lineSize > maxChunkChars && size > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			size = 0
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		size += lineSize
	}

	if size > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// Chunks splits text and tags each piece with its source and sequence number.
func Chunks(sourceID, text string, maxChunkChars int) []Chunk {
	parts := Split(text, maxChunkChars)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{
			Text:     part,
			SourceID: sourceID,
			Sequence: i,
		}
	}
	return chunks
}
