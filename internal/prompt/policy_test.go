package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/groundchat/internal/storage"
)

type fakeSource struct {
	has       bool
	hasErr    error
	topK      []string
	topKErr   error
	all       []string
	allErr    error
	gotTopK   int
	gotLimit  int
	retrieved bool
}

func (f *fakeSource) HasContext(context.Context) (bool, error) { return f.has, f.hasErr }

func (f *fakeSource) Retrieve(_ context.Context, _ string, topK int) ([]string, error) {
	f.retrieved = true
	f.gotTopK = topK
	return f.topK, f.topKErr
}

func (f *fakeSource) All(_ context.Context, limit int) ([]string, error) {
	f.gotLimit = limit
	return f.all, f.allErr
}

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Mode
	}{
		{"Please summarize the upload", ModeSummarize},
		{"Give me a SUMMARY", ModeSummarize},
		{"summarise it", ModeSummarize},
		{"What is this file about?", ModeSummarize},
		{"explain this file please", ModeSummarize},
		{"What does function foo do?", ModeTargeted},
		{"", ModeTargeted},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestBuild_NoContextIsRawQuery(t *testing.T) {
	for _, q := range []string{"summarize", "What does function foo do?"} {
		src := &fakeSource{has: false}
		p, err := NewPolicy(src, Options{}, nil).Build(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, q, p.Text)
		assert.Equal(t, ModeRaw, p.Mode)
		assert.Empty(t, p.Chunks)
		assert.False(t, src.retrieved, "no vector query on empty corpus")
	}
}

func TestBuild_ContextCheckFailureIsRawQuery(t *testing.T) {
	src := &fakeSource{hasErr: errors.New("connection refused")}
	p, err := NewPolicy(src, Options{}, nil).Build(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "question", p.Text)
	assert.Equal(t, ModeRaw, p.Mode)
}

func TestBuild_RetrievalFailureIsRawQuery(t *testing.T) {
	src := &fakeSource{has: true, topKErr: errors.New("embedder down")}
	p, err := NewPolicy(src, Options{}, nil).Build(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, ModeRaw, p.Mode)
	assert.Equal(t, "question", p.Text)
}

func TestBuild_Targeted(t *testing.T) {
	src := &fakeSource{has: true, topK: []string{"func foo() {}\n", "func bar() {}\n"}}
	p, err := NewPolicy(src, Options{TopK: 5}, nil).Build(context.Background(), "What does function foo do?")
	require.NoError(t, err)

	assert.Equal(t, ModeTargeted, p.Mode)
	assert.Equal(t, src.topK, p.Chunks)
	assert.Equal(t, 5, src.gotTopK)
	assert.Contains(t, p.Text, "You MUST ONLY use the following context")
	assert.Contains(t, p.Text, "'"+FallbackPhrase+"'")
	assert.Contains(t, p.Text, "Do NOT use any outside knowledge.")
	assert.Contains(t, p.Text, "Context:\nfunc foo() {}\n\n---\nfunc bar() {}\n")
	assert.Regexp(t, `Context:[\s\S]*User question: What does function foo do\?\n\nAnswer:$`, p.Text)
}

func TestBuild_Summarize(t *testing.T) {
	src := &fakeSource{has: true, topK: []string{"b\n"}, all: []string{"a\n", "b\n", "c\n"}}
	p, err := NewPolicy(src, Options{ScrollLimit: 50}, nil).Build(context.Background(), "Summarize this")
	require.NoError(t, err)

	assert.Equal(t, ModeSummarize, p.Mode)
	assert.Equal(t, []string{"b\n"}, p.Chunks)
	assert.Equal(t, 50, src.gotLimit)
	assert.Contains(t, p.Text, "Summarize this file. ONLY use the content below.")
	assert.Contains(t, p.Text, "File content:\na\n\n---\nb\n\n---\nc\n")
}

func TestBuild_SummarizeScrollFailureFallsBackToQuery(t *testing.T) {
	src := &fakeSource{has: true, topK: []string{"b\n"}, allErr: errors.New("scroll failed")}
	p, err := NewPolicy(src, Options{}, nil).Build(context.Background(), "give me a summary")
	require.NoError(t, err)

	assert.Equal(t, "give me a summary", p.Text)
	assert.Equal(t, []string{"b\n"}, p.Chunks)
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{hasErr: context.Canceled}
	_, err := NewPolicy(src, Options{}, nil).Build(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_DimensionMismatchIsReturned(t *testing.T) {
	mismatch := fmt.Errorf("%w: collection stores 8 dimensions", storage.ErrDimensionMismatch)

	_, err := NewPolicy(&fakeSource{hasErr: mismatch}, Options{}, nil).Build(context.Background(), "q")
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)

	_, err = NewPolicy(&fakeSource{has: true, topKErr: mismatch}, Options{}, nil).Build(context.Background(), "q")
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestTemplatesAreDeterministic(t *testing.T) {
	chunks := []string{"x", "y"}
	assert.Equal(t, TargetedPrompt("q", chunks), TargetedPrompt("q", chunks))
	assert.Equal(t, SummarizePrompt("q", chunks), SummarizePrompt("q", chunks))
}
