package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileJSON(filePath, body string) map[string]any {
	name := path.Base(filePath)
	return map[string]any{
		"type":     "file",
		"name":     name,
		"path":     filePath,
		"sha":      "sha-" + name,
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString([]byte(body)),
		"html_url": "https://github.com/o/r/blob/main/" + filePath,
	}
}

func newTestFetcher(t *testing.T, routes map[string]any, exts ...string) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient("")
	require.NoError(t, err)
	require.NoError(t, client.SetBaseURL(srv.URL))
	return NewFetcher(client, exts...)
}

func TestFetch_File(t *testing.T) {
	f := newTestFetcher(t, map[string]any{
		"/repos/o/r/contents/docs/guide.md": fileJSON("docs/guide.md", "# Guide\n"),
	})

	artifacts, err := f.Fetch(context.Background(), Ref{Owner: "o", Repo: "r", Path: "docs/guide.md"})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "o/r/docs/guide.md", artifacts[0].Name)
	assert.Equal(t, "# Guide\n", artifacts[0].Content)
	assert.Equal(t, "sha-guide.md", artifacts[0].SHA)
}

func TestFetch_DirectoryRecursesAndFilters(t *testing.T) {
	f := newTestFetcher(t, map[string]any{
		"/repos/o/r/contents/docs": []map[string]any{
			{"type": "file", "name": "a.md", "path": "docs/a.md"},
			{"type": "file", "name": "logo.png", "path": "docs/logo.png"},
			{"type": "dir", "name": "sub", "path": "docs/sub"},
		},
		"/repos/o/r/contents/docs/sub": []map[string]any{
			{"type": "file", "name": "b.md", "path": "docs/sub/b.md"},
		},
		"/repos/o/r/contents/docs/a.md":     fileJSON("docs/a.md", "A"),
		"/repos/o/r/contents/docs/sub/b.md": fileJSON("docs/sub/b.md", "B"),
	}, ".md")

	artifacts, err := f.Fetch(context.Background(), Ref{Owner: "o", Repo: "r", Path: "docs"})
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "o/r/docs/a.md", artifacts[0].Name)
	assert.Equal(t, "B", artifacts[1].Content)
}

func TestFetch_NotFound(t *testing.T) {
	f := newTestFetcher(t, map[string]any{})

	_, err := f.Fetch(context.Background(), Ref{Owner: "o", Repo: "r", Path: "missing.go"})
	assert.Error(t, err)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"o/r", Ref{Owner: "o", Repo: "r"}},
		{"o/r/docs/a.md", Ref{Owner: "o", Repo: "r", Path: "docs/a.md"}},
		{"o/r/docs@v1.2.0", Ref{Owner: "o", Repo: "r", Path: "docs", Ref: "v1.2.0"}},
		{"https://github.com/o/r/blob/main/cmd/main.go", Ref{Owner: "o", Repo: "r", Path: "cmd/main.go", Ref: "main"}},
		{"https://github.com/o/r", Ref{Owner: "o", Repo: "r"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "onlyowner", "https://github.com/o/r/issues/1"} {
		_, err := ParseRef(bad)
		assert.ErrorIs(t, err, ErrInvalidRef, bad)
	}
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "o/r/docs@main", Ref{Owner: "o", Repo: "r", Path: "docs", Ref: "main"}.String())
}
