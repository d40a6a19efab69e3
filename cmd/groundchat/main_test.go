package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points every provider at in-process fakes.
func setupEnv(t *testing.T) {
	t.Helper()
	embedder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]float32{"embedding": {0.5, 0.5, 0.5, 0.5}})
	}))
	t.Cleanup(embedder.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROUNDCHAT_STORAGE_PROVIDER", "memory")
	t.Setenv("GROUNDCHAT_HISTORY_PROVIDER", "memory")
	t.Setenv("GROUNDCHAT_EMBEDDING_TARGET", embedder.URL)
	t.Setenv("GROUNDCHAT_EMBEDDING_DIMENSIONS", "4")
	t.Setenv("GROUNDCHAT_LOG_FORMAT", "json")
	t.Setenv("GROQ_API_KEY", "")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexCommand(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "alpha\nbeta\n")
	b := writeFile(t, dir, "guide.md", "# Guide\n\n## Install\n")

	out, err := run(t, "", "index", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "ok a.txt (1 chunks")
	assert.Contains(t, out, "# Guide > ## Install")
	assert.Contains(t, out, "Indexed 2/2 artifacts, 2 chunks")
}

func TestIndexCommand_Errors(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "index")
	assert.EqualError(t, err, "nothing to index: pass files or --github paths")

	_, err = run(t, "", "index", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read ")

	_, err = run(t, "", "index", "--github", "not-a-ref")
	require.Error(t, err)
}

func TestSnippetCommand_ReadsStdin(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "func main() {}\n", "snippet")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed snippet (1 chunks)")

	_, err = run(t, "   ", "snippet")
	assert.EqualError(t, err, "snippet is empty")
}

func TestAskCommand_MissingCredential(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "ask", "what", "is", "this")
	assert.EqualError(t, err, "Error: GROQ_API_KEY not set in environment")
}

func TestChatCommand_ContinuesAfterFailedTurn(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "first\n\nsecond\n", "chat", "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Session s1")
	assert.Equal(t, 2, strings.Count(out, "Error: GROQ_API_KEY not set in environment"))
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	setupEnv(t)
	t.Setenv("GROUNDCHAT_STORAGE_PROVIDER", "bogus")

	_, err := run(t, "", "files")
	require.Error(t, err)

	out, err := run(t, "", "--storage", "memory", "files")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHistoryAndSessionsCommands(t *testing.T) {
	setupEnv(t)
	t.Setenv("GROUNDCHAT_HISTORY_PROVIDER", "bolt")
	t.Setenv("GROUNDCHAT_HISTORY_BOLT_PATH", filepath.Join(t.TempDir(), "history.db"))

	_, err := run(t, "", "ask", "--session", "s1", "How do I configure retries?")
	require.Error(t, err)

	out, err := run(t, "", "history", "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "user: How do I configure retries?")
	assert.Contains(t, out, "error: Error: GROQ_API_KEY not set in environment")

	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.Equal(t, "s1\tHow do I configure retries?\n", out)

	out, err = run(t, "", "clear", "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared session s1")

	out, err = run(t, "", "history", "--session", "s1")
	require.NoError(t, err)
	assert.Empty(t, out)
}
