package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf)).Info("hello", "key", "value")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf)).Debug("hidden")
	assert.Empty(t, buf.String())

	New(WithWriter(&buf), WithDebug(true)).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf), WithFormat(FormatJSON)).Info("structured", "count", 42)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "structured", parsed["msg"])
	assert.EqualValues(t, 42, parsed["count"])
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithFormat(FormatPretty), WithDebug(true))
	l.Debug("pretty output")

	assert.Contains(t, buf.String(), "pretty output")
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.False(t, l.Handler().Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() { l.With("k", "v").Info("msg") })
}
