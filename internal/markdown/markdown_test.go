package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutline(t *testing.T) {
	src := []byte(`# Guide

intro

## Install

steps

### Linux

apt

## Usage

run it
`)
	headings, err := Outline(src)
	require.NoError(t, err)
	require.Len(t, headings, 4)

	assert.Equal(t, Heading{Level: 1, Title: "Guide", ID: "guide", Path: "# Guide"}, headings[0])
	assert.Equal(t, "# Guide > ## Install", headings[1].Path)
	assert.Equal(t, 3, headings[2].Level)
	assert.Equal(t, "# Guide > ## Install > ### Linux", headings[2].Path)
	assert.Equal(t, "# Guide > ## Usage", headings[3].Path)
}

func TestOutline_SkippedLevelsKeepRealLevel(t *testing.T) {
	src := []byte("# Guide\n\n### Linux\n\n## Usage\n")
	headings, err := Outline(src)
	require.NoError(t, err)
	require.Len(t, headings, 3)

	assert.Equal(t, 3, headings[1].Level)
	assert.Equal(t, "# Guide > ### Linux", headings[1].Path)
	assert.Equal(t, 2, headings[2].Level)
	assert.Equal(t, "# Guide > ## Usage", headings[2].Path)
}

func TestOutline_DocumentStartingBelowH1(t *testing.T) {
	headings, err := Outline([]byte("## Setup\n\n### Step\n"))
	require.NoError(t, err)
	require.Len(t, headings, 2)

	assert.Equal(t, Heading{Level: 2, Title: "Setup", ID: "setup", Path: "## Setup"}, headings[0])
	assert.Equal(t, "## Setup > ### Step", headings[1].Path)
}

func TestOutline_NoHeadings(t *testing.T) {
	headings, err := Outline([]byte("just text\n"))
	require.NoError(t, err)
	assert.Empty(t, headings)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("README.md"))
	assert.True(t, IsMarkdown("docs/Guide.MARKDOWN"))
	assert.False(t, IsMarkdown("main.go"))
	assert.False(t, IsMarkdown("md"))
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("Use `go test`:\n\n```go\nfmt.Println(1)\n```\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<code>go test</code>")
	assert.Contains(t, html, `<pre><code class="language-go">`)
}
