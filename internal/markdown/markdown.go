// Package markdown inspects and renders markdown artifacts.
package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int // 1 for "#", 2 for "##", ...
	Title string
	ID    string // Auto-generated anchor
	Path  string // Hierarchy: "# Doc Title > ## Section Name"
}

// maxOutlineDepth limits outlines to H1 through H3.
const maxOutlineDepth = 3

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// IsMarkdown reports whether an artifact name looks like a markdown file.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return true
	default:
		return false
	}
}

// Outline returns the headings of a markdown document in document order.
// A document without headings has an empty outline.
func Outline(source []byte) ([]Heading, error) {
	doc := md.Parser().Parse(text.NewReader(source))

	// Without Compact, skipped levels appear as untitled items, so tree
	// depth equals the heading level.
	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(maxOutlineDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var headings []Heading
	flatten(tree.Items, 1, nil, &headings)
	return headings, nil
}

// segment is one ancestor on a heading path.
type segment struct {
	level int
	title string
}

// flatten walks TOC items depth first, carrying the titled ancestors.
func flatten(items toc.Items, level int, ancestors []segment, out *[]Heading) {
	for _, item := range items {
		path := ancestors
		if len(item.Title) > 0 {
			path = append(ancestors[:len(ancestors):len(ancestors)], segment{level: level, title: string(item.Title)})
			*out = append(*out, Heading{
				Level: level,
				Title: string(item.Title),
				ID:    string(item.ID),
				Path:  formatHeaderPath(path),
			})
		}
		if len(item.Items) > 0 {
			flatten(item.Items, level+1, path, out)
		}
	}
}

// formatHeaderPath builds a header hierarchy string.
// Example: [{1 Installation} {3 Linux}] -> "# Installation > ### Linux"
func formatHeaderPath(path []segment) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = strings.Repeat("#", seg.level) + " " + seg.title
	}
	return strings.Join(parts, " > ")
}

// RenderHTML converts markdown, typically a model answer, into an HTML fragment.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
