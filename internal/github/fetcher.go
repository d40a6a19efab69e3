package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// ErrInvalidRef is returned when a reference cannot be parsed.
var ErrInvalidRef = errors.New("invalid github reference")

// Ref points at a file or directory in a repository.
type Ref struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Branch, tag or commit; empty means the default branch
}

func (r Ref) String() string {
	s := r.Owner + "/" + r.Repo
	if r.Path != "" {
		s += "/" + r.Path
	}
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// ParseRef accepts "owner/repo/path[@ref]" or a github.com blob/tree URL.
func ParseRef(s string) (Ref, error) {
	if strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
		return parseURL(s)
	}

	var r Ref
	if at := strings.LastIndex(s, "@"); at >= 0 {
		s, r.Ref = s[:at], s[at+1:]
	}
	parts := strings.SplitN(strings.Trim(s, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	r.Owner, r.Repo = parts[0], parts[1]
	if len(parts) == 3 {
		r.Path = parts[2]
	}
	return r, nil
}

// parseURL handles https://github.com/owner/repo/blob/ref/path.
func parseURL(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}

	r := Ref{Owner: parts[0], Repo: parts[1]}
	if len(parts) >= 4 && (parts[2] == "blob" || parts[2] == "tree") {
		r.Ref = parts[3]
		r.Path = strings.Join(parts[4:], "/")
	} else if len(parts) > 2 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return r, nil
}

// Artifact is a fetched file ready for indexing.
type Artifact struct {
	Name    string // owner/repo/path, used as the source id
	Content string
	SHA     string // File's Git blob SHA
	URL     string
}

// Fetcher handles fetching files from GitHub repositories
type Fetcher struct {
	client     *Client
	extensions map[string]bool
}

// NewFetcher creates a fetcher. When a directory is fetched only files with
// one of extensions are returned; no extensions means every file.
func NewFetcher(client *Client, extensions ...string) *Fetcher {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Fetcher{client: client, extensions: exts}
}

// Fetch returns the file at ref, or every matching file below it when ref is
// a directory.
func (f *Fetcher) Fetch(ctx context.Context, ref Ref) ([]Artifact, error) {
	file, dir, _, err := f.client.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, f.opts(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", ref, err)
	}

	if file != nil {
		a, err := f.toArtifact(ref, file)
		if err != nil {
			return nil, err
		}
		return []Artifact{*a}, nil
	}

	var out []Artifact
	for _, item := range dir {
		child := ref
		child.Path = item.GetPath()

		switch item.GetType() {
		case "file":
			if !f.wanted(item.GetName()) {
				continue
			}
			fetched, err := f.fetchFile(ctx, child)
			if err != nil {
				return nil, err
			}
			out = append(out, *fetched)
		case "dir":
			sub, err := f.Fetch(ctx, child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, ref Ref) (*Artifact, error) {
	file, _, _, err := f.client.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, f.opts(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", ref, err)
	}
	if file == nil {
		return nil, fmt.Errorf("no file content returned for %s", ref)
	}
	return f.toArtifact(ref, file)
}

func (f *Fetcher) toArtifact(ref Ref, file *github.RepositoryContent) (*Artifact, error) {
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", ref, err)
	}
	return &Artifact{
		Name:    path.Join(ref.Owner, ref.Repo, file.GetPath()),
		Content: content,
		SHA:     file.GetSHA(),
		URL:     file.GetHTMLURL(),
	}, nil
}

func (f *Fetcher) wanted(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	return f.extensions[strings.ToLower(path.Ext(name))]
}

func (f *Fetcher) opts(ref Ref) *github.RepositoryContentGetOptions {
	if ref.Ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: ref.Ref}
}
