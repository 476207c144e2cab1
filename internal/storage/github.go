package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

// GitHub implements Store on top of the repository contents API. Revisions
// are blob SHAs and every write is a commit on the configured branch.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHub creates a GitHub store for repoName ("owner/name"). An empty
// branch means the repository's default branch.
func NewGitHub(client *github.Client, repoName, branch string) (*GitHub, error) {
	owner, repo, ok := strings.Cut(repoName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository name %q, want owner/name", repoName)
	}
	return &GitHub{client: client, owner: owner, repo: repo, branch: branch}, nil
}

// Close is a no-op; the HTTP client has no resources to release.
func (g *GitHub) Close() error { return nil }

// Get fetches path and its blob SHA.
func (g *GitHub) Get(ctx context.Context, path string) (*Document, error) {
	var opts *github.RepositoryContentGetOptions
	if g.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: g.branch}
	}

	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, opts)
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contents: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	// Files over 1 MB come back without inline content.
	if file.GetEncoding() == "none" {
		raw, _, err := g.client.Git.GetBlobRaw(ctx, g.owner, g.repo, file.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("get blob: %w", err)
		}
		return &Document{Content: raw, Revision: file.GetSHA()}, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}
	return &Document{Content: []byte(content), Revision: file.GetSHA()}, nil
}

// Create commits a new file at path.
func (g *GitHub) Create(ctx context.Context, path string, content []byte, message string) error {
	_, resp, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, g.fileOptions(content, message, ""))
	return g.writeErr("create file", resp, err)
}

// Update commits new content for path on top of revision.
func (g *GitHub) Update(ctx context.Context, path string, content []byte, message, revision string) error {
	_, resp, err := g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, g.fileOptions(content, message, revision))
	return g.writeErr("update file", resp, err)
}

func (g *GitHub) fileOptions(content []byte, message, sha string) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if sha != "" {
		opts.SHA = github.String(sha)
	}
	if g.branch != "" {
		opts.Branch = github.String(g.branch)
	}
	return opts
}

func (g *GitHub) writeErr(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	switch statusOf(resp) {
	// 409 is a stale sha; 422 is a create on an existing path (sha missing).
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
