// Package github talks to GitHub through the gh CLI's api subcommand.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/pkg/executil"
	"github.com/colonyops/mender/pkg/kv"
	"github.com/colonyops/mender/pkg/retry"
)

// Client is a repository client bound to one owner/name slug. It implements
// publish.Repository.
type Client struct {
	exec   executil.Executor
	ghPath string
	repo   string
	policy retry.Policy
	log    zerolog.Logger

	defaultBranch *kv.Store[string, string]
}

// New creates a client for repo ("owner/name"). gh authenticates from its own
// config or from GH_TOKEN set on the executor.
func New(exec executil.Executor, ghPath, repoSlug string, policy retry.Policy, log zerolog.Logger) *Client {
	if ghPath == "" {
		ghPath = "gh"
	}
	return &Client{
		exec:          exec,
		ghPath:        ghPath,
		repo:          repoSlug,
		policy:        policy,
		log:           log.With().Str("component", "github").Str("repo", repoSlug).Logger(),
		defaultBranch: kv.New[string, string](),
	}
}

// Repo returns the owner/name slug.
func (c *Client) Repo() string { return c.repo }

func (c *Client) endpoint(format string, args ...any) string {
	return "repos/" + c.repo + "/" + fmt.Sprintf(format, args...)
}

// api runs gh api with retries. body, when non-nil, is sent as the JSON
// request body.
func (c *Client) api(ctx context.Context, body any, args ...string) ([]byte, error) {
	endpoint := args[len(args)-1]

	var input []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		input = b
		args = append(args, "--input", "-")
	}
	args = append([]string{"api"}, args...)

	attempt := 0
	return retry.DoValue(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		attempt++
		var (
			out []byte
			err error
		)
		if input != nil {
			out, err = c.exec.RunInput(ctx, bytes.NewReader(input), c.ghPath, args...)
		} else {
			out, err = c.exec.Run(ctx, c.ghPath, args...)
		}
		if err != nil {
			err = classify(err)
			if !retry.IsPermanent(err) {
				c.log.Debug().Err(err).Int("attempt", attempt).Str("endpoint", endpoint).Msg("transient gh api failure")
			}
			return nil, err
		}
		return out, nil
	})
}

func (c *Client) getJSON(ctx context.Context, v any, args ...string) error {
	out, err := c.api(ctx, nil, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DefaultBranch returns the repository's default branch. The answer is cached
// for the client's lifetime.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	return c.defaultBranch.Load(c.repo, func() (string, error) {
		var resp struct {
			DefaultBranch string `json:"default_branch"`
		}
		if err := c.getJSON(ctx, &resp, "repos/"+c.repo); err != nil {
			return "", fmt.Errorf("get repository: %w", err)
		}
		if resp.DefaultBranch == "" {
			return "", fmt.Errorf("repository %s has no default branch", c.repo)
		}
		return resp.DefaultBranch, nil
	})
}

// BranchTip returns the commit SHA at the head of branch.
func (c *Client) BranchTip(ctx context.Context, branch string) (string, error) {
	var resp struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.getJSON(ctx, &resp, c.endpoint("git/ref/heads/%s", escapePath(branch))); err != nil {
		return "", fmt.Errorf("get branch %s: %w", branch, err)
	}
	return resp.Object.SHA, nil
}

// CreateBranch creates refs/heads/name at sha.
func (c *Client) CreateBranch(ctx context.Context, name, sha string) error {
	body := map[string]string{"ref": "refs/heads/" + name, "sha": sha}
	if _, err := c.api(ctx, body, "--method", "POST", c.endpoint("git/refs")); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

type contentResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// GetFile reads path at ref. An empty ref reads the default branch.
func (c *Client) GetFile(ctx context.Context, path, ref string) (repo.File, error) {
	endpoint := c.endpoint("contents/%s", escapePath(path))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	var resp contentResponse
	if err := c.getJSON(ctx, &resp, endpoint); err != nil {
		return repo.File{}, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.Type != "file" {
		return repo.File{}, fmt.Errorf("get %s: %w", path, errNotFile)
	}

	f := repo.File{Path: resp.Path, SHA: resp.SHA, Size: resp.Size}
	if resp.Encoding == "base64" {
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
		if err != nil {
			return repo.File{}, fmt.Errorf("decode %s: %w", path, err)
		}
		f.Content = raw
	}
	return f, nil
}

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// CreateFile commits a new file on branch.
func (c *Client) CreateFile(ctx context.Context, path, branch, message string, content []byte) error {
	return c.putFile(ctx, path, writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  branch,
	})
}

// UpdateFile commits new content for an existing file whose blob is sha.
func (c *Client) UpdateFile(ctx context.Context, path, branch, message string, content []byte, sha string) error {
	return c.putFile(ctx, path, writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  branch,
		SHA:     sha,
	})
}

func (c *Client) putFile(ctx context.Context, path string, req writeRequest) error {
	if _, err := c.api(ctx, req, "--method", "PUT", c.endpoint("contents/%s", escapePath(path))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// CompareBranches fetches the base...head diff and returns the changed paths.
func (c *Client) CompareBranches(ctx context.Context, base, head string) ([]string, error) {
	out, err := c.api(ctx, nil,
		"-H", "Accept: application/vnd.github.diff",
		c.endpoint("compare/%s...%s", escapePath(base), escapePath(head)),
	)
	if err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, err)
	}
	return ChangedPaths(out)
}

// ChangedPaths parses a unified git diff and returns one path per file.
// Deleted files report their old name.
func ChangedPaths(diff []byte) ([]string, error) {
	files, _, err := gitdiff.Parse(bytes.NewReader(diff))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDelete {
			paths = append(paths, f.OldName)
			continue
		}
		paths = append(paths, f.NewName)
	}
	return paths, nil
}

// CreatePullRequest opens a pull request and returns its HTML URL.
func (c *Client) CreatePullRequest(ctx context.Context, pr repo.PullRequest) (string, error) {
	body := map[string]string{
		"title": pr.Title,
		"body":  pr.Body,
		"head":  pr.Head,
		"base":  pr.Base,
	}
	out, err := c.api(ctx, body, "--method", "POST", c.endpoint("pulls"))
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}

	var resp struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("decode pull request: %w", err)
	}
	return resp.HTMLURL, nil
}

type issueResponse struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	HTMLURL     string          `json:"html_url"`
	PullRequest json.RawMessage `json:"pull_request"`
	Labels      []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// isPullRequest reports whether the issues API returned a pull request.
func (r issueResponse) isPullRequest() bool {
	return len(r.PullRequest) > 0 && string(r.PullRequest) != "null"
}

// ListIssues returns open issues, excluding pull requests.
func (c *Client) ListIssues(ctx context.Context) ([]repo.Issue, error) {
	var pages [][]issueResponse
	if err := c.getJSON(ctx, &pages, "--paginate", "--slurp", c.endpoint("issues?state=open&per_page=100")); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	var all []issueResponse
	for _, page := range pages {
		all = append(all, page...)
	}
	return toIssues(all), nil
}

// GetIssue returns a single issue.
func (c *Client) GetIssue(ctx context.Context, number int) (repo.Issue, error) {
	var resp issueResponse
	if err := c.getJSON(ctx, &resp, c.endpoint("issues/%d", number)); err != nil {
		return repo.Issue{}, fmt.Errorf("get issue #%d: %w", number, err)
	}
	if resp.isPullRequest() {
		return repo.Issue{}, fmt.Errorf("#%d is a pull request, not an issue", number)
	}
	return toIssues([]issueResponse{resp})[0], nil
}

func toIssues(resp []issueResponse) []repo.Issue {
	issues := make([]repo.Issue, 0, len(resp))
	for _, r := range resp {
		if r.isPullRequest() {
			continue
		}
		issue := repo.Issue{Number: r.Number, Title: r.Title, Body: r.Body, URL: r.HTMLURL}
		for _, l := range r.Labels {
			issue.Labels = append(issue.Labels, l.Name)
		}
		issues = append(issues, issue)
	}
	return issues
}

// Tree lists every blob reachable from ref. An empty ref lists the default
// branch.
func (c *Client) Tree(ctx context.Context, ref string) ([]repo.Entry, error) {
	if ref == "" {
		b, err := c.DefaultBranch(ctx)
		if err != nil {
			return nil, err
		}
		ref = b
	}

	var resp struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int    `json:"size"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := c.getJSON(ctx, &resp, c.endpoint("git/trees/%s?recursive=1", escapePath(ref))); err != nil {
		return nil, fmt.Errorf("list tree %s: %w", ref, err)
	}
	if resp.Truncated {
		c.log.Warn().Str("ref", ref).Msg("repository tree truncated by the API")
	}

	entries := make([]repo.Entry, 0, len(resp.Tree))
	for _, e := range resp.Tree {
		if e.Type == "blob" {
			entries = append(entries, repo.Entry{Path: e.Path, Size: e.Size})
		}
	}
	return entries, nil
}

// escapePath escapes each segment of a slash separated path.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
