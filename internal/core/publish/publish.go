// Package publish turns an edit set into a branch, one commit per file and a
// pull request.
package publish

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/pkg/tmpl"
)

// Repository is the mutation surface of a hosted repository. Lookups of
// missing refs or files fail with an error matching repo.ErrNotFound.
type Repository interface {
	DefaultBranch(ctx context.Context) (string, error)
	BranchTip(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, name, sha string) error
	GetFile(ctx context.Context, path, ref string) (repo.File, error)
	CreateFile(ctx context.Context, path, branch, message string, content []byte) error
	UpdateFile(ctx context.Context, path, branch, message string, content []byte, sha string) error
	// CompareBranches returns the paths that differ between base and head.
	CompareBranches(ctx context.Context, base, head string) ([]string, error)
	// CreatePullRequest opens a pull request and returns its URL.
	CreatePullRequest(ctx context.Context, pr repo.PullRequest) (string, error)
}

const (
	DefaultBranchPrefix  = "fix-issue-"
	DefaultTitleTemplate = `{{ if .Issue }}Fix for issue #{{ .Issue }}{{ else }}Update files{{ end }}`
	DefaultBodyTemplate  = `{{ if .Issue }}This pull request addresses issue #{{ .Issue }}.{{ else }}This pull request updates files.{{ end }}`
)

// Config controls branch naming and pull request text. Empty fields use the
// defaults above.
type Config struct {
	BranchPrefix  string
	TitleTemplate string
	BodyTemplate  string
}

// TemplateData is the data passed to the title and body templates.
type TemplateData struct {
	Issue  int
	Branch string
	Base   string
	Files  []string
}

// Options select the base branch and issue for one publish attempt.
type Options struct {
	// Base is the branch to start from; empty means the default branch.
	Base string
	// Issue is the issue number the change resolves; zero means none.
	Issue int
}

// FileFailure is a file that could not be written.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result is the outcome of a publish attempt. Message is always set.
type Result struct {
	Succeeded      bool          `json:"succeeded"`
	Message        string        `json:"message"`
	PullRequestURL string        `json:"pull_request_url,omitempty"`
	Branch         string        `json:"branch,omitempty"`
	Updated        []string      `json:"updated,omitempty"`
	Failed         []FileFailure `json:"failed,omitempty"`
}

// Publisher runs publish attempts against a Repository.
type Publisher struct {
	repo Repository
	cfg  Config
	now  func() time.Time
	log  zerolog.Logger
}

func New(r Repository, cfg Config, log zerolog.Logger) *Publisher {
	if cfg.BranchPrefix == "" {
		cfg.BranchPrefix = DefaultBranchPrefix
	}
	if cfg.TitleTemplate == "" {
		cfg.TitleTemplate = DefaultTitleTemplate
	}
	if cfg.BodyTemplate == "" {
		cfg.BodyTemplate = DefaultBodyTemplate
	}
	return &Publisher{
		repo: r,
		cfg:  cfg,
		now:  time.Now,
		log:  log.With().Str("component", "publish").Logger(),
	}
}

// Publish creates a branch from the base, writes every file in edits and
// opens a pull request. It never returns an error: every failure, including a
// panic, is reported through the Result.
func (p *Publisher) Publish(ctx context.Context, edits map[string]string, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("publish panicked")
			res.Succeeded = false
			res.PullRequestURL = ""
			res.Message = fmt.Sprintf("Publishing failed unexpectedly: %v", r)
		}
	}()

	base := opts.Base
	if base == "" {
		b, err := p.repo.DefaultBranch(ctx)
		if err != nil {
			return failed("Failed to resolve the default branch: %v", err)
		}
		base = b
	}

	branch := p.cfg.BranchPrefix + strconv.FormatInt(p.now().Unix(), 10)
	res.Branch = branch

	if err := p.createBranch(ctx, branch, base); err != nil {
		res.Message = fmt.Sprintf("Failed to create branch %s from %s: %v", branch, base, err)
		return res
	}
	p.log.Info().Str("branch", branch).Str("base", base).Msg("branch created")

	paths := make([]string, 0, len(edits))
	for path := range edits {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	for _, path := range paths {
		changed, err := p.writeFile(ctx, branch, path, edits[path])
		switch {
		case err != nil:
			p.log.Warn().Err(err).Str("path", path).Msg("file update failed")
			res.Failed = append(res.Failed, FileFailure{Path: path, Error: err.Error()})
		case changed:
			res.Updated = append(res.Updated, path)
		default:
			p.log.Debug().Str("path", path).Msg("content unchanged, skipped")
		}
	}

	if len(res.Updated) == 0 {
		res.Message = "No files were updated. Pull request not created."
		return res
	}

	diff, err := p.repo.CompareBranches(ctx, base, branch)
	switch {
	case err != nil:
		p.log.Warn().Err(err).Msg("branch comparison failed, opening pull request anyway")
	case len(diff) == 0:
		res.Succeeded = true
		res.Message = fmt.Sprintf("Branch %s created, but no differences to review.", branch)
		return res
	}

	data := TemplateData{Issue: opts.Issue, Branch: branch, Base: base, Files: res.Updated}
	pr, err := p.pullRequest(data)
	if err != nil {
		res.Message = fmt.Sprintf("Branch %s was pushed, but the pull request text could not be rendered: %v", branch, err)
		return res
	}

	url, err := p.repo.CreatePullRequest(ctx, pr)
	if err != nil {
		reason := "the pull request could not be created"
		if errors.Is(err, repo.ErrValidation) {
			reason = "the hosting service rejected the pull request"
		}
		p.log.Warn().Err(err).Str("branch", branch).Msg("pull request failed")
		res.Message = fmt.Sprintf("Branch %s and %d file change(s) persist, but %s: %v", branch, len(res.Updated), reason, err)
		return res
	}

	res.Succeeded = true
	res.PullRequestURL = url
	res.Message = fmt.Sprintf("Created pull request from %s with %d updated file(s).", branch, len(res.Updated))
	return res
}

func (p *Publisher) createBranch(ctx context.Context, branch, base string) error {
	sha, err := p.repo.BranchTip(ctx, base)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", base, err)
	}
	return p.repo.CreateBranch(ctx, branch, sha)
}

// writeFile updates path on branch, creating it when missing. It reports
// false without writing when the branch already has identical content.
func (p *Publisher) writeFile(ctx context.Context, branch, path, content string) (bool, error) {
	cur, err := p.repo.GetFile(ctx, path, branch)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		if err := p.repo.CreateFile(ctx, path, branch, "Create "+path, []byte(content)); err != nil {
			return false, fmt.Errorf("create: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("get: %w", err)
	case string(cur.Content) == content:
		return false, nil
	}

	if err := p.repo.UpdateFile(ctx, path, branch, "Update "+path, []byte(content), cur.SHA); err != nil {
		return false, fmt.Errorf("update: %w", err)
	}
	return true, nil
}

func (p *Publisher) pullRequest(data TemplateData) (repo.PullRequest, error) {
	title, err := tmpl.Render(p.cfg.TitleTemplate, data)
	if err != nil {
		return repo.PullRequest{}, fmt.Errorf("title: %w", err)
	}
	body, err := tmpl.Render(p.cfg.BodyTemplate, data)
	if err != nil {
		return repo.PullRequest{}, fmt.Errorf("body: %w", err)
	}
	return repo.PullRequest{Title: title, Body: body, Head: data.Branch, Base: data.Base}, nil
}

func failed(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}
