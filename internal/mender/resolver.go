// Package mender wires the issue resolution pipeline: issue lookup, relevant
// file discovery, planning, edit building and publishing.
package mender

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/plan"
	"github.com/colonyops/mender/internal/core/publish"
	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/internal/core/search"
	"github.com/colonyops/mender/internal/store/jsonfile"
)

// ErrNoProvider is returned when planning is requested without a model.
var ErrNoProvider = errors.New("no llm provider configured")

// Remote is the GitHub surface the resolver reads from.
type Remote interface {
	search.FileReader
	DefaultBranch(ctx context.Context) (string, error)
	GetIssue(ctx context.Context, number int) (repo.Issue, error)
	Tree(ctx context.Context, ref string) ([]repo.Entry, error)
}

// TreeCache keeps fetched repository trees between runs.
type TreeCache interface {
	Load(ctx context.Context, slug, ref string) ([]repo.Entry, bool, error)
	Save(ctx context.Context, slug, ref string, entries []repo.Entry) error
}

// Attempt is one issue's trip through the pipeline. Fields fill in as the
// attempt advances.
type Attempt struct {
	ID    string
	Issue repo.Issue
	Base  string
	// Tree lists every file path on Base.
	Tree []string

	// Files is the relevant file content handed to the planner.
	Files map[string]string

	RawPlan string
	Plan    plan.ResolutionPlan

	Edits  edits.EditSet
	Report edits.Report
	// Originals holds the current content of every edited path that already
	// exists. Created files are absent.
	Originals map[string]string

	Usage llm.Usage

	loader *search.Loader
}

// Resolver runs the planning and editing stages.
type Resolver struct {
	remote    Remote
	provider  llm.Provider
	finder    *search.Finder
	selector  edits.Selector
	publisher *publish.Publisher
	trees     TreeCache
	cfg       *config.Config
	log       zerolog.Logger
}

// NewResolver builds a Resolver. publisher may be nil when only planning is
// needed.
func NewResolver(cfg *config.Config, remote Remote, provider llm.Provider, publisher *publish.Publisher, log zerolog.Logger) (*Resolver, error) {
	finder, err := search.NewFinder(search.Options{
		Include:          cfg.Search.Include,
		Ignore:           cfg.Search.Ignore,
		Fallback:         cfg.Search.Fallback,
		MaxFiles:         cfg.Search.MaxFiles,
		MinKeywordLength: cfg.Search.MinKeywordLength,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build file finder: %w", err)
	}

	var trees TreeCache
	if cfg.DataDir != "" && cfg.Search.TreeCacheTTL > 0 {
		trees = jsonfile.NewTreeStore(cfg.DataDir, cfg.Search.TreeCacheTTL)
	}

	return &Resolver{
		remote:    remote,
		trees:     trees,
		provider:  provider,
		finder:    finder,
		selector:  edits.Selector{TestDir: cfg.Edits.TestDir},
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "resolver").Logger(),
	}, nil
}

// Plan fetches the issue, gathers relevant files from the default branch and
// asks the model for a resolution plan.
func (r *Resolver) Plan(ctx context.Context, issueNumber int) (*Attempt, error) {
	if r.provider == nil {
		return nil, ErrNoProvider
	}

	a := &Attempt{ID: uuid.NewString()}
	log := r.log.With().Str("attempt", a.ID).Int("issue", issueNumber).Logger()

	issue, err := r.remote.GetIssue(ctx, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("get issue #%d: %w", issueNumber, err)
	}
	a.Issue = issue

	base, err := r.remote.DefaultBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve default branch: %w", err)
	}
	a.Base = base

	tree, err := r.tree(ctx, base, log)
	if err != nil {
		return nil, fmt.Errorf("list files on %s: %w", base, err)
	}
	a.Tree = make([]string, len(tree))
	for i, e := range tree {
		a.Tree[i] = e.Path
	}
	slices.Sort(a.Tree)

	relevant := r.finder.Find(tree, issue.Title, issue.Body)
	log.Debug().Int("tree", len(tree)).Int("relevant", len(relevant)).Msg("files selected")

	a.loader = search.NewLoader(r.remote, base, r.cfg.Search.MaxFileSize, log)
	a.Files = a.loader.Load(ctx, relevant)

	planner := llm.NewPlanner(r.provider, r.cfg.Retry.Policy(), log)
	raw, usage, err := planner.Plan(ctx, issue.Title, issue.Body, a.Files)
	a.Usage = a.Usage.Add(usage)
	if err != nil {
		return a, fmt.Errorf("generate plan: %w", err)
	}
	a.RawPlan = raw

	p, err := plan.Decode(raw)
	if err != nil {
		return a, fmt.Errorf("decode plan: %w", err)
	}
	a.Plan = p

	log.Info().Int("subtasks", len(p.Subtasks)).Msg("plan ready")
	return a, nil
}

// Build turns the attempt's plan into an edit set. Generic edits call the
// model; every other strategy is local.
func (r *Resolver) Build(ctx context.Context, a *Attempt) error {
	if a.loader == nil {
		return errors.New("attempt has no plan")
	}
	log := r.log.With().Str("attempt", a.ID).Logger()

	var editor edits.ContentEditor
	var tracked *llm.Editor
	if r.provider != nil {
		tracked = llm.NewEditor(r.provider, r.cfg.Retry.Policy())
		editor = tracked
	}

	sel := r.selector
	sel.RepoPaths = a.Tree

	tr := &edits.Transformer{Editor: editor, ProjectName: r.projectName()}
	b := edits.NewBuilder(sel, tr, a.loader, r.cfg.Edits.PruneImportsEnabled(), log)
	a.Edits, a.Report = b.Build(ctx, a.Plan, a.Files)

	if tracked != nil {
		a.Usage = a.Usage.Add(tracked.Usage())
	}

	a.Originals = make(map[string]string, len(a.Edits))
	for _, path := range a.Edits.Paths() {
		content, exists, err := a.loader.Content(ctx, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if exists {
			a.Originals[path] = content
		}
	}

	log.Info().
		Int("files", len(a.Edits)).
		Int("unresolved", len(a.Report.Unresolved)).
		Int("failed", len(a.Report.Failed)).
		Msg("edits built")
	return nil
}

// Resolve runs Plan and Build.
func (r *Resolver) Resolve(ctx context.Context, issueNumber int) (*Attempt, error) {
	a, err := r.Plan(ctx, issueNumber)
	if err != nil {
		return a, err
	}
	return a, r.Build(ctx, a)
}

// Publish pushes the attempt's edits to a new branch and opens a pull
// request against its base.
func (r *Resolver) Publish(ctx context.Context, a *Attempt) publish.Result {
	if r.publisher == nil {
		return publish.Result{Message: "No publisher configured."}
	}
	return r.publisher.Publish(ctx, a.Edits, publish.Options{Base: a.Base, Issue: a.Issue.Number})
}

// tree lists the files on ref, reusing a cached tree of the configured
// repository when one is fresh. Cache failures only cost a refetch.
func (r *Resolver) tree(ctx context.Context, ref string, log zerolog.Logger) ([]repo.Entry, error) {
	slug := r.cfg.GitHub.Repo
	if r.trees == nil || slug == "" {
		return r.remote.Tree(ctx, ref)
	}

	entries, ok, err := r.trees.Load(ctx, slug, ref)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("read cached tree")
	case ok:
		log.Debug().Int("files", len(entries)).Msg("using cached tree")
		return entries, nil
	}

	entries, err = r.remote.Tree(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := r.trees.Save(ctx, slug, ref, entries); err != nil {
		log.Warn().Err(err).Msg("save tree cache")
	}
	return entries, nil
}

// projectName titles generated READMEs, falling back to the repository name.
func (r *Resolver) projectName() string {
	if r.cfg.Edits.ProjectName != "" {
		return r.cfg.Edits.ProjectName
	}
	if r.cfg.GitHub.Repo == "" {
		return ""
	}
	return path.Base(r.cfg.GitHub.Repo)
}
