package edits

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/plan"
)

// EditSet maps repository-relative paths to full new file content. Only
// changed files are present.
type EditSet map[string]string

// Paths returns the edited paths in sorted order.
func (e EditSet) Paths() []string {
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// ContentSource looks up files that are not in the map handed to Build.
// exists is false when the file does not exist in the repository.
type ContentSource interface {
	Content(ctx context.Context, path string) (content string, exists bool, err error)
}

// Change records one entry of the edit set and how it was produced.
type Change struct {
	Path     string
	Strategy Strategy
	Subtask  string
	Created  bool
}

// Report summarizes a Build.
type Report struct {
	Changes    []Change
	Unresolved []Unresolved
	Failed     []*TransformError
}

// Builder turns a plan into an edit set.
type Builder struct {
	Selector    Selector
	Transformer *Transformer
	Source      ContentSource
	// PruneImports also prunes every known file that no subtask edited.
	PruneImports bool

	log zerolog.Logger
}

func NewBuilder(sel Selector, tr *Transformer, src ContentSource, pruneImports bool, log zerolog.Logger) *Builder {
	return &Builder{
		Selector:     sel,
		Transformer:  tr,
		Source:       src,
		PruneImports: pruneImports,
		log:          log.With().Str("component", "edits").Logger(),
	}
}

// Build selects and applies a unit for every subtask. Each unit starts from
// the original content, so when several units target one file the last one
// wins. Failed transforms are logged and reported, never returned.
func (b *Builder) Build(ctx context.Context, p plan.ResolutionPlan, files map[string]string) (EditSet, Report) {
	var (
		set    = EditSet{}
		report Report
		index  = map[string]int{}
	)

	sel := b.Selector.Select(p.Subtasks, files)
	for _, u := range sel.Unresolved {
		b.log.Info().Str("subtask", u.Subtask.Description).Str("reason", u.Reason).Msg("subtask unresolved")
	}
	report.Unresolved = sel.Unresolved

	record := func(c Change) {
		if i, ok := index[c.Path]; ok {
			report.Changes[i] = c
			return
		}
		index[c.Path] = len(report.Changes)
		report.Changes = append(report.Changes, c)
	}

	for _, u := range sel.Units {
		original, exists, err := b.lookup(ctx, u.Target, files)
		if err != nil {
			b.fail(&report, &TransformError{Path: u.Target, Strategy: u.Strategy, Err: err})
			continue
		}

		out, err := b.Transformer.Transform(ctx, u, original, exists)
		if err != nil {
			var te *TransformError
			if !errors.As(err, &te) {
				te = &TransformError{Path: u.Target, Strategy: u.Strategy, Err: err}
			}
			b.fail(&report, te)
			continue
		}

		if exists && out == original {
			b.log.Debug().Str("path", u.Target).Stringer("strategy", u.Strategy).Msg("no change")
			continue
		}

		set[u.Target] = out
		record(Change{Path: u.Target, Strategy: u.Strategy, Subtask: u.Subtask.Description, Created: !exists})
		b.log.Debug().Str("path", u.Target).Stringer("strategy", u.Strategy).Bool("created", !exists).Msg("file edited")
	}

	if b.PruneImports {
		for _, path := range sortedPaths(files) {
			if _, edited := set[path]; edited {
				continue
			}
			if _, ok := ImportFamily(path); !ok {
				continue
			}
			original := files[path]
			if IsPlaceholder(original) {
				continue
			}
			if pruned := PruneImports(path, original); pruned != original {
				set[path] = pruned
				record(Change{Path: path, Strategy: StrategyPruneImports})
			}
		}
	}

	return set, report
}

func (b *Builder) lookup(ctx context.Context, path string, files map[string]string) (string, bool, error) {
	if content, ok := files[path]; ok {
		return content, true, nil
	}
	if b.Source == nil {
		return "", false, nil
	}
	return b.Source.Content(ctx, path)
}

func (b *Builder) fail(r *Report, err *TransformError) {
	b.log.Warn().Err(err.Err).Str("path", err.Path).Stringer("strategy", err.Strategy).Msg("transform failed")
	r.Failed = append(r.Failed, err)
}
