// Package search picks the repository files relevant to an issue and loads
// their content.
package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/colonyops/mender/internal/core/repo"
)

const (
	DefaultMaxFiles         = 20
	DefaultMaxFileSize      = 100_000
	DefaultMinKeywordLength = 3
)

// DefaultFallback is used when no file matches an issue keyword.
var DefaultFallback = []string{"**/*.py"}

// Options configure a Finder. Zero values take the defaults above.
type Options struct {
	Include          []string
	Ignore           []string
	Fallback         []string
	MaxFiles         int
	MinKeywordLength int
}

// Finder matches issue keywords against repository paths.
type Finder struct {
	opts   Options
	ignore *ignore.GitIgnore
	log    zerolog.Logger
}

func NewFinder(opts Options, log zerolog.Logger) (*Finder, error) {
	for _, globs := range [][]string{opts.Include, opts.Fallback} {
		for _, g := range globs {
			if !doublestar.ValidatePattern(g) {
				return nil, fmt.Errorf("invalid glob %q", g)
			}
		}
	}
	if opts.Fallback == nil {
		opts.Fallback = DefaultFallback
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MinKeywordLength <= 0 {
		opts.MinKeywordLength = DefaultMinKeywordLength
	}

	f := &Finder{opts: opts, log: log.With().Str("component", "search").Logger()}
	if len(opts.Ignore) > 0 {
		f.ignore = ignore.CompileIgnoreLines(opts.Ignore...)
	}
	return f, nil
}

var stopwords = map[string]bool{
	"and": true, "are": true, "but": true, "for": true, "from": true,
	"has": true, "have": true, "not": true, "that": true, "the": true,
	"this": true, "when": true, "with": true, "was": true, "should": true,
}

// Keywords splits title and body on whitespace and returns the distinct
// lower-cased words, trimmed of punctuation, that are at least minLen long.
func Keywords(title, body string, minLen int) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title + " " + body)) {
		w = strings.Trim(w, ".,:;!?()[]{}<>\"'`*#")
		if len(w) < minLen || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Find returns up to MaxFiles entries relevant to the issue. Entries whose
// path matches more keywords come first. When nothing matches, the fallback
// globs are used.
func (f *Finder) Find(entries []repo.Entry, title, body string) []repo.Entry {
	candidates := make([]repo.Entry, 0, len(entries))
	for _, e := range entries {
		if f.allowed(e.Path) {
			candidates = append(candidates, e)
		}
	}
	slices.SortFunc(candidates, func(a, b repo.Entry) int { return strings.Compare(a.Path, b.Path) })

	keywords := Keywords(title, body, f.opts.MinKeywordLength)
	f.log.Debug().Strs("keywords", keywords).Int("candidates", len(candidates)).Msg("searching files")

	type scored struct {
		entry repo.Entry
		score int
	}
	var matches []scored
	for _, e := range candidates {
		lower := strings.ToLower(e.Path)
		score := 0
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{entry: e, score: score})
		}
	}

	if len(matches) == 0 {
		f.log.Info().Strs("fallback", f.opts.Fallback).Msg("no relevant files found, using fallback globs")
		return f.limit(f.fallback(candidates))
	}

	slices.SortStableFunc(matches, func(a, b scored) int { return b.score - a.score })
	found := make([]repo.Entry, len(matches))
	for i, m := range matches {
		found[i] = m.entry
	}
	return f.limit(found)
}

func (f *Finder) allowed(p string) bool {
	if f.ignore != nil && f.ignore.MatchesPath(p) {
		return false
	}
	if len(f.opts.Include) == 0 {
		return true
	}
	return matchAny(f.opts.Include, p)
}

func (f *Finder) fallback(candidates []repo.Entry) []repo.Entry {
	var out []repo.Entry
	for _, e := range candidates {
		if matchAny(f.opts.Fallback, e.Path) {
			out = append(out, e)
		}
	}
	return out
}

func (f *Finder) limit(found []repo.Entry) []repo.Entry {
	if len(found) > f.opts.MaxFiles {
		f.log.Debug().Int("found", len(found)).Int("max", f.opts.MaxFiles).Msg("truncating relevant files")
		return found[:f.opts.MaxFiles]
	}
	return found
}

func matchAny(globs []string, p string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
	}
	return false
}
