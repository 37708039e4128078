package search

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/pkg/kv"
)

// FileReader reads a file at a ref.
type FileReader interface {
	GetFile(ctx context.Context, path, ref string) (repo.File, error)
}

// Loader reads file content from one ref as text. Oversized and binary files
// come back as placeholders. It implements edits.ContentSource.
type Loader struct {
	files   FileReader
	ref     string
	maxSize int
	cache   *kv.Store[string, content]
	log     zerolog.Logger
}

type content struct {
	text   string
	exists bool
}

// NewLoader reads from ref, or the default branch when ref is empty.
func NewLoader(files FileReader, ref string, maxSize int, log zerolog.Logger) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Loader{
		files:   files,
		ref:     ref,
		maxSize: maxSize,
		cache:   kv.New[string, content](),
		log:     log.With().Str("component", "loader").Logger(),
	}
}

// Content returns the text of path. exists is false when the file is missing.
func (l *Loader) Content(ctx context.Context, path string) (string, bool, error) {
	c, err := l.cache.Load(path, func() (content, error) {
		f, err := l.files.GetFile(ctx, path, l.ref)
		if errors.Is(err, repo.ErrNotFound) {
			return content{}, nil
		}
		if err != nil {
			return content{}, err
		}
		return content{text: l.decode(f), exists: true}, nil
	})
	return c.text, c.exists, err
}

func (l *Loader) decode(f repo.File) string {
	size := f.Size
	if size == 0 {
		size = len(f.Content)
	}
	if size > l.maxSize {
		return edits.OversizePlaceholder(size)
	}
	if !utf8.Valid(f.Content) || bytes.IndexByte(f.Content, 0) >= 0 {
		return edits.BinaryPlaceholder(len(f.Content))
	}
	return string(f.Content)
}

// Load reads every entry. Entries known to be oversized are not fetched, and
// files that fail to load are logged and left out.
func (l *Loader) Load(ctx context.Context, entries []repo.Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Size > l.maxSize {
			out[e.Path] = edits.OversizePlaceholder(e.Size)
			continue
		}

		text, exists, err := l.Content(ctx, e.Path)
		switch {
		case err != nil:
			l.log.Warn().Err(err).Str("path", e.Path).Msg("failed to load file")
		case !exists:
			l.log.Warn().Str("path", e.Path).Msg("file disappeared")
		default:
			out[e.Path] = text
		}
	}
	return out
}
