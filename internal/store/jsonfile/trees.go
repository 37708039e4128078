// Package jsonfile stores mender state as JSON files under the data directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/colonyops/mender/internal/core/repo"
)

// TreeFile is the JSON structure stored for one repository.
type TreeFile struct {
	Repo      string       `json:"repo"`
	Ref       string       `json:"ref"`
	FetchedAt time.Time    `json:"fetched_at"`
	Entries   []repo.Entry `json:"entries"`
}

// TreeStore keeps the last fetched file tree of each repository in
// <dir>/<owner>_<name>_structure.json. Entries older than the TTL are
// treated as missing.
type TreeStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// NewTreeStore creates a store rooted at dir.
func NewTreeStore(dir string, ttl time.Duration) *TreeStore {
	return &TreeStore{dir: dir, ttl: ttl, now: time.Now}
}

// Path returns the file backing slug.
func (s *TreeStore) Path(slug string) string {
	return filepath.Join(s.dir, strings.ReplaceAll(slug, "/", "_")+"_structure.json")
}

// Load returns the stored tree of slug at ref. ok is false when nothing
// usable is stored.
func (s *TreeStore) Load(_ context.Context, slug, ref string) ([]repo.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var file TreeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.Path(slug), err)
	}

	if file.Repo != slug || file.Ref != ref {
		return nil, false, nil
	}
	if s.now().Sub(file.FetchedAt) > s.ttl {
		return nil, false, nil
	}

	return file.Entries, true, nil
}

// Save writes the tree of slug at ref to disk atomically.
func (s *TreeStore) Save(_ context.Context, slug, ref string, entries []repo.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(TreeFile{
		Repo:      slug,
		Ref:       ref,
		FetchedAt: s.now().UTC(),
		Entries:   entries,
	}, "", "  ")
	if err != nil {
		return err
	}

	path := s.Path(slug)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
