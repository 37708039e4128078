// Package repo holds the types shared by the hosting client and the packages
// that read from or write to a hosted repository.
package repo

import "errors"

var (
	// ErrNotFound is returned when a branch, file or repository does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when the hosting service rejects a request as
	// invalid, for example a duplicate pull request.
	ErrValidation = errors.New("validation failed")
)

// File is a file read from a branch.
type File struct {
	Path    string
	SHA     string
	Size    int
	Content []byte
}

// Entry is a blob in a repository tree.
type Entry struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// Issue is an open issue.
type Issue struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	URL    string   `json:"url"`
	Labels []string `json:"labels,omitempty"`
}

// PullRequest is a pull request to open.
type PullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}
