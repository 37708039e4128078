// Package validate provides shared validation functions.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"
)

var slugPart = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RepoSlug validates an owner/name repository identifier.
func RepoSlug(slug string) error {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || strings.Contains(name, "/") {
		return fmt.Errorf("repository %q must be in owner/name form", slug)
	}
	if !slugPart.MatchString(owner) || !slugPart.MatchString(name) {
		return fmt.Errorf("repository %q contains invalid characters", slug)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("repository %q has an invalid name", slug)
	}
	return nil
}

// RepoSlugField returns a criterio validator for repository identifiers.
func RepoSlugField(field, slug string) error {
	return criterio.Run(field, slug, RepoSlug)
}

// ParseRepo accepts either owner/name or a GitHub URL such as
// https://github.com/owner/name(.git) and returns the owner/name slug.
func ParseRepo(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("repository is required")
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("parse repository url: %w", err)
		}
		if u.Host != "github.com" && u.Host != "www.github.com" {
			return "", fmt.Errorf("repository url %q is not a github.com url", s)
		}
		s = strings.Trim(u.Path, "/")
	} else if rest, ok := strings.CutPrefix(s, "git@github.com:"); ok {
		s = rest
	}

	s = strings.TrimSuffix(s, ".git")
	if err := RepoSlug(s); err != nil {
		return "", err
	}
	return s, nil
}

var invalidRef = regexp.MustCompile(`[\s~^:?*\[\\]|\.\.|@\{|//`)

// BranchName rejects strings git refuses as a ref component. An empty
// string is allowed so that callers can validate prefixes.
func BranchName(name string) error {
	if invalidRef.MatchString(name) {
		return fmt.Errorf("branch name %q contains characters git does not allow", name)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("branch name %q has an invalid first character", name)
	}
	return nil
}
