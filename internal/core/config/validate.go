package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/mender/internal/core/publish"
	"github.com/colonyops/mender/internal/core/styles"
	"github.com/colonyops/mender/internal/core/validate"
	"github.com/colonyops/mender/pkg/tmpl"
)

// Validate checks that the configuration is valid. All problems are reported
// together as criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("github.repo", c.GitHub.Repo, optional(validate.RepoSlug)),
		criterio.Run("github.gh_path", c.GitHub.GHPath, required),
		criterio.Run("llm.provider", c.LLM.Provider, oneOf("openai", "ollama")),
		c.validateModel(),
		criterio.Run("llm.timeout", c.LLM.Timeout, nonNegative),
		criterio.Run("retry.attempts", c.Retry.Attempts, atLeast(1)),
		criterio.Run("retry.delay", c.Retry.Delay, nonNegative),
		globs("search.include", c.Search.Include),
		globs("search.fallback", c.Search.Fallback),
		criterio.Run("search.max_files", c.Search.MaxFiles, atLeast(1)),
		criterio.Run("search.max_file_size", c.Search.MaxFileSize, atLeast(1)),
		criterio.Run("search.min_keyword_length", c.Search.MinKeywordLength, atLeast(1)),
		criterio.Run("search.tree_cache_ttl", c.Search.TreeCacheTTL, nonNegative),
		criterio.Run("edits.test_dir", c.Edits.TestDir, relativeDir),
		criterio.Run("publish.branch_prefix", c.Publish.BranchPrefix, validate.BranchName),
		criterio.Run("publish.title_template", c.Publish.TitleTemplate, publishTemplate),
		criterio.Run("publish.body_template", c.Publish.BodyTemplate, publishTemplate),
		criterio.Run("theme", c.Theme, oneOf(styles.ThemeNames()...)),
	)
}

func (c *Config) validateModel() error {
	if c.LLM.Provider == "ollama" && c.LLM.Model == "" {
		return criterio.NewFieldErrors("llm.model", errors.New("is required for the ollama provider"))
	}
	return nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("is required")
	}
	return nil
}

func optional(fn func(string) error) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		return fn(s)
	}
}

func oneOf(values ...string) func(string) error {
	return func(s string) error {
		for _, v := range values {
			if s == v {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(values, ", "))
	}
}

func atLeast(min int) func(int) error {
	return func(n int) error {
		if n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
}

func nonNegative(d time.Duration) error {
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func relativeDir(dir string) error {
	if path.IsAbs(dir) {
		return errors.New("must be relative to the repository root")
	}
	for _, seg := range strings.Split(dir, "/") {
		if seg == ".." {
			return errors.New("must not leave the repository")
		}
	}
	return nil
}

func globs(field string, patterns []string) error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("%s[%d]", field, i), fmt.Errorf("invalid glob %q", p))
		}
	}
	return errs.ToError()
}

// publishTemplate renders tmplStr against sample data so typos in field
// names fail at load time.
func publishTemplate(tmplStr string) error {
	return tmpl.Check(tmplStr, publish.TemplateData{
		Issue:  1,
		Branch: "fix-issue-1",
		Base:   "main",
		Files:  []string{"README.md"},
	})
}
