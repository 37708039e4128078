package doctor

import (
	"context"
	"fmt"
	"os"
)

// BranchResolver looks up a repository's default branch.
type BranchResolver interface {
	DefaultBranch(ctx context.Context) (string, error)
}

// getenv is swapped in tests.
var getenv = os.Getenv

// GitHubCheck verifies the repository is set and reachable through gh.
type GitHubCheck struct {
	remote   BranchResolver
	repo     string
	tokenEnv string
}

func NewGitHubCheck(remote BranchResolver, repo, tokenEnv string) *GitHubCheck {
	return &GitHubCheck{remote: remote, repo: repo, tokenEnv: tokenEnv}
}

func (c *GitHubCheck) Name() string {
	return "GitHub"
}

func (c *GitHubCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.tokenEnv != "" && getenv(c.tokenEnv) != "" {
		result.Items = append(result.Items, CheckItem{
			Label:  "token",
			Status: StatusPass,
			Detail: "using $" + c.tokenEnv,
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "token",
			Status: StatusWarn,
			Detail: fmt.Sprintf("$%s is not set; gh falls back to its own login", c.tokenEnv),
		})
	}

	if c.repo == "" {
		result.Items = append(result.Items, CheckItem{
			Label:  "repository",
			Status: StatusFail,
			Detail: "not set; pass --repo or set github.repo",
		})
		return result
	}

	branch, err := c.remote.DefaultBranch(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "repository",
			Status: StatusFail,
			Detail: fmt.Sprintf("%s: %v", c.repo, err),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "repository",
		Status: StatusPass,
		Detail: fmt.Sprintf("%s (default branch %s)", c.repo, branch),
	})
	return result
}
