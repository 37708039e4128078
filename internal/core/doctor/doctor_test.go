package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type branchFunc func(ctx context.Context) (string, error)

func (f branchFunc) DefaultBranch(ctx context.Context) (string, error) { return f(ctx) }

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := getenv
	t.Cleanup(func() { getenv = orig })
	getenv = func(k string) string { return env[k] }
}

func TestGitHubCheck(t *testing.T) {
	reachable := branchFunc(func(context.Context) (string, error) { return "main", nil })
	broken := branchFunc(func(context.Context) (string, error) { return "", errors.New("HTTP 404") })

	tests := []struct {
		name        string
		remote      BranchResolver
		repo        string
		env         map[string]string
		tokenStatus Status
		repoStatus  Status
	}{
		{"healthy", reachable, "octo/widgets", map[string]string{"GITHUB_TOKEN": "x"}, StatusPass, StatusPass},
		{"no token", reachable, "octo/widgets", nil, StatusWarn, StatusPass},
		{"no repo", reachable, "", nil, StatusWarn, StatusFail},
		{"unreachable", broken, "octo/widgets", nil, StatusWarn, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)

			result := NewGitHubCheck(tt.remote, tt.repo, "GITHUB_TOKEN").Run(context.Background())
			require.Len(t, result.Items, 2)
			assert.Equal(t, tt.tokenStatus, result.Items[0].Status)
			assert.Equal(t, tt.repoStatus, result.Items[1].Status)
		})
	}
}

func TestModelCheck(t *testing.T) {
	ok := NewModelCheck("openai", "gpt-3.5-turbo", nil).Run(context.Background())
	require.Len(t, ok.Items, 1)
	assert.Equal(t, StatusPass, ok.Items[0].Status)
	assert.Equal(t, "openai gpt-3.5-turbo", ok.Items[0].Label)

	bad := NewModelCheck("openai", "", errors.New("API key is required")).Run(context.Background())
	assert.Equal(t, StatusFail, bad.Items[0].Status)
	assert.Equal(t, "API key is required", bad.Items[0].Detail)
}

func TestRunAllAndSummary(t *testing.T) {
	withEnv(t, nil)
	checks := []Check{
		NewModelCheck("ollama", "llama3", nil),
		NewGitHubCheck(nil, "", "GITHUB_TOKEN"),
	}

	results := RunAll(context.Background(), checks)
	require.Len(t, results, 2)

	passed, warned, failed := Summary(results)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)
}
