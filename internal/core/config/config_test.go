package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	want := DefaultConfig()
	want.DataDir = dataDir
	assert.Equal(t, want, *cfg)
	assert.True(t, cfg.Edits.PruneImportsEnabled())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("", "/tmp/mender")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mender", cfg.DataDir)
	assert.Equal(t, "gh", cfg.GitHub.GHPath)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
github:
  repo: octo/widgets
llm:
  provider: ollama
  model: llama3
  timeout: 2m
retry:
  delay: 1s
search:
  include: ["src/**/*.py"]
  ignore: ["vendor/"]
edits:
  prune_imports: false
  project_name: Widgets
publish:
  branch_prefix: mender/issue-
`)

	cfg, err := Load(path, "/data")
	require.NoError(t, err)

	assert.Equal(t, "octo/widgets", cfg.GitHub.Repo)
	assert.Equal(t, "gh", cfg.GitHub.GHPath, "unset fields keep defaults")
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.Equal(t, []string{"src/**/*.py"}, cfg.Search.Include)
	assert.Equal(t, []string{"vendor/"}, cfg.Search.Ignore)
	assert.Equal(t, []string{"**/*.py"}, cfg.Search.Fallback)
	assert.Equal(t, 20, cfg.Search.MaxFiles)
	assert.False(t, cfg.Edits.PruneImportsEnabled())
	assert.Equal(t, "Widgets", cfg.Edits.ProjectName)
	assert.Equal(t, "tests", cfg.Edits.TestDir)
	assert.Equal(t, "mender/issue-", cfg.Publish.BranchPrefix)
	assert.Equal(t, "/data", cfg.DataDir)
}

func TestLoad_ExplicitEmptyFallbackIsKept(t *testing.T) {
	path := writeConfig(t, "search:\n  fallback: []\n")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Empty(t, cfg.Search.Fallback)
	assert.NotNil(t, cfg.Search.Fallback)
}

func TestLoad_TreeCacheTTL(t *testing.T) {
	cfg, err := Load(writeConfig(t, "theme: gruvbox\n"), "")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Search.TreeCacheTTL)

	cfg, err = Load(writeConfig(t, "search:\n  tree_cache_ttl: 0s\n"), "")
	require.NoError(t, err)
	assert.Zero(t, cfg.Search.TreeCacheTTL, "explicit zero disables the cache")
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "github: [unterminated\n")

	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "github:\n  repo: not-a-slug\n")

	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "github.repo")
}

func TestApplyDefaults_OllamaKeepsEmptyModel(t *testing.T) {
	cfg := Config{LLM: LLMConfig{Provider: "ollama"}}
	cfg.applyDefaults()
	assert.Empty(t, cfg.LLM.Model, "the openai default model makes no sense for ollama")
}

func TestRetryConfig_Policy(t *testing.T) {
	p := RetryConfig{Attempts: 4, Delay: time.Second}.Policy()
	assert.Equal(t, 4, p.Attempts)
	assert.Equal(t, time.Second, p.Delay)
}
