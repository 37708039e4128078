// Package config handles configuration loading and validation for mender.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/publish"
	"github.com/colonyops/mender/internal/core/search"
	"github.com/colonyops/mender/internal/core/styles"
	"github.com/colonyops/mender/pkg/retry"
)

// Config holds the application configuration.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	LLM     LLMConfig     `yaml:"llm"`
	Retry   RetryConfig   `yaml:"retry"`
	Search  SearchConfig  `yaml:"search"`
	Edits   EditsConfig   `yaml:"edits"`
	Publish PublishConfig `yaml:"publish"`
	Theme   string        `yaml:"theme"`
	DataDir string        `yaml:"-"` // set by caller, not from config file
}

// GitHubConfig configures the gh CLI transport.
type GitHubConfig struct {
	Repo     string `yaml:"repo"`      // default owner/name, overridden by --repo
	GHPath   string `yaml:"gh_path"`   // gh binary
	TokenEnv string `yaml:"token_env"` // env var holding a token passed to gh as GH_TOKEN
}

// LLMConfig configures the chat model used for planning and edits.
type LLMConfig struct {
	Provider  string        `yaml:"provider"` // openai or ollama
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RetryConfig bounds retries of remote calls.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// Policy converts the retry settings for pkg/retry.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{Attempts: r.Attempts, Delay: r.Delay}
}

// SearchConfig controls relevant file discovery.
type SearchConfig struct {
	Include          []string `yaml:"include"`  // doublestar globs; empty means every file
	Ignore           []string `yaml:"ignore"`   // gitignore syntax
	Fallback         []string `yaml:"fallback"` // globs used when no keyword matches
	MaxFiles         int      `yaml:"max_files"`
	MaxFileSize      int      `yaml:"max_file_size"`
	MinKeywordLength int      `yaml:"min_keyword_length"`

	// TreeCacheTTL is how long a fetched repository tree is reused from the
	// data directory. 0 disables the cache.
	TreeCacheTTL time.Duration `yaml:"tree_cache_ttl"`
}

// EditsConfig controls how plans become file edits.
type EditsConfig struct {
	TestDir      string `yaml:"test_dir"`
	PruneImports *bool  `yaml:"prune_imports"` // nil means enabled
	ProjectName  string `yaml:"project_name"`  // title for generated READMEs
}

// PruneImportsEnabled reports whether import pruning runs over every loaded
// file.
func (e EditsConfig) PruneImportsEnabled() bool {
	return e.PruneImports == nil || *e.PruneImports
}

// PublishConfig controls branch naming and pull request text.
type PublishConfig struct {
	BranchPrefix  string `yaml:"branch_prefix"`
	TitleTemplate string `yaml:"title_template"`
	BodyTemplate  string `yaml:"body_template"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			GHPath:   "gh",
			TokenEnv: "GITHUB_TOKEN",
		},
		LLM: LLMConfig{
			Provider:  llm.ProviderOpenAI,
			Model:     llm.DefaultOpenAIModel,
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   llm.DefaultTimeout,
		},
		Retry: RetryConfig{
			Attempts: retry.DefaultPolicy.Attempts,
			Delay:    retry.DefaultPolicy.Delay,
		},
		Search: SearchConfig{
			Fallback:         slices.Clone(search.DefaultFallback),
			MaxFiles:         search.DefaultMaxFiles,
			MaxFileSize:      search.DefaultMaxFileSize,
			MinKeywordLength: search.DefaultMinKeywordLength,
			TreeCacheTTL:     time.Hour,
		},
		Edits: EditsConfig{
			TestDir: edits.DefaultTestDir,
		},
		Publish: PublishConfig{
			BranchPrefix:  publish.DefaultBranchPrefix,
			TitleTemplate: publish.DefaultTitleTemplate,
			BodyTemplate:  publish.DefaultBodyTemplate,
		},
		Theme: styles.DefaultTheme,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.GitHub.GHPath == "" {
		c.GitHub.GHPath = defaults.GitHub.GHPath
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = defaults.GitHub.TokenEnv
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaults.LLM.Provider
	}
	if c.LLM.Model == "" && c.LLM.Provider == defaults.LLM.Provider {
		c.LLM.Model = defaults.LLM.Model
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = defaults.LLM.APIKeyEnv
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = defaults.LLM.Timeout
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = defaults.Retry.Attempts
	}
	if c.Search.Fallback == nil {
		c.Search.Fallback = defaults.Search.Fallback
	}
	if c.Search.MaxFiles == 0 {
		c.Search.MaxFiles = defaults.Search.MaxFiles
	}
	if c.Search.MaxFileSize == 0 {
		c.Search.MaxFileSize = defaults.Search.MaxFileSize
	}
	if c.Search.MinKeywordLength == 0 {
		c.Search.MinKeywordLength = defaults.Search.MinKeywordLength
	}
	if c.Edits.TestDir == "" {
		c.Edits.TestDir = defaults.Edits.TestDir
	}
	if c.Publish.BranchPrefix == "" {
		c.Publish.BranchPrefix = defaults.Publish.BranchPrefix
	}
	if c.Publish.TitleTemplate == "" {
		c.Publish.TitleTemplate = defaults.Publish.TitleTemplate
	}
	if c.Publish.BodyTemplate == "" {
		c.Publish.BodyTemplate = defaults.Publish.BodyTemplate
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}
