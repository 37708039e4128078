package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/pkg/iojson"
)

func TestIssueArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantOK  bool
		wantErr bool
	}{
		{name: "none", args: nil},
		{name: "plain", args: []string{"12"}, want: 12, wantOK: true},
		{name: "hash prefix", args: []string{"#12"}, want: 12, wantOK: true},
		{name: "not a number", args: []string{"twelve"}, wantErr: true},
		{name: "zero", args: []string{"0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got, gotOK = 0, false
				gotErr     error
			)
			cmd := &cli.Command{
				Name: "test",
				Action: func(_ context.Context, c *cli.Command) error {
					got, gotOK, gotErr = issueArg(c)
					return nil
				},
			}
			require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, tt.args...)))

			if tt.wantErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.want, got)
		})
	}
}

func runNormalize(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := &cli.Command{Name: "mender", Writer: &out, ErrWriter: &errOut}
	cmd := &NormalizeCmd{in: iojson.NewInput(strings.NewReader(input))}
	cmd.Register(root)

	err := root.Run(context.Background(), append([]string{"mender", "normalize"}, args...))
	return out.String(), err
}

func TestNormalizeCmd(t *testing.T) {
	reply := "Plan follows.\n```json\n" + `{
  "issue_analysis": "missing tests",
  "subtasks": {"description": "Create test file for widgets", "estimated_time": "1h"},
  "dependencies": "pytest",
  "potential_challenges": [],
  "testing_strategy": "unit",
  "documentation_updates": []
}` + "\n```"

	t.Run("strict", func(t *testing.T) {
		out, err := runNormalize(t, reply)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, []any{"pytest"}, got["dependencies"])
		require.Len(t, got["subtasks"], 1)
	})

	t.Run("lenient keeps partial objects", func(t *testing.T) {
		out, err := runNormalize(t, `{"subtasks": "write docs"}`, "--lenient")
		require.NoError(t, err)
		assert.Contains(t, out, `"subtasks"`)
	})

	t.Run("invalid plan", func(t *testing.T) {
		_, err := runNormalize(t, `{"subtasks": []}`)
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := runNormalize(t, "no plan today")
		require.Error(t, err)
	})
}

func TestFieldData(t *testing.T) {
	assert.Nil(t, fieldData(errors.New("plain")))

	err := criterio.NewFieldErrors("subtasks", errors.New("is required"))
	data := fieldData(err)
	require.NotNil(t, data)
	assert.Equal(t, map[string]any{"subtasks": "is required"}, data["fields"])
}

func TestPublishInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   PublishInput
		wantErr bool
	}{
		{name: "valid", input: PublishInput{Files: map[string]string{"README.md": "# x\n"}, Issue: 3}},
		{name: "no files", input: PublishInput{}, wantErr: true},
		{name: "absolute path", input: PublishInput{Files: map[string]string{"/etc/passwd": "x"}}, wantErr: true},
		{name: "blank path", input: PublishInput{Files: map[string]string{" ": "x"}}, wantErr: true},
		{name: "negative issue", input: PublishInput{Files: map[string]string{"a.py": "x"}, Issue: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestCollectIssues(t *testing.T) {
	assert.Nil(t, collectIssues(nil))

	_, err := config.Load(writeBadConfig(t), "")
	issues := collectIssues(err)
	require.Len(t, issues, 2)
	assert.ElementsMatch(t, []string{"github.repo", "retry.attempts"}, []string{issues[0].Field, issues[1].Field})

	plain := collectIssues(errors.New("parse config file: boom"))
	require.Len(t, plain, 1)
	assert.Empty(t, plain[0].Field)
}

func writeBadConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeFile(path, "github:\n  repo: nope\nretry:\n  attempts: -2\n"))
	return path
}

func TestFlags_RequireRepo(t *testing.T) {
	f := &Flags{}
	require.Error(t, f.requireRepo())

	cfg := config.DefaultConfig()
	cfg.GitHub.Repo = "octo/widgets"
	f.Config = &cfg
	require.NoError(t, f.requireRepo())
}

func TestFlags_ModelError(t *testing.T) {
	f := &Flags{ProviderErr: errors.New("API key is required for the openai provider")}

	err := f.modelError(mender.ErrNoProvider)
	require.ErrorIs(t, err, mender.ErrNoProvider)
	assert.Contains(t, err.Error(), "API key")

	other := errors.New("boom")
	assert.Equal(t, other, f.modelError(other))
}

func TestRenderDiff(t *testing.T) {
	out := renderDiff("widgets.py", "a\nb\n", "a\nc\n", 1)
	assert.Contains(t, out, "--- a/widgets.py")
	assert.Contains(t, out, "-b")
	assert.Contains(t, out, "+c")
}

func TestUsageLine(t *testing.T) {
	got := usageLine(llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	assert.Equal(t, "Tokens used: 10 prompt + 5 completion = 15 total", got)
}

func TestChangeLine(t *testing.T) {
	got := changeLine(edits.Change{Path: "tests/test_widgets.py", Strategy: edits.StrategyCreateTestFile, Created: true})
	assert.Contains(t, got, "create tests/test_widgets.py")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
