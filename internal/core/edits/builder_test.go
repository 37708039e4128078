package edits

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mender/internal/core/plan"
)

type fakeSource struct {
	files map[string]string
	err   error
	calls []string
}

func (f *fakeSource) Content(_ context.Context, path string) (string, bool, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return "", false, f.err
	}
	c, ok := f.files[path]
	return c, ok, nil
}

func newTestBuilder(editor ContentEditor, src ContentSource, prune bool) *Builder {
	return NewBuilder(Selector{}, &Transformer{Editor: editor, ProjectName: "demo"}, src, prune, zerolog.New(io.Discard))
}

func upper() EditorFunc {
	return func(_ context.Context, content, _, _ string) (string, error) {
		return strings.ToUpper(content), nil
	}
}

func TestBuilder_Build(t *testing.T) {
	files := map[string]string{
		"app.py":    "x = 1\n",
		"README.md": "# Demo\n",
	}
	p := plan.ResolutionPlan{
		Subtasks: []plan.Subtask{
			subtask("Create test file for app"),
			subtask("Update README with test instructions"),
			subtask("Rename variable in app.py"),
			subtask("Think about caching"),
		},
	}

	set, report := newTestBuilder(upper(), nil, false).Build(context.Background(), p, files)

	assert.Equal(t, []string{"README.md", "app.py", "tests/test_app.py"}, set.Paths())
	assert.Equal(t, "X = 1\n", set["app.py"])
	assert.True(t, HasRunningTests(set["README.md"]))
	assert.Contains(t, set["tests/test_app.py"], "import app")

	require.Len(t, report.Changes, 3)
	assert.Equal(t, Change{Path: "tests/test_app.py", Strategy: StrategyCreateTestFile, Subtask: "Create test file for app", Created: true}, report.Changes[0])
	assert.Equal(t, StrategyUpdateReadme, report.Changes[1].Strategy)
	assert.False(t, report.Changes[1].Created)

	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, "Think about caching", report.Unresolved[0].Subtask.Description)
	assert.Empty(t, report.Failed)
}

func TestBuilder_NoOpExcluded(t *testing.T) {
	files := map[string]string{
		"app.py":    "x = 1\n",
		"README.md": "# Demo\n\n## Running Tests\n\nmake test\n",
	}
	identity := EditorFunc(func(_ context.Context, content, _, _ string) (string, error) {
		return "```\n" + content + "```", nil
	})
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{
		subtask("tidy app.py"),
		subtask("update readme"),
	}}

	set, report := newTestBuilder(identity, nil, false).Build(context.Background(), p, files)

	assert.Empty(t, set)
	assert.Empty(t, report.Changes)
}

func TestBuilder_FailedTransformContinues(t *testing.T) {
	files := map[string]string{"a.py": "a = 1\n", "b.py": "b = 1\n"}
	editor := EditorFunc(func(_ context.Context, content, _, _ string) (string, error) {
		if strings.HasPrefix(content, "a") {
			return "", errors.New("rate limited")
		}
		return "b = 2\n", nil
	})
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{subtask("fix a.py and b.py")}}

	set, report := newTestBuilder(editor, nil, false).Build(context.Background(), p, files)

	assert.Equal(t, EditSet{"b.py": "b = 2\n"}, set)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a.py", report.Failed[0].Path)
	assert.EqualError(t, report.Failed[0].Err, "rate limited")
}

func TestBuilder_LaterSubtaskWins(t *testing.T) {
	files := map[string]string{"app.py": "x = 1\n"}
	editor := EditorFunc(func(_ context.Context, _, desc, _ string) (string, error) {
		return "# " + desc + "\n", nil
	})
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{
		subtask("first change to app.py"),
		subtask("second change to app.py"),
	}}

	set, report := newTestBuilder(editor, nil, false).Build(context.Background(), p, files)

	assert.Equal(t, "# second change to app.py\n", set["app.py"])
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "second change to app.py", report.Changes[0].Subtask)
}

func TestBuilder_ContentSource(t *testing.T) {
	src := &fakeSource{files: map[string]string{"tests/test_app.py": "existing\n"}}
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{
		subtask("create test file for app"),
		subtask("update readme"),
	}}

	set, _ := newTestBuilder(nil, src, false).Build(context.Background(), p, map[string]string{"app.py": "x = 1\n"})

	assert.Equal(t, []string{"tests/test_app.py", "README.md"}, src.calls)
	assert.Equal(t, []string{"README.md"}, set.Paths(), "existing test file left alone, missing readme created")
	assert.True(t, strings.HasPrefix(set["README.md"], "# demo\n"))
}

func TestBuilder_ContentSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("HTTP 500")}
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{subtask("update readme")}}

	set, report := newTestBuilder(nil, src, false).Build(context.Background(), p, nil)

	assert.Empty(t, set)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, StrategyUpdateReadme, report.Failed[0].Strategy)
}

func TestBuilder_PruneAllImports(t *testing.T) {
	files := map[string]string{
		"a.py":      "import os\nimport sys\nsys.exit(0)\n",
		"b.py":      "import json\n",
		"c.py":      BinaryPlaceholder(3),
		"notes.txt": "import nothing\n",
	}
	p := plan.ResolutionPlan{Subtasks: []plan.Subtask{subtask("edit b.py")}}
	editor := EditorFunc(func(context.Context, string, string, string) (string, error) {
		return "import json\nprint(json.dumps({}))\n", nil
	})

	set, report := newTestBuilder(editor, nil, true).Build(context.Background(), p, files)

	assert.Equal(t, EditSet{
		"a.py": "import sys\nsys.exit(0)\n",
		"b.py": "import json\nprint(json.dumps({}))\n",
	}, set)
	require.Len(t, report.Changes, 2)
	assert.Equal(t, StrategyPruneImports, report.Changes[1].Strategy)
}
