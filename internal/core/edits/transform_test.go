package edits

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateReadme(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "appends section",
			content: "# Demo\n\nA demo project.\n",
			want:    "# Demo\n\nA demo project.\n\n" + runningTestsSection,
		},
		{
			name:    "no trailing newline",
			content: "# Demo",
			want:    "# Demo\n\n" + runningTestsSection,
		},
		{
			name:    "existing heading any level and case",
			content: "# Demo\n\n### running TESTS\n\nrun make test\n",
			want:    "# Demo\n\n### running TESTS\n\nrun make test\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateReadme(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, UpdateReadme(got), "must be idempotent")
		})
	}
}

func TestUpdateReadme_MentionIsNotHeading(t *testing.T) {
	content := "# Demo\n\nSee running tests below.\n"
	got := UpdateReadme(content)
	assert.Equal(t, 1, strings.Count(got, "## Running Tests"))
}

func TestNewReadme(t *testing.T) {
	got := NewReadme("widgets")

	assert.True(t, strings.HasPrefix(got, "# widgets\n"))
	assert.True(t, HasRunningTests(got))
	assert.Equal(t, got, UpdateReadme(got))
}

func TestRenderTestFile_Python(t *testing.T) {
	got, err := RenderTestFile("widgets", "Create test file for widgets\nwith edge cases", FamilyPython)
	require.NoError(t, err)

	assert.Contains(t, got, "import widgets\n")
	assert.Equal(t, 1, strings.Count(got, "def test_"))
	assert.Contains(t, got, "# TODO: Create test file for widgets with edge cases")
}

func TestRenderTestFile_OtherFamilies(t *testing.T) {
	js, err := RenderTestFile("widgets", "cover widgets", FamilyJS)
	require.NoError(t, err)
	assert.Contains(t, js, "require('../widgets')")
	assert.Equal(t, 1, strings.Count(js, "test('"))
	assert.Contains(t, js, "// TODO: cover widgets")

	cs, err := RenderTestFile("user_profile", "cover profiles", FamilyCSharp)
	require.NoError(t, err)
	assert.Contains(t, cs, "public class UserProfileTests")
	assert.Equal(t, 1, strings.Count(cs, "[Fact]"))
	assert.Contains(t, cs, "// TODO: cover profiles")
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "language fence", in: "```python\nx = 1\n```", want: "x = 1"},
		{name: "bare fence with padding", in: "\n```\nx = 1\ny = 2\n```\n", want: "x = 1\ny = 2"},
		{name: "blank line before closing fence", in: "```\nx = 1\n\n```", want: "x = 1\n"},
		{name: "crlf fence", in: "```\r\nx = 1\r\n```", want: "x = 1"},
		{name: "no fence", in: "x = 1\n", want: "x = 1\n"},
		{name: "inner fence kept", in: "text\n```\ncode\n```\n", want: "text\n```\ncode\n```\n"},
		{name: "single line", in: "```x```", want: "```x```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestTransformer_GenericEdit(t *testing.T) {
	var got struct{ content, desc, ext string }
	tr := &Transformer{Editor: EditorFunc(func(_ context.Context, content, desc, ext string) (string, error) {
		got.content, got.desc, got.ext = content, desc, ext
		return "```python\nimport os\nimport sys\n\nprint(sys.argv)\n```", nil
	})}

	u := Unit{Strategy: StrategyGenericEdit, Subtask: subtask("Print args in main.py"), Target: "main.py"}
	out, err := tr.Transform(context.Background(), u, "print('hi')\n", true)
	require.NoError(t, err)

	assert.Equal(t, "print('hi')\n", got.content)
	assert.Equal(t, "Print args in main.py", got.desc)
	assert.Equal(t, ".py", got.ext)
	assert.Equal(t, "import sys\n\nprint(sys.argv)\n", out, "fences stripped and unused imports pruned")
}

func TestTransformer_GenericEditFinalNewline(t *testing.T) {
	tests := []struct {
		name     string
		original string
		reply    string
		want     string
	}{
		{name: "echo without final newline", original: "x = 1", reply: "```python\nx = 1\n```", want: "x = 1"},
		{name: "echo with final newline", original: "x = 1\n", reply: "```python\nx = 1\n```", want: "x = 1\n"},
		{name: "unfenced reply kept", original: "x = 1\n", reply: "x = 2", want: "x = 2"},
		{name: "fenced change", original: "x = 1", reply: "```\nx = 2\n```", want: "x = 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transformer{Editor: EditorFunc(func(context.Context, string, string, string) (string, error) {
				return tt.reply, nil
			})}
			u := Unit{Strategy: StrategyGenericEdit, Subtask: subtask("tidy conf.txt"), Target: "conf.txt"}

			out, err := tr.Transform(context.Background(), u, tt.original, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTransformer_GenericEditErrors(t *testing.T) {
	boom := errors.New("model unavailable")
	u := Unit{Strategy: StrategyGenericEdit, Subtask: subtask("fix a.py"), Target: "a.py"}

	tests := []struct {
		name     string
		tr       *Transformer
		original string
		exists   bool
		is       error
	}{
		{
			name:     "editor error",
			tr:       &Transformer{Editor: EditorFunc(func(context.Context, string, string, string) (string, error) { return "", boom })},
			original: "x = 1\n",
			exists:   true,
			is:       boom,
		},
		{
			name:     "no editor",
			tr:       &Transformer{},
			original: "x = 1\n",
			exists:   true,
			is:       ErrNoEditor,
		},
		{
			name:     "placeholder content",
			tr:       &Transformer{Editor: EditorFunc(func(context.Context, string, string, string) (string, error) { return "x", nil })},
			original: BinaryPlaceholder(12),
			exists:   true,
		},
		{
			name:   "missing file",
			tr:     &Transformer{Editor: EditorFunc(func(context.Context, string, string, string) (string, error) { return "x", nil })},
			exists: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tr.Transform(context.Background(), u, tt.original, tt.exists)
			require.Error(t, err)

			var te *TransformError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "a.py", te.Path)
			assert.Equal(t, StrategyGenericEdit, te.Strategy)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestTransformer_CreateTestFileExistingTarget(t *testing.T) {
	tr := &Transformer{}
	u := Unit{Strategy: StrategyCreateTestFile, Subtask: subtask("create test file for app"), Target: "tests/test_app.py", Module: "app"}

	out, err := tr.Transform(context.Background(), u, "existing\n", true)
	require.NoError(t, err)
	assert.Equal(t, "existing\n", out)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "[Binary content, size: 10 bytes]", BinaryPlaceholder(10))
	assert.Equal(t, "[File too large to analyze, size: 200000 bytes]", OversizePlaceholder(200000))
	assert.True(t, IsPlaceholder(OversizePlaceholder(1)))
	assert.False(t, IsPlaceholder("[link](x)"))
}
