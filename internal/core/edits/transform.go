package edits

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ContentEditor performs a free-form edit of one file. Implementations return
// the complete new content.
type ContentEditor interface {
	Edit(ctx context.Context, content, description, extension string) (string, error)
}

// EditorFunc adapts a function to ContentEditor.
type EditorFunc func(ctx context.Context, content, description, extension string) (string, error)

func (f EditorFunc) Edit(ctx context.Context, content, description, extension string) (string, error) {
	return f(ctx, content, description, extension)
}

// ErrNoEditor is returned for generic edits when no ContentEditor is set.
var ErrNoEditor = errors.New("no content editor configured")

// TransformError reports a failed transformation of one file.
type TransformError struct {
	Path     string
	Strategy Strategy
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Strategy, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Transformer applies a unit to the content of its target file.
type Transformer struct {
	Editor ContentEditor
	// ProjectName titles newly created READMEs.
	ProjectName string
}

// Transform returns the new content for u.Target. original and exists
// describe the file as it is today. Returning original unchanged means the
// unit is a no-op. Errors are *TransformError.
func (t *Transformer) Transform(ctx context.Context, u Unit, original string, exists bool) (string, error) {
	out, err := t.apply(ctx, u, original, exists)
	if err != nil {
		return "", &TransformError{Path: u.Target, Strategy: u.Strategy, Err: err}
	}
	return out, nil
}

func (t *Transformer) apply(ctx context.Context, u Unit, original string, exists bool) (string, error) {
	switch u.Strategy {
	case StrategyCreateTestFile:
		if exists {
			return original, nil
		}
		return RenderTestFile(u.Module, u.Subtask.Description, u.Family)

	case StrategyUpdateReadme:
		if !exists {
			return NewReadme(t.ProjectName), nil
		}
		return UpdateReadme(original), nil

	case StrategyGenericEdit:
		if !exists {
			return "", fmt.Errorf("file content unavailable")
		}
		if IsPlaceholder(original) {
			return "", fmt.Errorf("file content is a placeholder: %s", original)
		}
		if t.Editor == nil {
			return "", ErrNoEditor
		}

		edited, err := t.Editor.Edit(ctx, original, u.Subtask.Description, path.Ext(u.Target))
		if err != nil {
			return "", err
		}
		if stripped := StripFences(edited); stripped != edited {
			edited = matchFinalNewline(original, stripped)
		}
		if edited == original {
			return original, nil
		}
		return PruneImports(u.Target, edited), nil

	case StrategyPruneImports:
		return PruneImports(u.Target, original), nil
	}

	return "", fmt.Errorf("unknown strategy %d", u.Strategy)
}

// StripFences removes a fenced code block wrapping the whole of s. The line
// break before the closing fence belongs to the fence, so the interior is
// returned exactly. Text without an enclosing fence is returned as-is.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}

	inner := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return s
	}
	inner = inner[nl+1:]

	inner = strings.TrimSuffix(inner, "\n")
	return strings.TrimSuffix(inner, "\r")
}

// matchFinalNewline gives a fenced reply the final newline of original. A
// fence cannot show whether the file ended with one.
func matchFinalNewline(original, edited string) string {
	if strings.HasSuffix(original, "\n") && !strings.HasSuffix(edited, "\n") {
		return edited + "\n"
	}
	return edited
}

const (
	binaryPlaceholder   = "[Binary content, size: %d bytes]"
	oversizePlaceholder = "[File too large to analyze, size: %d bytes]"
)

// BinaryPlaceholder stands in for file content that is not valid text.
func BinaryPlaceholder(size int) string { return fmt.Sprintf(binaryPlaceholder, size) }

// OversizePlaceholder stands in for file content above the size limit.
func OversizePlaceholder(size int) string { return fmt.Sprintf(oversizePlaceholder, size) }

// IsPlaceholder reports whether content is one of the placeholder strings.
func IsPlaceholder(content string) bool {
	return strings.HasPrefix(content, "[Binary content, size: ") ||
		strings.HasPrefix(content, "[File too large to analyze, size: ")
}
