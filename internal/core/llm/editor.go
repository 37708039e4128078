package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/colonyops/mender/pkg/retry"
	"github.com/colonyops/mender/pkg/tmpl"
)

const editorSystemPrompt = "You are an expert software engineer. You edit files exactly as instructed and reply with file content only."

const editPromptTemplate = `Modify the following {{ .Extension }} file according to this task:

{{ .Description }}

Return only the complete modified file content, without any explanation.

File content:
{{ .Content }}
`

// Editor performs free-form file edits with a Provider. It satisfies
// edits.ContentEditor.
type Editor struct {
	provider Provider
	policy   retry.Policy

	mu    sync.Mutex
	usage Usage
}

func NewEditor(p Provider, policy retry.Policy) *Editor {
	return &Editor{provider: p, policy: policy}
}

func (e *Editor) Edit(ctx context.Context, content, description, extension string) (string, error) {
	if extension == "" {
		extension = "plain text"
	}
	prompt, err := tmpl.Render(editPromptTemplate, map[string]string{
		"Extension":   extension,
		"Description": description,
		"Content":     content,
	})
	if err != nil {
		return "", err
	}

	messages := []Message{
		{Role: RoleSystem, Content: editorSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}

	out, err := retry.DoValue(ctx, e.policy, func(ctx context.Context) (string, error) {
		reply, u, err := e.provider.Chat(ctx, messages)
		if err != nil {
			if !transient(err) {
				return "", retry.Permanent(err)
			}
			return "", err
		}
		e.mu.Lock()
		e.usage = e.usage.Add(u)
		e.mu.Unlock()
		return reply, nil
	})
	if err != nil {
		return "", fmt.Errorf("edit with %s: %w", e.provider.Name(), err)
	}
	return out, nil
}

// Usage returns the tokens used by all edits so far.
func (e *Editor) Usage() Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}
