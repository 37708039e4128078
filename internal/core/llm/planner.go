package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/mender/pkg/retry"
	"github.com/colonyops/mender/pkg/tmpl"
)

const (
	MaxCharsPerFile = 1000
	MaxTotalChars   = 10000
)

const plannerSystemPrompt = "You are a helpful and experienced software development planning agent."

const planPromptTemplate = `Plan to resolve the following issue:

Title: {{ .Title }}

Description: {{ .Body }}

Relevant files and their contents (truncated):
{{ .Files }}

Analyze the issue and the relevant file contents. Then provide your response as a structured JSON-like string with the following keys:
issue_analysis (a string summarizing the issue),
subtasks (a list of objects with description and estimated_time),
dependencies (a list of strings),
potential_challenges (a list of strings),
testing_strategy (a string),
and documentation_updates (a list of strings).
Ensure that all fields are present and in the correct format.
`

// Truncate keeps at most perFile characters of each file, visiting paths in
// sorted order, and stops adding files once total characters are reached.
func Truncate(files map[string]string, perFile, total int) map[string]string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	out := make(map[string]string, len(files))
	used := 0
	for _, p := range paths {
		if used >= total {
			break
		}
		r := []rune(files[p])
		if len(r) > perFile {
			r = r[:perFile]
		}
		out[p] = string(r)
		used += len(r)
	}
	return out
}

// PlanPrompt renders the user message asking for a resolution plan.
func PlanPrompt(title, body string, files map[string]string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Truncate(files, MaxCharsPerFile, MaxTotalChars)); err != nil {
		return "", fmt.Errorf("encode files: %w", err)
	}
	return tmpl.Render(planPromptTemplate, map[string]string{
		"Title": title,
		"Body":  body,
		"Files": strings.TrimSpace(buf.String()),
	})
}

// Planner asks a Provider for a resolution plan.
type Planner struct {
	provider Provider
	policy   retry.Policy
	log      zerolog.Logger
}

func NewPlanner(p Provider, policy retry.Policy, log zerolog.Logger) *Planner {
	return &Planner{provider: p, policy: policy, log: log.With().Str("component", "planner").Logger()}
}

// Plan returns the raw model reply for the issue and the tokens it used.
func (p *Planner) Plan(ctx context.Context, title, body string, files map[string]string) (string, Usage, error) {
	prompt, err := PlanPrompt(title, body, files)
	if err != nil {
		return "", Usage{}, err
	}

	messages := []Message{
		{Role: RoleSystem, Content: plannerSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}

	var usage Usage
	raw, err := retry.DoValue(ctx, p.policy, func(ctx context.Context) (string, error) {
		out, u, err := p.provider.Chat(ctx, messages)
		if err != nil {
			if !transient(err) {
				return "", retry.Permanent(err)
			}
			p.log.Debug().Err(err).Msg("transient planning failure")
			return "", err
		}
		usage = u
		return out, nil
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("generate plan with %s: %w", p.provider.Name(), err)
	}

	p.log.Debug().Int("total_tokens", usage.TotalTokens).Msg("plan generated")
	return raw, usage, nil
}
