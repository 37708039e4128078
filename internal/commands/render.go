package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/internal/core/styles"
	"github.com/colonyops/mender/pkg/textdiff"
)

const defaultWidth = 100

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return min(w, 120)
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// renderMarkdown renders md for the terminal. Rendering failures fall back to
// the raw markdown.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(termWidth()-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// renderDiff colors a textdiff rendering line by line.
func renderDiff(path, before, after string, context int) string {
	raw := textdiff.Render(path, before, after, context)

	var b strings.Builder
	for _, line := range strings.SplitAfter(raw, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "---"), strings.HasPrefix(text, "+++"):
			text = styles.DiffFileStyle.Render(text)
		case strings.HasPrefix(text, "@@"), text == "...":
			text = styles.DiffHunkStyle.Render(text)
		case strings.HasPrefix(text, "+"):
			text = styles.DiffAddStyle.Render(text)
		case strings.HasPrefix(text, "-"):
			text = styles.DiffDelStyle.Render(text)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

func usageLine(u llm.Usage) string {
	return fmt.Sprintf("Tokens used: %d prompt + %d completion = %d total",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}

func changeLine(c edits.Change) string {
	verb := "update"
	if c.Created {
		verb = "create"
	}
	return fmt.Sprintf("%s %s %s (%s)", styles.IconFile, verb, c.Path, c.Strategy)
}

// selectIssue asks the user to pick one of issues.
func selectIssue(issues []repo.Issue) (int, error) {
	if len(issues) == 0 {
		return 0, errors.New("no open issues")
	}

	opts := make([]huh.Option[int], 0, len(issues))
	for _, is := range issues {
		opts = append(opts, huh.NewOption(fmt.Sprintf("#%d %s", is.Number, is.Title), is.Number))
	}

	var picked int
	err := huh.NewSelect[int]().
		Title("Select an issue to resolve").
		Options(opts...).
		Value(&picked).
		Run()
	if err != nil {
		return 0, err
	}
	return picked, nil
}

func confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
