package plan

import (
	"fmt"
	"strings"
)

// Markdown renders the plan as a markdown document for terminal display.
func (p ResolutionPlan) Markdown() string {
	var b strings.Builder

	b.WriteString("# Issue Resolution Plan\n\n")
	b.WriteString("## Issue Analysis\n\n")
	b.WriteString(strings.TrimSpace(p.IssueAnalysis))
	b.WriteString("\n\n## Subtasks\n\n")
	for i, st := range p.Subtasks {
		fmt.Fprintf(&b, "%d. %s", i+1, st.Description)
		if st.EstimatedTime != "" {
			fmt.Fprintf(&b, " _(estimated time: %s)_", st.EstimatedTime)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Dependencies", p.Dependencies)
	writeList(&b, "Potential Challenges", p.PotentialChallenges)

	b.WriteString("\n## Testing Strategy\n\n")
	if s := strings.TrimSpace(p.TestingStrategy); s != "" {
		b.WriteString(s)
	} else {
		b.WriteString("_none_")
	}
	b.WriteString("\n")

	writeList(&b, "Documentation Updates", p.DocumentationUpdates)

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	if len(items) == 0 {
		b.WriteString("_none_\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
