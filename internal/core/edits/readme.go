package edits

import (
	"regexp"
	"strings"
)

const runningTestsSection = `## Running Tests

To run the test suite locally:

1. Install the project dependencies.
2. Run the test runner for the project, for example ` + "`pytest`, `npm test` or `dotnet test`" + `.
3. Make sure all tests pass before opening a pull request.
`

var runningTestsHeading = regexp.MustCompile(`(?im)^#+[ \t]*running tests[ \t]*$`)

// HasRunningTests reports whether content already carries a Running Tests
// heading at any level.
func HasRunningTests(content string) bool {
	return runningTestsHeading.MatchString(content)
}

// UpdateReadme appends the Running Tests section unless one exists.
// Applying it twice gives the same result as applying it once.
func UpdateReadme(content string) string {
	if HasRunningTests(content) {
		return content
	}

	var b strings.Builder
	b.WriteString(content)
	switch {
	case content == "":
	case strings.HasSuffix(content, "\n\n"):
	case strings.HasSuffix(content, "\n"):
		b.WriteString("\n")
	default:
		b.WriteString("\n\n")
	}
	b.WriteString(runningTestsSection)
	return b.String()
}

// NewReadme returns a skeleton README containing the Running Tests section.
func NewReadme(project string) string {
	if project == "" {
		project = "Project"
	}
	return "# " + project + "\n\n" +
		"## Overview\n\n" +
		"Describe the purpose of this project here.\n\n" +
		runningTestsSection
}
