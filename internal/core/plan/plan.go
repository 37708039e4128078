// Package plan turns loosely structured language-model output into a
// validated ResolutionPlan.
//
// Decoding happens in two steps. Normalize parses the raw text (plain JSON or
// JSON inside a ```json fence) and coerces singular values into the shapes the
// schema expects. FromMap then builds the typed plan, failing with the names
// of every missing or mis-shaped field. Decode runs both.
package plan

import "errors"

var (
	// ErrMalformedPlan is returned when model output cannot be parsed as a
	// JSON object, either directly or from a fenced block.
	ErrMalformedPlan = errors.New("unable to parse model response as JSON")

	// ErrInvalidPlan is returned when a parsed plan is missing required
	// fields or has fields of the wrong shape. The error also wraps a
	// criterio.FieldErrors naming each offending field.
	ErrInvalidPlan = errors.New("invalid resolution plan")
)

// Field names as they appear in model output.
const (
	FieldIssueAnalysis        = "issue_analysis"
	FieldSubtasks             = "subtasks"
	FieldDependencies         = "dependencies"
	FieldPotentialChallenges  = "potential_challenges"
	FieldTestingStrategy      = "testing_strategy"
	FieldDocumentationUpdates = "documentation_updates"
	FieldDescription          = "description"
	FieldEstimatedTime        = "estimated_time"
)

// ResolutionPlan is the structured remediation plan for one issue. It is
// read-only once built by FromMap.
type ResolutionPlan struct {
	IssueAnalysis        string    `json:"issue_analysis"`
	Subtasks             []Subtask `json:"subtasks"`
	Dependencies         []string  `json:"dependencies"`
	PotentialChallenges  []string  `json:"potential_challenges"`
	TestingStrategy      string    `json:"testing_strategy"`
	DocumentationUpdates []string  `json:"documentation_updates"`
}

// Subtask is one unit of work within a plan.
type Subtask struct {
	Description   string `json:"description"`
	EstimatedTime string `json:"estimated_time"`
}

// Decode normalizes and validates raw model output.
func Decode(raw string) (ResolutionPlan, error) {
	m, err := Normalize(raw)
	if err != nil {
		return ResolutionPlan{}, err
	}
	return FromMap(m)
}
