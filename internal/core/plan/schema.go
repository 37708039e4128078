package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

var (
	errRequired = errors.New("is required")
	errEmpty    = errors.New("must not be empty")
)

// FromMap builds a ResolutionPlan from a normalized mapping. Construction is
// all-or-nothing: on any problem the zero plan is returned together with an
// error wrapping ErrInvalidPlan and a criterio.FieldErrors listing every
// offending field.
func FromMap(m map[string]any) (ResolutionPlan, error) {
	var errs criterio.FieldErrorsBuilder
	r := &fieldReader{src: m, errs: &errs}

	p := ResolutionPlan{
		IssueAnalysis:        r.text(FieldIssueAnalysis, true),
		Subtasks:             r.subtasks(),
		Dependencies:         r.texts(FieldDependencies),
		PotentialChallenges:  r.texts(FieldPotentialChallenges),
		TestingStrategy:      r.text(FieldTestingStrategy, false),
		DocumentationUpdates: r.texts(FieldDocumentationUpdates),
	}

	if err := errs.ToError(); err != nil {
		return ResolutionPlan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	return p, nil
}

// fieldReader extracts typed values from one JSON object and accumulates
// field errors, qualified by prefix, into a shared builder.
type fieldReader struct {
	src    map[string]any
	prefix string
	errs   *criterio.FieldErrorsBuilder
}

func (r *fieldReader) fail(field string, err error) {
	*r.errs = r.errs.Append(r.prefix+field, err)
}

func (r *fieldReader) text(field string, nonEmpty bool) string {
	v, ok := r.src[field]
	if !ok {
		r.fail(field, errRequired)
		return ""
	}
	return r.asText(field, v, nonEmpty)
}

func (r *fieldReader) asText(field string, v any, nonEmpty bool) string {
	s, ok := v.(string)
	if !ok {
		r.fail(field, fmt.Errorf("expected a string, got %s", jsonKind(v)))
		return ""
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		r.fail(field, errEmpty)
	}
	return s
}

func (r *fieldReader) list(field string) ([]any, bool) {
	v, ok := r.src[field]
	if !ok {
		r.fail(field, errRequired)
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(field, fmt.Errorf("expected an array, got %s", jsonKind(v)))
		return nil, false
	}
	return items, true
}

func (r *fieldReader) texts(field string) []string {
	items, ok := r.list(field)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		out = append(out, r.asText(fmt.Sprintf("%s[%d]", field, i), item, false))
	}
	return out
}

func (r *fieldReader) subtasks() []Subtask {
	items, ok := r.list(FieldSubtasks)
	if !ok {
		return nil
	}
	if len(items) == 0 {
		r.fail(FieldSubtasks, errors.New("at least one subtask is required"))
		return nil
	}

	out := make([]Subtask, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", FieldSubtasks, i)

		obj, ok := item.(map[string]any)
		if !ok {
			r.fail(prefix, fmt.Errorf("expected an object, got %s", jsonKind(item)))
			continue
		}

		sub := &fieldReader{src: obj, prefix: r.prefix + prefix + ".", errs: r.errs}
		out = append(out, Subtask{
			Description:   sub.text(FieldDescription, true),
			EstimatedTime: sub.text(FieldEstimatedTime, false),
		})
	}
	return out
}
