package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencedJSON matches a ```json fenced block and captures its interior.
var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n(.*?)```")

// listFields are coerced into one-element sequences when given as a scalar.
var listFields = []string{
	FieldDependencies,
	FieldPotentialChallenges,
	FieldDocumentationUpdates,
	FieldSubtasks,
}

// Normalize parses raw model output into a plain mapping and coerces known
// fields into canonical shapes. It does not validate element types.
//
// Running Normalize on the JSON encoding of its own output yields the same
// mapping.
func Normalize(raw string) (map[string]any, error) {
	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	if nested, ok := data[FieldIssueAnalysis].(map[string]any); ok {
		data[FieldIssueAnalysis] = flattenAnalysis(nested)
	}

	for _, field := range listFields {
		v, ok := data[field]
		if !ok {
			continue
		}
		if _, isList := v.([]any); !isList {
			data[field] = []any{v}
		}
	}

	return data, nil
}

// parseObject tries the whole text first and then the first ```json fence.
func parseObject(raw string) (map[string]any, error) {
	if m, err := decodeObject(raw); err == nil {
		return m, nil
	}

	match := fencedJSON.FindStringSubmatch(raw)
	if match == nil {
		return nil, fmt.Errorf("%w: no JSON object or fenced json block found", ErrMalformedPlan)
	}

	m, err := decodeObject(match[1])
	if err != nil {
		return nil, fmt.Errorf("%w: fenced block: %w", ErrMalformedPlan, err)
	}
	return m, nil
}

func decodeObject(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil {
		return nil, err
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %s, not an object", jsonKind(v))
	}
	return m, nil
}

// flattenAnalysis reduces a nested issue_analysis to a string: its
// description when that is text, otherwise a rendering of the description or
// of the whole mapping. The result is always a string so a second pass leaves
// it untouched.
func flattenAnalysis(nested map[string]any) string {
	desc, ok := nested[FieldDescription]
	if !ok {
		return stringify(nested)
	}
	if s, ok := desc.(string); ok {
		return s
	}
	return stringify(desc)
}

// stringify renders a value for use as free text. JSON keeps the output
// stable because encoding/json sorts map keys.
func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
