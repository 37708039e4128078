// Package tmpl provides text template rendering for generated files and
// pull request text.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// oneline collapses every run of whitespace, including newlines, into a
// single space so free text can sit inside a line comment.
func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var funcs = template.FuncMap{
	"join":    strings.Join,
	"lower":   strings.ToLower,
	"oneline": oneline,
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Files ", ")
//   - lower: Lower-case a string
//   - oneline: Collapse whitespace and newlines into single spaces
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// Check parses tmpl and renders it against data, discarding the output. Use it
// to validate user-supplied templates at load time.
func Check(tmpl string, data any) error {
	_, err := Render(tmpl, data)
	return err
}
