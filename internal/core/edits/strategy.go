package edits

import (
	"regexp"
	"slices"
	"strings"

	"github.com/colonyops/mender/internal/core/plan"
)

// Strategy is the transformation handler chosen for a subtask.
type Strategy int

const (
	StrategyCreateTestFile Strategy = iota + 1
	StrategyUpdateReadme
	StrategyGenericEdit
	StrategyPruneImports
)

func (s Strategy) String() string {
	switch s {
	case StrategyCreateTestFile:
		return "create-test-file"
	case StrategyUpdateReadme:
		return "update-readme"
	case StrategyGenericEdit:
		return "generic-edit"
	case StrategyPruneImports:
		return "prune-imports"
	default:
		return "unknown"
	}
}

// Unit is one transformation to apply: a strategy bound to a subtask and a
// single target file.
type Unit struct {
	Strategy Strategy
	Subtask  plan.Subtask
	Target   string
	// Module is the extracted module name for create-test-file units.
	Module string
	Family Family
}

// Unresolved is a subtask that produced no units.
type Unresolved struct {
	Subtask plan.Subtask
	Reason  string
}

// Selection is the result of routing a plan's subtasks.
type Selection struct {
	Units      []Unit
	Unresolved []Unresolved
}

// DefaultTestDir is where generated test files go when no directory is
// configured.
const DefaultTestDir = "tests"

// Selector routes subtasks to strategies. The zero value is ready to use.
type Selector struct {
	TestDir string
	// RepoPaths lists every file in the repository. It drives the test
	// family vote and the README lookup; the file map is used when empty.
	RepoPaths []string
}

// Select routes subtasks using a zero Selector.
func Select(subtasks []plan.Subtask, files map[string]string) Selection {
	return Selector{}.Select(subtasks, files)
}

// rule is one entry of the routing table. match sees the lower-cased
// description; units returns the units for the subtask or a reason why none
// could be built.
type rule struct {
	match func(desc string) bool
	units func(s Selector, st plan.Subtask, desc string, paths []string) ([]Unit, string)
}

// rules are evaluated in order and the first matching rule wins.
var rules = []rule{
	{
		match: func(desc string) bool { return strings.Contains(desc, "create test file") },
		units: testFileUnits,
	},
	{
		match: func(desc string) bool { return strings.Contains(desc, "update readme") },
		units: readmeUnits,
	},
	{
		match: func(string) bool { return true },
		units: genericUnits,
	},
}

// Select classifies each subtask and returns the resulting units in subtask
// order. Subtasks that match nothing are reported as unresolved.
func (s Selector) Select(subtasks []plan.Subtask, files map[string]string) Selection {
	paths := sortedPaths(files)

	var sel Selection
	for _, st := range subtasks {
		desc := strings.ToLower(st.Description)
		for _, r := range rules {
			if !r.match(desc) {
				continue
			}
			units, reason := r.units(s, st, desc, paths)
			if len(units) == 0 {
				sel.Unresolved = append(sel.Unresolved, Unresolved{Subtask: st, Reason: reason})
			}
			sel.Units = append(sel.Units, units...)
			break
		}
	}
	return sel
}

func (s Selector) testDir() string {
	if s.TestDir == "" {
		return DefaultTestDir
	}
	return strings.Trim(s.TestDir, "/")
}

// moduleRef matches "for <identifier>" with an optionally back-quoted
// identifier. A leading article is consumed so "for the parser" yields parser.
var moduleRef = regexp.MustCompile("\\bfor\\s+(?:(?:the|an?)\\s+)?`?([a-z_][a-z0-9_]*)`?")

var articles = map[string]bool{"a": true, "an": true, "the": true}

// extractModule returns the first identifier following "for" that is not an
// article.
func extractModule(desc string) string {
	for _, m := range moduleRef.FindAllStringSubmatch(desc, -1) {
		if !articles[m[1]] {
			return m[1]
		}
	}
	return ""
}

func (s Selector) layout(paths []string) []string {
	if len(s.RepoPaths) > 0 {
		return s.RepoPaths
	}
	return paths
}

func testFileUnits(s Selector, st plan.Subtask, desc string, paths []string) ([]Unit, string) {
	module := extractModule(desc)
	if module == "" {
		return nil, "no target module named in test file subtask"
	}

	fam := DetectFamily(s.layout(paths))
	return []Unit{{
		Strategy: StrategyCreateTestFile,
		Subtask:  st,
		Target:   TestFilePath(s.testDir(), module, fam),
		Module:   module,
		Family:   fam,
	}}, ""
}

func readmeUnits(s Selector, st plan.Subtask, _ string, paths []string) ([]Unit, string) {
	layout := s.layout(paths)
	return []Unit{{
		Strategy: StrategyUpdateReadme,
		Subtask:  st,
		Target:   readmePath(layout),
		Family:   DetectFamily(layout),
	}}, ""
}

func genericUnits(_ Selector, st plan.Subtask, desc string, paths []string) ([]Unit, string) {
	var units []Unit
	for _, p := range paths {
		if strings.Contains(desc, strings.ToLower(p)) {
			units = append(units, Unit{Strategy: StrategyGenericEdit, Subtask: st, Target: p})
		}
	}
	if len(units) == 0 {
		return nil, "no known file is mentioned"
	}
	return units, ""
}

// readmePath reuses a top-level README.md in any letter case, else README.md.
func readmePath(paths []string) string {
	for _, p := range paths {
		if strings.EqualFold(p, "README.md") {
			return p
		}
	}
	return "README.md"
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
