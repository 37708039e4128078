package edits

import (
	"regexp"
	"strings"
)

// Import pruning is advisory. Each family recognises single-line import
// statements textually and drops the ones whose bound names do not occur in
// the rest of the file. Lines that are not import-like are never removed, and
// anything the parser does not fully understand (multi-line imports, side
// effect imports, wildcards) is kept.

var identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// importParser returns the names bound by line and whether the line is a
// prunable import. A nil or empty name list means the line is kept.
type importParser func(line string) (names []string, ok bool)

// usageCheck reports whether name is referenced in the non-import body.
type usageCheck func(name string) bool

type importRules struct {
	parse importParser
	used  func(body string) usageCheck
}

var familyImports = map[Family]importRules{
	FamilyPython: {parse: parsePythonImport, used: identifierUsage},
	FamilyJS:     {parse: parseJSImport, used: substringUsage},
	FamilyCSharp: {parse: parseCSharpUsing, used: substringUsage},
	FamilyJava:   {parse: parseJavaImport, used: substringUsage},
}

// PruneImports removes unused imports from content based on the import family
// of path. Files outside every family are returned unchanged.
func PruneImports(path, content string) string {
	fam, ok := ImportFamily(path)
	if !ok {
		return content
	}
	r := familyImports[fam]

	lines := strings.Split(content, "\n")
	imports := make([][]string, len(lines))

	var body strings.Builder
	for i, line := range lines {
		names, ok := r.parse(line)
		if ok && len(names) > 0 {
			imports[i] = names
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	used := r.used(body.String())

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if names := imports[i]; names != nil && !anyUsed(used, names) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func anyUsed(used usageCheck, names []string) bool {
	for _, n := range names {
		if used(n) {
			return true
		}
	}
	return false
}

// identifierUsage indexes whole identifiers in body once.
func identifierUsage(body string) usageCheck {
	seen := make(map[string]bool)
	for _, id := range identifier.FindAllString(body, -1) {
		seen[id] = true
	}
	return func(name string) bool { return seen[name] }
}

func substringUsage(body string) usageCheck {
	return func(name string) bool { return strings.Contains(body, name) }
}

func parsePythonImport(line string) ([]string, bool) {
	s := strings.TrimSpace(line)
	if i := strings.Index(s, "#"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if strings.ContainsAny(s, "(\\;") {
		return nil, false
	}

	switch {
	case strings.HasPrefix(s, "import "):
		return pythonBoundNames(strings.TrimPrefix(s, "import "), true), true
	case strings.HasPrefix(s, "from "):
		module, clause, found := strings.Cut(strings.TrimPrefix(s, "from "), " import ")
		if !found || strings.TrimSpace(module) == "__future__" {
			return nil, false
		}
		if strings.TrimSpace(clause) == "*" {
			return nil, false
		}
		return pythonBoundNames(clause, false), true
	}
	return nil, false
}

// pythonBoundNames returns the names an import clause binds. For plain
// imports a dotted path binds its first segment.
func pythonBoundNames(clause string, dotted bool) []string {
	var names []string
	for _, part := range strings.Split(clause, ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 3 && fields[1] == "as":
			names = append(names, fields[2])
		case len(fields) == 1:
			name := fields[0]
			if dotted {
				name, _, _ = strings.Cut(name, ".")
			}
			names = append(names, name)
		default:
			return nil
		}
	}
	return names
}

var jsRequire = regexp.MustCompile(`^(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*require\(\s*['"][^'"]+['"]\s*\)\s*;?$`)

func parseJSImport(line string) ([]string, bool) {
	s := strings.TrimSpace(line)
	if m := jsRequire.FindStringSubmatch(s); m != nil {
		return []string{m[1]}, true
	}

	if !strings.HasPrefix(s, "import ") {
		return nil, false
	}
	clause, _, found := strings.Cut(strings.TrimPrefix(s, "import "), " from ")
	if !found {
		// side effect import or an unfinished multi-line clause
		return nil, false
	}
	clause = strings.TrimSpace(strings.TrimPrefix(clause, "type "))
	if strings.Count(clause, "{") != strings.Count(clause, "}") {
		return nil, false
	}

	var names []string
	for _, part := range strings.FieldsFunc(clause, func(r rune) bool { return r == ',' || r == '{' || r == '}' }) {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 0:
		case len(fields) == 3 && fields[1] == "as":
			names = append(names, fields[2])
		case len(fields) == 1:
			names = append(names, fields[0])
		case len(fields) == 2 && fields[0] == "type":
			names = append(names, fields[1])
		default:
			return nil, false
		}
	}
	return names, true
}

var csAlias = regexp.MustCompile(`^using\s+([A-Za-z_]\w*)\s*=\s*[\w.<>, ]+;$`)

// parseCSharpUsing only prunes alias directives. Namespace imports bring in
// names that cannot be recovered from the directive text.
func parseCSharpUsing(line string) ([]string, bool) {
	if m := csAlias.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		return []string{m[1]}, true
	}
	return nil, false
}

var javaImport = regexp.MustCompile(`^import\s+(?:static\s+)?([\w.]+)\s*;$`)

func parseJavaImport(line string) ([]string, bool) {
	m := javaImport.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}
	// wildcard imports never match the pattern above
	last := m[1][strings.LastIndex(m[1], ".")+1:]
	return []string{last}, true
}
