package edits

import (
	"path"
	"strings"
)

// Family is a language family used to pick test skeletons and import rules.
type Family int

const (
	FamilyPython Family = iota
	FamilyJS
	FamilyCSharp
	FamilyJava
)

func (f Family) String() string {
	switch f {
	case FamilyPython:
		return "python"
	case FamilyJS:
		return "javascript"
	case FamilyCSharp:
		return "csharp"
	case FamilyJava:
		return "java"
	default:
		return "unknown"
	}
}

var jsExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
}

// ImportFamily reports the family whose import statements can be pruned for
// the file at p.
func ImportFamily(p string) (Family, bool) {
	ext := strings.ToLower(path.Ext(p))
	switch {
	case ext == ".py":
		return FamilyPython, true
	case jsExts[ext]:
		return FamilyJS, true
	case ext == ".cs":
		return FamilyCSharp, true
	case ext == ".java":
		return FamilyJava, true
	}
	return 0, false
}

// DetectFamily picks the test family for a repository by majority vote over
// the extensions of paths. JS/TS wins when it outnumbers both C# and all other
// extensions, C# likewise; everything else, including ties, is Python.
func DetectFamily(paths []string) Family {
	var js, cs, other int
	for _, p := range paths {
		ext := strings.ToLower(path.Ext(p))
		switch {
		case ext == "":
			continue
		case jsExts[ext]:
			js++
		case ext == ".cs":
			cs++
		default:
			other++
		}
	}

	switch {
	case js > cs && js > other:
		return FamilyJS
	case cs > js && cs > other:
		return FamilyCSharp
	default:
		return FamilyPython
	}
}
