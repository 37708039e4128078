package edits

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/colonyops/mender/pkg/tmpl"
)

const pythonTestTemplate = `import {{ .Module }}


def test_{{ .Module }}():
    # TODO: {{ oneline .Description }}
    pass
`

const jsTestTemplate = `const {{ .Module }} = require('../{{ .Module }}');

test('{{ .Module }}', () => {
  // TODO: {{ oneline .Description }}
});
`

const csharpTestTemplate = `using Xunit;
using {{ .Class }};

namespace {{ .Class }}.Tests
{
    public class {{ .Class }}Tests
    {
        [Fact]
        public void {{ .Class }}Placeholder()
        {
            // TODO: {{ oneline .Description }}
        }
    }
}
`

var testTemplates = map[Family]string{
	FamilyPython: pythonTestTemplate,
	FamilyJS:     jsTestTemplate,
	FamilyCSharp: csharpTestTemplate,
}

var titleCase = cases.Title(language.Und, cases.NoLower)

// className turns a snake_case module name into a PascalCase identifier.
func className(module string) string {
	return strings.ReplaceAll(titleCase.String(strings.ReplaceAll(module, "_", " ")), " ", "")
}

// TestFilePath returns the path of the generated test file for module.
//
//	python  <dir>/test_<module>.py
//	js      <dir>/<module>.test.js
//	csharp  <Dir>/<Module>Tests.cs
func TestFilePath(dir, module string, fam Family) string {
	switch fam {
	case FamilyJS:
		return path.Join(dir, module+".test.js")
	case FamilyCSharp:
		return path.Join(titleCase.String(dir), className(module)+"Tests.cs")
	default:
		return path.Join(dir, "test_"+module+".py")
	}
}

type testFileData struct {
	Module      string
	Class       string
	Description string
}

// RenderTestFile renders a test skeleton that imports module and holds one
// placeholder test quoting description.
func RenderTestFile(module, description string, fam Family) (string, error) {
	src, ok := testTemplates[fam]
	if !ok {
		src = pythonTestTemplate
	}
	return tmpl.Render(src, testFileData{
		Module:      module,
		Class:       className(module),
		Description: description,
	})
}
