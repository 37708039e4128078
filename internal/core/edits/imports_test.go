package edits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPruneImports(t *testing.T) {
	tests := []struct {
		name string
		path string
		in   string
		want string
	}{
		{
			name: "python unused module",
			path: "app.py",
			in:   "import os\nimport sys\n\nprint(sys.argv)\n",
			want: "import sys\n\nprint(sys.argv)\n",
		},
		{
			name: "python dotted and alias",
			path: "app.py",
			in:   "import os.path\nimport numpy as np\nimport json as j\n\nos.path.join(np.zeros(1))\n",
			want: "import os.path\nimport numpy as np\n\nos.path.join(np.zeros(1))\n",
		},
		{
			name: "python from import keeps when any name used",
			path: "app.py",
			in:   "from typing import List, Dict\nfrom collections import OrderedDict\n\nx: List[int] = []\n",
			want: "from typing import List, Dict\n\nx: List[int] = []\n",
		},
		{
			name: "python name scan is whole word",
			path: "app.py",
			in:   "import re\n\nprint(regex)\nscore = 1\n",
			want: "\nprint(regex)\nscore = 1\n",
		},
		{
			name: "python keeps future star and multiline",
			path: "app.py",
			in:   "from __future__ import annotations\nfrom os import *\nfrom x import (\n    a,\n)\n",
			want: "from __future__ import annotations\nfrom os import *\nfrom x import (\n    a,\n)\n",
		},
		{
			name: "js named default and require",
			path: "web/index.ts",
			in:   "import React from 'react';\nimport { useState, useMemo as memo } from 'react';\nimport './styles.css';\nconst fs = require('fs');\n\nuseState(0);\n",
			want: "import { useState, useMemo as memo } from 'react';\nimport './styles.css';\n\nuseState(0);\n",
		},
		{
			name: "js multiline import kept",
			path: "a.js",
			in:   "import {\n  a,\n} from 'x';\n",
			want: "import {\n  a,\n} from 'x';\n",
		},
		{
			name: "csharp alias only",
			path: "Program.cs",
			in:   "using System;\nusing Json = Newtonsoft.Json;\nusing Fmt = System.Text;\n\nvar s = Fmt.Encoding.UTF8;\n",
			want: "using System;\nusing Fmt = System.Text;\n\nvar s = Fmt.Encoding.UTF8;\n",
		},
		{
			name: "java class imports",
			path: "App.java",
			in:   "import java.util.List;\nimport java.util.Map;\nimport java.io.*;\n\nclass App { List<String> xs; }\n",
			want: "import java.util.List;\nimport java.io.*;\n\nclass App { List<String> xs; }\n",
		},
		{
			name: "unknown family untouched",
			path: "main.go",
			in:   "import \"os\"\n",
			want: "import \"os\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PruneImports(tt.path, tt.in))
		})
	}
}

// Every line PruneImports drops must be an import-like line.
func TestPruneImports_OnlyRemovesImportLines(t *testing.T) {
	inputs := map[string]string{
		"a.py":   "import os\n\"\"\"\nimport this is prose\n\"\"\"\nfrom x import y\ndef f():\n    import json\n    return 1\n",
		"b.ts":   "import a from 'a';\n// import b from 'b';\nexport const c = 1;\nconst d = require('d');\n",
		"C.cs":   "using A = B.C;\nnamespace N { class K {} }\n",
		"D.java": "package d;\nimport a.B;\nimport static a.C.m;\nclass D {}\n",
	}

	for path, in := range inputs {
		out := PruneImports(path, in)

		remaining := strings.Split(out, "\n")
		for _, line := range strings.Split(in, "\n") {
			if containsLine(remaining, line) {
				continue
			}
			fam, _ := ImportFamily(path)
			names, ok := familyImports[fam].parse(line)
			assert.True(t, ok && len(names) > 0, "%s: removed non-import line %q", path, line)
		}
	}
}

func containsLine(lines []string, line string) bool {
	for _, l := range lines {
		if l == line {
			return true
		}
	}
	return false
}
