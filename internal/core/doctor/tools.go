package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that required external tools are available on $PATH.
type ToolsCheck struct {
	ghPath string
}

// NewToolsCheck creates a new tools check. ghPath is the configured gh binary.
func NewToolsCheck(ghPath string) *ToolsCheck {
	if ghPath == "" {
		ghPath = "gh"
	}
	return &ToolsCheck{ghPath: ghPath}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	// gh is required for every GitHub call
	if path, err := lookPathFunc(c.ghPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusFail,
			Detail: c.ghPath + " not found on PATH",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusPass,
			Detail: path,
		})
	}

	// git is optional
	if path, err := lookPathFunc("git"); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusWarn,
			Detail: "not found on PATH (needed only to detect the repository from the origin remote)",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
