// Package git reads local repository metadata with the git command-line tool.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/mender/pkg/executil"
)

// Executor runs git in the current working directory.
type Executor struct {
	gitPath string
	exec    executil.Executor
}

// NewExecutor creates a new git executor with the specified git binary path.
func NewExecutor(gitPath string, exec executil.Executor) *Executor {
	if gitPath == "" {
		gitPath = "git"
	}
	return &Executor{gitPath: gitPath, exec: exec}
}

// RemoteURL returns the URL of the named remote.
func (e *Executor) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := e.exec.Run(ctx, e.gitPath, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("get remote url: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
