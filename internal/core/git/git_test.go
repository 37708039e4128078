package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mender/pkg/executil"
)

func TestExecutor_RemoteURL(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git": []byte("git@github.com:octo/widgets.git\n"),
		},
	}

	url, err := NewExecutor("", rec).RemoteURL(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:octo/widgets.git", url)

	require.Len(t, rec.Commands, 1)
	assert.Equal(t, "git", rec.Commands[0].Cmd)
	assert.Equal(t, []string{"remote", "get-url", "origin"}, rec.Commands[0].Args)
}

func TestExecutor_RemoteURLError(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Errors: map[string]error{
			"git": errors.New("not a git repository"),
		},
	}

	_, err := NewExecutor("git", rec).RemoteURL(context.Background(), "origin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get remote url")
}
