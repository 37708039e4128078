package executil

import (
	"context"
	"io"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd   string
	Args  []string
	Stdin []byte
}

// RecordingExecutor captures commands for testing.
//
// Respond, when set, decides the output of every call. Otherwise the Outputs
// and Errors maps (keyed by command name, e.g. "gh") are consulted.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Respond func(cmd string, args []string, stdin []byte) ([]byte, error)

	Outputs map[string][]byte
	Errors  map[string]error
}

// Run records the command and returns the configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(nil, cmd, args...)
}

// RunInput records the command with its stdin and returns the configured output/error.
func (e *RecordingExecutor) RunInput(ctx context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error) {
	var in []byte
	if stdin != nil {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		in = b
	}
	return e.record(in, cmd, args...)
}

func (e *RecordingExecutor) record(stdin []byte, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Cmd:   cmd,
		Args:  args,
		Stdin: stdin,
	})

	if e.Respond != nil {
		return e.Respond(cmd, args, stdin)
	}

	var out []byte
	var err error

	if e.Outputs != nil {
		out = e.Outputs[cmd]
	}
	if e.Errors != nil {
		err = e.Errors[cmd]
	}

	return out, err
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
