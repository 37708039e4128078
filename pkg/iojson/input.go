package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Input reads a command's payload from the file named by its --file flag, or
// from stdin when the flag is empty.
type Input struct {
	path  string
	stdin io.Reader
}

// Flag returns the --file/-f flag bound to this input.
func (in *Input) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to input file (reads from stdin if not provided)",
		Destination: &in.path,
	}
}

// Bytes returns the raw input.
func (in *Input) Bytes() ([]byte, error) {
	if in.path != "" {
		data, err := os.ReadFile(in.path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	if in.stdin != nil {
		return io.ReadAll(in.stdin)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe input")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// Decode reads the input and decodes it as JSON into T.
func Decode[T any](in *Input) (T, error) {
	var out T

	data, err := in.Bytes()
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode JSON: %w", err)
	}
	return out, nil
}

// NewInput returns an Input that reads from r when no --file is given.
func NewInput(r io.Reader) *Input {
	return &Input{stdin: r}
}
