package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/core/publish"
	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/pkg/iojson"
)

type PublishCmd struct {
	flags *Flags
	app   *mender.App
	in    *iojson.Input

	// flags
	issue int
	base  string
}

// PublishInput is the document read by mender publish.
type PublishInput struct {
	// Files maps repository paths to their complete new content.
	Files map[string]string `json:"files"`
	Issue int               `json:"issue,omitempty"`
	Base  string            `json:"base,omitempty"`
}

// NewPublishCmd creates a new publish command
func NewPublishCmd(flags *Flags, app *mender.App) *PublishCmd {
	return &PublishCmd{flags: flags, app: app, in: &iojson.Input{}}
}

// Register adds the publish command to the application
func (cmd *PublishCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "publish",
		Usage: "Publish an edit set as a branch and pull request",
		UsageText: `mender publish [options]

Read from stdin:
  echo '{"files":{"README.md":"# Widgets\n"},"issue":7}' | mender publish

Read from file:
  mender publish -f edits.json --issue 7`,
		Description: `Creates a branch from the base branch, writes every file and opens a pull
request. Files identical to the base are skipped.

Input JSON schema:
  {
    "files": {"path/in/repo": "complete new content"},
    "issue": 7,
    "base": "main"
  }

--issue and --base override the input. The result is printed as JSON and the
command exits non-zero when publishing did not succeed.`,
		Flags: []cli.Flag{
			cmd.in.Flag(),
			&cli.IntFlag{
				Name:        "issue",
				Usage:       "issue number the change resolves",
				Destination: &cmd.issue,
			},
			&cli.StringFlag{
				Name:        "base",
				Usage:       "base branch (defaults to the repository default branch)",
				Destination: &cmd.base,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PublishCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.requireRepo(); err != nil {
		return iojson.WriteError(err.Error(), nil)
	}

	input, err := iojson.Decode[PublishInput](cmd.in)
	if err != nil {
		return iojson.WriteError(fmt.Sprintf("read input: %s", err), nil)
	}
	if err := input.Validate(); err != nil {
		return iojson.WriteError(err.Error(), fieldData(err))
	}

	opts := publish.Options{Base: input.Base, Issue: input.Issue}
	if cmd.issue != 0 {
		opts.Issue = cmd.issue
	}
	if cmd.base != "" {
		opts.Base = cmd.base
	}

	res := cmd.app.Publisher.Publish(ctx, input.Files, opts)
	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, res); err != nil {
		return err
	}
	if !res.Succeeded {
		return cli.Exit("", 1)
	}
	return nil
}

// Validate checks the publish input for errors using criterio.
func (in PublishInput) Validate() error {
	if len(in.Files) == 0 {
		return criterio.NewFieldErrors("files", errors.New("is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	for p := range in.Files {
		switch {
		case strings.TrimSpace(p) == "":
			errs = errs.Append("files", errors.New("contains an empty path"))
		case strings.HasPrefix(p, "/"):
			errs = errs.Append(fmt.Sprintf("files[%s]", p), errors.New("path must be relative to the repository root"))
		}
	}
	if in.Issue < 0 {
		errs = errs.Append("issue", errors.New("must not be negative"))
	}
	return errs.ToError()
}
