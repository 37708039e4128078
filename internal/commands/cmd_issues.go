package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/pkg/iojson"
)

type IssuesCmd struct {
	flags *Flags
	app   *mender.App

	// flags
	jsonOutput bool
}

// NewIssuesCmd creates a new issues command
func NewIssuesCmd(flags *Flags, app *mender.App) *IssuesCmd {
	return &IssuesCmd{flags: flags, app: app}
}

// Register adds the issues command to the application
func (cmd *IssuesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "issues",
		Usage:     "List open issues",
		UsageText: "mender issues [--json]",
		Description: `Lists the open issues of the repository. Pull requests are skipped.

Use --json to print the issues as a JSON array.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *IssuesCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.requireRepo(); err != nil {
		return err
	}

	issues, err := cmd.app.GitHub.ListIssues(ctx)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, issues)
	}

	if len(issues) == 0 {
		fmt.Fprintf(os.Stderr, "No open issues in %s\n", cmd.app.GitHub.Repo())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tTITLE\tLABELS")
	for _, is := range issues {
		_, _ = fmt.Fprintf(w, "#%d\t%s\t%s\n", is.Number, is.Title, strings.Join(is.Labels, ","))
	}
	return w.Flush()
}
