package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/internal/printer"
	"github.com/colonyops/mender/pkg/iojson"
)

type PlanCmd struct {
	flags *Flags
	app   *mender.App

	// flags
	jsonOutput bool
	raw        bool
}

// NewPlanCmd creates a new plan command
func NewPlanCmd(flags *Flags, app *mender.App) *PlanCmd {
	return &PlanCmd{flags: flags, app: app}
}

// Register adds the plan command to the application
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "plan",
		Usage:     "Generate a resolution plan for an issue",
		UsageText: "mender plan [options] [issue-number]",
		Description: `Fetches the issue, collects the files most relevant to it and asks the
model for a structured resolution plan. Nothing is written to the repository.

Without an issue number an interactive picker lists the open issues.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the validated plan as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the model reply exactly as received",
				Destination: &cmd.raw,
			},
		},
		ShellComplete: IssueNumberCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *PlanCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := cmd.flags.requireRepo(); err != nil {
		return err
	}

	number, err := pickIssue(ctx, c, cmd.app)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	a, err := cmd.app.Resolver.Plan(ctx, number)
	if a != nil && cmd.raw && a.RawPlan != "" {
		_, _ = fmt.Fprintln(c.Root().Writer, a.RawPlan)
	}
	if err != nil {
		if a != nil && a.Usage.TotalTokens > 0 {
			p.Infof("%s", usageLine(a.Usage))
		}
		return cmd.flags.modelError(err)
	}

	switch {
	case cmd.raw:
	case cmd.jsonOutput:
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, a.Plan)
	default:
		p.Header(fmt.Sprintf("Issue #%d: %s", a.Issue.Number, a.Issue.Title))
		_, _ = fmt.Fprint(c.Root().Writer, renderMarkdown(a.Plan.Markdown()))
		p.Infof("%s", usageLine(a.Usage))
	}
	return nil
}

// pickIssue returns the issue named on the command line, or asks the user to
// select one when running in a terminal.
func pickIssue(ctx context.Context, c *cli.Command, app *mender.App) (int, error) {
	number, ok, err := issueArg(c)
	if err != nil || ok {
		return number, err
	}

	if !interactive() {
		return 0, errors.New("issue number is required when not running in a terminal")
	}

	issues, err := app.GitHub.ListIssues(ctx)
	if err != nil {
		return 0, fmt.Errorf("list issues: %w", err)
	}
	return selectIssue(issues)
}
