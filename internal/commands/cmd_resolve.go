package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/core/edits"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/plan"
	"github.com/colonyops/mender/internal/core/publish"
	"github.com/colonyops/mender/internal/core/styles"
	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/internal/printer"
	"github.com/colonyops/mender/pkg/iojson"
)

type ResolveCmd struct {
	flags *Flags
	app   *mender.App

	// flags
	yes         bool
	dryRun      bool
	jsonOutput  bool
	noDiff      bool
	diffContext int
}

// NewResolveCmd creates a new resolve command
func NewResolveCmd(flags *Flags, app *mender.App) *ResolveCmd {
	return &ResolveCmd{flags: flags, app: app}
}

// Register adds the resolve command to the application
func (cmd *ResolveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "resolve",
		Usage:     "Plan, edit and open a pull request for an issue",
		UsageText: "mender resolve [options] [issue-number]",
		Description: `Runs the whole pipeline for one issue:

  1. collect the files most relevant to the issue
  2. ask the model for a resolution plan
  3. turn each subtask into file edits
  4. preview the edits as diffs
  5. after confirmation, push a branch and open a pull request

Use --dry-run to stop after the preview and --yes to skip the confirmation.
--json prints a machine-readable summary and requires --yes or --dry-run.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "publish without asking for confirmation",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "build and preview edits without publishing",
				Destination: &cmd.dryRun,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output a JSON summary",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "no-diff",
				Usage:       "skip the diff preview",
				Destination: &cmd.noDiff,
			},
			&cli.IntFlag{
				Name:        "context",
				Usage:       "unchanged lines shown around each change in the preview",
				Value:       3,
				Destination: &cmd.diffContext,
			},
		},
		ShellComplete: IssueNumberCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// resolveOutput is the JSON output format for mender resolve --json.
type resolveOutput struct {
	Attempt    string              `json:"attempt"`
	Issue      int                 `json:"issue"`
	Plan       plan.ResolutionPlan `json:"plan"`
	Files      []string            `json:"files"`
	Unresolved []string            `json:"unresolved,omitempty"`
	Failed     []string            `json:"failed,omitempty"`
	Published  *publish.Result     `json:"published,omitempty"`
	Usage      llm.Usage           `json:"usage"`
}

func (cmd *ResolveCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := cmd.flags.requireRepo(); err != nil {
		return err
	}
	if cmd.jsonOutput && !cmd.yes && !cmd.dryRun {
		return errors.New("--json requires --yes or --dry-run")
	}

	number, err := pickIssue(ctx, c, cmd.app)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	if !cmd.jsonOutput {
		p.Infof("Resolving issue #%d in %s", number, cmd.app.GitHub.Repo())
	}

	a, err := cmd.app.Resolver.Resolve(ctx, number)
	if err != nil {
		if a != nil && a.Usage.TotalTokens > 0 && !cmd.jsonOutput {
			p.Infof("%s", usageLine(a.Usage))
		}
		return cmd.flags.modelError(err)
	}

	if cmd.jsonOutput {
		return cmd.runJSON(ctx, c, a)
	}

	p.Header(fmt.Sprintf("Issue #%d: %s", a.Issue.Number, a.Issue.Title))
	_, _ = fmt.Fprint(c.Root().Writer, renderMarkdown(a.Plan.Markdown()))
	cmd.printReport(p, a.Report)

	if len(a.Edits) == 0 {
		p.Warnf("No changes to publish")
		p.Infof("%s", usageLine(a.Usage))
		return nil
	}

	if !cmd.noDiff {
		for _, path := range a.Edits.Paths() {
			_, _ = fmt.Fprintln(c.Root().Writer, renderDiff(path, a.Originals[path], a.Edits[path], cmd.diffContext))
		}
	}

	if cmd.dryRun {
		p.Infof("Dry run: %d file(s) not published", len(a.Edits))
		p.Infof("%s", usageLine(a.Usage))
		return nil
	}

	if !cmd.yes {
		if !interactive() {
			return errors.New("refusing to publish without confirmation; pass --yes")
		}
		ok, err := confirm(
			fmt.Sprintf("Publish %d file(s) to a new branch?", len(a.Edits)),
			fmt.Sprintf("A pull request will be opened against %s in %s", a.Base, cmd.app.GitHub.Repo()),
		)
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			p.Infof("Publishing cancelled")
			p.Infof("%s", usageLine(a.Usage))
			return nil
		}
	}

	res := cmd.app.Resolver.Publish(ctx, a)
	cmd.printResult(p, res)
	p.Infof("%s", usageLine(a.Usage))

	if !res.Succeeded {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ResolveCmd) runJSON(ctx context.Context, c *cli.Command, a *mender.Attempt) error {
	out := resolveOutput{
		Attempt: a.ID,
		Issue:   a.Issue.Number,
		Plan:    a.Plan,
		Files:   a.Edits.Paths(),
	}
	for _, u := range a.Report.Unresolved {
		out.Unresolved = append(out.Unresolved, fmt.Sprintf("%s: %s", u.Subtask.Description, u.Reason))
	}
	for _, f := range a.Report.Failed {
		out.Failed = append(out.Failed, f.Error())
	}

	if !cmd.dryRun && len(a.Edits) > 0 {
		res := cmd.app.Resolver.Publish(ctx, a)
		out.Published = &res
	}
	out.Usage = a.Usage

	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
		return err
	}
	if out.Published != nil && !out.Published.Succeeded {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ResolveCmd) printReport(p *printer.Printer, r edits.Report) {
	if len(r.Changes) > 0 {
		p.Header("Changes")
		for _, ch := range r.Changes {
			p.Printf("  %s", changeLine(ch))
		}
	}
	for _, u := range r.Unresolved {
		p.Warnf("Skipped subtask %q: %s", u.Subtask.Description, u.Reason)
	}
	for _, f := range r.Failed {
		p.Errorf("Could not apply %s", f.Error())
	}
}

func (cmd *ResolveCmd) printResult(p *printer.Printer, res publish.Result) {
	if !res.Succeeded {
		p.Errorf("%s", res.Message)
		for _, f := range res.Failed {
			p.Printf("  %s %s: %s", styles.IconCross, f.Path, f.Error)
		}
		return
	}

	p.Success(res.Message, res.PullRequestURL)
	if res.Branch != "" {
		p.Printf("  %s %s", styles.IconBranch, res.Branch)
	}
	for _, f := range res.Failed {
		p.Warnf("Not written: %s: %s", f.Path, f.Error)
	}
}
