package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/mender"
)

// IssueNumberCompleter returns a ShellCompleteFunc that suggests open issue
// numbers as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func IssueNumberCompleter(app *mender.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.GitHub == nil {
			return
		}
		issues, err := app.GitHub.ListIssues(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, is := range issues {
			_, _ = fmt.Fprintf(w, "%d:%s\n", is.Number, is.Title)
		}
	}
}

// issueArg parses the first positional argument as an issue number. ok is
// false when no argument was given.
func issueArg(c *cli.Command) (n int, ok bool, err error) {
	if !c.Args().Present() {
		return 0, false, nil
	}
	raw := c.Args().First()
	if len(raw) > 0 && raw[0] == '#' {
		raw = raw[1:]
	}
	n, err = strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false, fmt.Errorf("invalid issue number %q", c.Args().First())
	}
	return n, true, nil
}
