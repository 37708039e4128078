package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/core/plan"
	"github.com/colonyops/mender/pkg/iojson"
)

type NormalizeCmd struct {
	in      *iojson.Input
	lenient bool
}

// NewNormalizeCmd creates a new normalize command
func NewNormalizeCmd() *NormalizeCmd {
	return &NormalizeCmd{in: &iojson.Input{}}
}

// Register adds the normalize command to the application
func (cmd *NormalizeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "normalize",
		Usage: "Normalize and validate a model reply offline",
		UsageText: `mender normalize [options]

Read from stdin:
  cat reply.txt | mender normalize

Read from file:
  mender normalize -f reply.txt`,
		Description: `Parses a planner reply (plain JSON or JSON inside a fenced json block),
coerces single values into lists and validates the result.

The validated plan is printed as JSON. With --lenient the normalized object
is printed without validation. Failures are written to stderr as JSON.`,
		Flags: []cli.Flag{
			cmd.in.Flag(),
			&cli.BoolFlag{
				Name:        "lenient",
				Usage:       "print the normalized object without schema validation",
				Destination: &cmd.lenient,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *NormalizeCmd) run(ctx context.Context, c *cli.Command) error {
	data, err := cmd.in.Bytes()
	if err != nil {
		return iojson.WriteError(fmt.Sprintf("read input: %s", err), nil)
	}

	var out any
	if cmd.lenient {
		out, err = plan.Normalize(string(data))
	} else {
		out, err = plan.Decode(string(data))
	}
	if err != nil {
		return iojson.WriteError(err.Error(), fieldData(err))
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
}

// fieldData maps each field error in err to its message.
func fieldData(err error) map[string]any {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field] = fe.Err.Error()
	}
	return map[string]any{"fields": fields}
}
