package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mender/internal/commands"
	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/core/git"
	"github.com/colonyops/mender/internal/core/github"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/styles"
	"github.com/colonyops/mender/internal/core/validate"
	"github.com/colonyops/mender/internal/mender"
	"github.com/colonyops/mender/internal/printer"
	"github.com/colonyops/mender/pkg/executil"
	"github.com/colonyops/mender/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		menderApp = &mender.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "mender",
		Usage:     "Turn GitHub issues into pull requests with a language model",
		UsageText: "mender [global options] command [command options]",
		Description: `Mender reads an issue, collects the files most relevant to it and asks a
language model for a structured resolution plan. Each subtask of the plan
becomes a file edit: new test files, README updates, model-driven edits and
unused import cleanup. The edits are previewed, pushed to a new branch and
opened as a pull request.

GitHub access goes through the gh CLI. Run 'gh auth login' first, or export
a token in the variable named by github.token_env (GITHUB_TOKEN by default).

Run 'mender issues' to list open issues and 'mender resolve' to fix one.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MENDER_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file, or - for stderr",
				Sources:     cli.EnvVars("MENDER_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MENDER_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory (cached repository trees)",
				Sources:     cli.EnvVars("MENDER_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "repo",
				Aliases:     []string{"R"},
				Usage:       "repository as owner/name or a github.com URL (defaults to github.repo, then the origin remote)",
				Sources:     cli.EnvVars("MENDER_REPO"),
				Destination: &flags.Repo,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := flags.LogFile
			if logFile == "-" {
				logFile = ""
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			ctx = printer.NewContext(ctx, printer.New(c.Root().Writer, c.Root().ErrWriter))

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				// config validate reports problems itself
				if c.Args().First() == "config" {
					return ctx, nil
				}
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			var env []string
			if token := os.Getenv(cfg.GitHub.TokenEnv); token != "" {
				env = append(env, "GH_TOKEN="+token)
			}
			exec := &executil.RealExecutor{Env: env}

			slug, err := resolveRepo(ctx, exec, flags.Repo, cfg.GitHub.Repo)
			if err != nil {
				return ctx, err
			}
			cfg.GitHub.Repo = slug

			gh := github.New(exec, cfg.GitHub.GHPath, slug, cfg.Retry.Policy(), log.Logger)

			provider, err := llm.New(llm.Config{
				Provider: cfg.LLM.Provider,
				Model:    cfg.LLM.Model,
				BaseURL:  cfg.LLM.BaseURL,
				APIKey:   os.Getenv(cfg.LLM.APIKeyEnv),
				Timeout:  cfg.LLM.Timeout,
			})
			if err != nil {
				// only plan and resolve need a model
				log.Debug().Err(err).Msg("llm provider unavailable")
				flags.ProviderErr = err
				provider = nil
			}

			built, err := mender.NewApp(cfg, gh, provider, log.Logger)
			if err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*menderApp = *built

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewIssuesCmd(flags, menderApp).Register(app)
	app = commands.NewPlanCmd(flags, menderApp).Register(app)
	app = commands.NewResolveCmd(flags, menderApp).Register(app)
	app = commands.NewPublishCmd(flags, menderApp).Register(app)
	app = commands.NewNormalizeCmd().Register(app)
	app = commands.NewDoctorCmd(flags, menderApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		exitCode = 1

		var exitErr cli.ExitCoder
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if msg := runErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, msg)
		}
	}

	os.Exit(exitCode)
}

// resolveRepo picks the repository from the flag, then the config file, then
// the origin remote of the working directory. An empty result is not an
// error; commands that need a repository say so.
func resolveRepo(ctx context.Context, exec executil.Executor, flagRepo, cfgRepo string) (string, error) {
	if flagRepo != "" {
		slug, err := validate.ParseRepo(flagRepo)
		if err != nil {
			return "", fmt.Errorf("--repo: %w", err)
		}
		return slug, nil
	}
	if cfgRepo != "" {
		return cfgRepo, nil
	}

	url, err := git.NewExecutor("git", exec).RemoteURL(ctx, "origin")
	if err != nil {
		log.Debug().Err(err).Msg("no origin remote")
		return "", nil
	}
	slug, err := validate.ParseRepo(url)
	if err != nil {
		log.Debug().Err(err).Msg("origin remote is not a github repository")
		return "", nil
	}
	return slug, nil
}
