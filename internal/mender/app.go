package mender

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/core/github"
	"github.com/colonyops/mender/internal/core/llm"
	"github.com/colonyops/mender/internal/core/publish"
)

// App is the central entry point for all mender operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Resolver  *Resolver
	Publisher *publish.Publisher
	Doctor    *DoctorService
	GitHub    *github.Client
	Config    *config.Config
}

// NewApp constructs an App from explicit dependencies. provider may be nil
// for commands that never call a model; Resolver.Plan then fails.
func NewApp(cfg *config.Config, gh *github.Client, provider llm.Provider, log zerolog.Logger) (*App, error) {
	pub := publish.New(gh, publish.Config{
		BranchPrefix:  cfg.Publish.BranchPrefix,
		TitleTemplate: cfg.Publish.TitleTemplate,
		BodyTemplate:  cfg.Publish.BodyTemplate,
	}, log)

	res, err := NewResolver(cfg, gh, provider, pub, log)
	if err != nil {
		return nil, err
	}

	return &App{
		Resolver:  res,
		Publisher: pub,
		Doctor:    NewDoctorService(gh, cfg),
		GitHub:    gh,
		Config:    cfg,
	}, nil
}
