package mender

import (
	"context"

	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/core/doctor"
)

// DoctorService runs health checks on the mender setup.
type DoctorService struct {
	remote doctor.BranchResolver
	config *config.Config
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(remote doctor.BranchResolver, cfg *config.Config) *DoctorService {
	return &DoctorService{remote: remote, config: cfg}
}

// RunChecks executes all doctor checks and returns results. providerErr is
// the error, if any, from building the model provider.
func (d *DoctorService) RunChecks(ctx context.Context, providerErr error) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewToolsCheck(d.config.GitHub.GHPath),
		doctor.NewGitHubCheck(d.remote, d.config.GitHub.Repo, d.config.GitHub.TokenEnv),
		doctor.NewModelCheck(d.config.LLM.Provider, d.config.LLM.Model, providerErr),
	}
	return doctor.RunAll(ctx, checks)
}
