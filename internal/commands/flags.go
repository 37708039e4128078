package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/mender/internal/core/config"
	"github.com/colonyops/mender/internal/mender"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Repo       string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// ProviderErr records why no llm provider could be built. Commands that
	// need a model report it.
	ProviderErr error
}

// requireRepo fails when no repository was configured or passed.
func (f *Flags) requireRepo() error {
	if f.Config == nil || f.Config.GitHub.Repo == "" {
		return errors.New("no repository set; pass --repo owner/name or set github.repo in the config file")
	}
	return nil
}

// modelError explains an ErrNoProvider failure.
func (f *Flags) modelError(err error) error {
	if errors.Is(err, mender.ErrNoProvider) && f.ProviderErr != nil {
		return fmt.Errorf("%w: %w", err, f.ProviderErr)
	}
	return err
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "mender", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "mender")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/mender/mender.log
// On Linux: $XDG_STATE_HOME/mender/mender.log (defaults to ~/.local/state/mender/mender.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "mender", "mender.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "mender", "mender.log")
	}

	return filepath.Join(home, ".local", "state", "mender", "mender.log")
}
