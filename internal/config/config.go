// Package config loads the optional envshift.toml configuration file.
// Every field has a compiled-in default; the file only overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/envshift/internal/messages"
)

// ErrConfigValidation is a sentinel that wraps config validation failures
// (as opposed to TOML syntax or filesystem errors). Callers can use
// errors.Is(err, ErrConfigValidation) to distinguish them.
var ErrConfigValidation = errors.New(messages.ConfigValidationFailed)

// Config is the envshift tool configuration.
type Config struct {
	// BackupDir is the root for backups, logs, and checkpoints.
	// Empty means ~/.envshift.
	BackupDir string `toml:"backup_dir"`
	// ToolBin is the old tool's binary name or path.
	ToolBin string `toml:"tool_bin"`
	// InstallerURL is the replacement distribution's installer artifact.
	InstallerURL string `toml:"installer_url"`
	// NewInstallDir is where the replacement distribution is installed.
	// Empty means ~/miniforge3 (or ~\Miniforge3 on Windows).
	NewInstallDir string `toml:"new_install_dir"`

	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
	InstallTimeoutSeconds  int `toml:"install_timeout_seconds"`
	ToolTimeoutSeconds     int `toml:"tool_timeout_seconds"`

	// InstallCandidates and EnvsCandidates override discovery defaults.
	InstallCandidates []string `toml:"install_candidates"`
	EnvsCandidates    []string `toml:"envs_candidates"`
	// NewToolCandidates are probed for the post-install verification.
	NewToolCandidates []string `toml:"new_tool_candidates"`
	// ConfigFiles are home-relative config files to back up.
	ConfigFiles []string `toml:"config_files"`
	// LeftoverDirs are home-relative directories removed after the install dir.
	LeftoverDirs []string `toml:"leftover_dirs"`
	// SearchPathFile is the env file holding the persisted PATH on Unix.
	SearchPathFile string `toml:"search_path_file"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	installerURL := "https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-Linux-x86_64.sh"
	newToolCandidates := []string{
		"~/miniforge3/bin/mamba",
		"~/miniforge3/bin/conda",
	}
	if runtime.GOOS == "windows" {
		installerURL = "https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-Windows-x86_64.exe"
		newToolCandidates = []string{
			`~\Miniforge3\Scripts\mamba.exe`,
			`~\Miniforge3\Scripts\conda.exe`,
		}
	} else if runtime.GOOS == "darwin" {
		installerURL = "https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-MacOSX-arm64.sh"
	}
	searchPathFile := "~/.profile"
	if runtime.GOOS == "windows" {
		// The user-scope search path lives in the registry on Windows.
		searchPathFile = ""
	}
	return Config{
		ToolBin:                "conda",
		InstallerURL:           installerURL,
		DownloadTimeoutSeconds: 600,
		InstallTimeoutSeconds:  1800,
		ToolTimeoutSeconds:     120,
		NewToolCandidates:      newToolCandidates,
		SearchPathFile:         searchPathFile,
	}
}

// Load reads path and overlays it on the defaults. An empty path returns the
// defaults; a missing file at an explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf(messages.ConfigMissingFileFmt, path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf(messages.ConfigInvalidTOMLFmt, path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ToolBin) == "" {
		return fmt.Errorf(messages.ConfigInvalidFieldFmt+": %w", "tool_bin", "must not be empty", ErrConfigValidation)
	}
	if strings.TrimSpace(c.InstallerURL) == "" {
		return fmt.Errorf(messages.ConfigInvalidFieldFmt+": %w", "installer_url", "must not be empty", ErrConfigValidation)
	}
	if !strings.HasPrefix(c.InstallerURL, "https://") {
		return fmt.Errorf(messages.ConfigInvalidFieldFmt+": %w", "installer_url", "must use https", ErrConfigValidation)
	}
	for name, seconds := range map[string]int{
		"download_timeout_seconds": c.DownloadTimeoutSeconds,
		"install_timeout_seconds":  c.InstallTimeoutSeconds,
		"tool_timeout_seconds":     c.ToolTimeoutSeconds,
	} {
		if seconds <= 0 {
			return fmt.Errorf(messages.ConfigInvalidFieldFmt+": %w", name, "must be positive", ErrConfigValidation)
		}
	}
	return nil
}

// DownloadTimeout returns the download bound as a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// InstallTimeout returns the install-run bound as a duration.
func (c Config) InstallTimeout() time.Duration {
	return time.Duration(c.InstallTimeoutSeconds) * time.Second
}

// ToolTimeout returns the per-invocation tool bound as a duration.
func (c Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}
