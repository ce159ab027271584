// Package discover locates the existing package-tool installation and its
// managed-environments directory by probing ordered candidate paths.
package discover

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/envshift/internal/messages"
)

// ErrNotFound reports that no candidate path exists.
var ErrNotFound = errors.New("not found")

// System abstracts the filesystem probe used by discovery.
// This interface is intentionally package-local to enable parallel-safe unit
// tests without shared global state. Other packages define their own System
// interfaces with operations specific to their needs.
type System interface {
	Stat(name string) (os.FileInfo, error)
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// DefaultInstallCandidates returns the ordered default locations of a
// conda-family installation for the current OS. Paths are checked in order,
// first match wins. `~` is expanded against the invoking user's home.
func DefaultInstallCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`~\Anaconda3`,
			`~\Miniconda3`,
			`~\AppData\Local\Continuum\anaconda3`,
			`~\AppData\Local\Continuum\miniconda3`,
			`C:\ProgramData\Anaconda3`,
			`C:\ProgramData\Miniconda3`,
		}
	}
	return []string{
		"~/anaconda3",
		"~/miniconda3",
		"~/.anaconda3",
		"~/.miniconda3",
		"/opt/anaconda3",
		"/opt/miniconda3",
	}
}

// DefaultEnvsCandidates returns the ordered default locations of the
// managed-environments directory relative to the installation layout.
func DefaultEnvsCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`~\Anaconda3\envs`,
			`~\Miniconda3\envs`,
			`~\.conda\envs`,
		}
	}
	return []string{
		"~/anaconda3/envs",
		"~/miniconda3/envs",
		"~/.conda/envs",
	}
}

// FindInstallation returns the first existing candidate installation path.
// Later candidates are ignored even if they also exist.
func FindInstallation(sys System, candidates []string) (string, error) {
	path, ok, err := firstExisting(sys, candidates)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf(messages.DiscoverNoInstallFmt+": %w", strings.Join(candidates, ", "), ErrNotFound)
	}
	return path, nil
}

// FindEnvironmentsDir returns the first existing candidate environments directory.
func FindEnvironmentsDir(sys System, candidates []string) (string, error) {
	path, ok, err := firstExisting(sys, candidates)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf(messages.DiscoverNoEnvsDirFmt+": %w", strings.Join(candidates, ", "), ErrNotFound)
	}
	return path, nil
}

// FirstExisting returns the first candidate that exists after `~` expansion,
// or ErrNotFound. Used directly for post-install executable verification.
func FirstExisting(sys System, candidates []string) (string, error) {
	path, ok, err := firstExisting(sys, candidates)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}
	return path, nil
}

func firstExisting(sys System, candidates []string) (string, bool, error) {
	for _, candidate := range candidates {
		expanded, err := homedir.Expand(candidate)
		if err != nil {
			return "", false, err
		}
		if _, err := sys.Stat(expanded); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", false, fmt.Errorf(messages.SystemFailedStatFmt, expanded, err)
		}
		return expanded, true, nil
	}
	return "", false, nil
}
