// Package removal deactivates the active environment, deletes the old
// installation and its leftover config directories, and removes the
// installation from the user's persisted executable search path.
package removal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

// DefaultLeftoverDirs are the home-relative directories deleted after the
// installation itself. All deletions are idempotent.
var DefaultLeftoverDirs = []string{".conda", ".condarc", ".continuum"}

// Manager runs the removal step.
type Manager struct {
	sys    System
	client condacli.Client
	log    *steplog.Logger
	store  SearchPathStore

	homeDir      string
	installDir   string
	leftoverDirs []string
}

// Options configures a removal Manager.
type Options struct {
	HomeDir    string
	InstallDir string
	// LeftoverDirs overrides DefaultLeftoverDirs when non-nil; entries are
	// paths relative to HomeDir.
	LeftoverDirs []string
	// Store persists the user-scope search path; nil disables the
	// search-path edit (used by dry runs and tests).
	Store SearchPathStore
}

// NewManager returns a removal Manager.
func NewManager(sys System, client condacli.Client, log *steplog.Logger, opts Options) *Manager {
	dirs := opts.LeftoverDirs
	if dirs == nil {
		dirs = DefaultLeftoverDirs
	}
	return &Manager{
		sys:          sys,
		client:       client,
		log:          log,
		store:        opts.Store,
		homeDir:      opts.HomeDir,
		installDir:   opts.InstallDir,
		leftoverDirs: dirs,
	}
}

// Run performs the full removal. The manifest gate is checked first: removal
// never begins unless the configuration-file backup succeeded. Deactivation
// failure aborts before any file is touched; a stale activation can corrupt
// the deletion that follows.
func (m *Manager) Run(ctx context.Context, record manifest.Manifest) error {
	if !record.ConfigBackupSucceeded() {
		return errors.New(messages.RemovalGateConfigFailed)
	}
	if err := m.DeactivateActiveEnvironment(ctx); err != nil {
		return err
	}
	if err := m.DeleteInstallation(); err != nil {
		return err
	}
	for _, rel := range m.leftoverDirs {
		if err := m.DeleteIfExists(filepath.Join(m.homeDir, rel)); err != nil {
			return err
		}
	}
	return m.UpdateSearchPath()
}

// DeactivateActiveEnvironment deactivates any active environment. Failure is
// fatal for the whole migration.
func (m *Manager) DeactivateActiveEnvironment(ctx context.Context) error {
	if err := m.client.Deactivate(ctx); err != nil {
		return fmt.Errorf(messages.RemovalDeactivateFmt, err)
	}
	return nil
}

// DeleteInstallation recursively deletes the installation directory.
func (m *Manager) DeleteInstallation() error {
	if err := m.sys.RemoveAll(m.installDir); err != nil {
		return fmt.Errorf(messages.RemovalDeleteFmt, m.installDir, err)
	}
	m.log.Infof(messages.RemovalDeletedFmt, m.installDir)
	return nil
}

// DeleteIfExists deletes path if present. Absence is not an error.
func (m *Manager) DeleteIfExists(path string) error {
	if _, err := m.sys.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.log.Infof(messages.RemovalAbsentFmt, path)
			return nil
		}
		return fmt.Errorf(messages.SystemFailedStatFmt, path, err)
	}
	if err := m.sys.RemoveAll(path); err != nil {
		return fmt.Errorf(messages.RemovalDeleteFmt, path, err)
	}
	m.log.Infof(messages.RemovalDeletedFmt, path)
	return nil
}

// UpdateSearchPath removes the installation's entries from the persisted
// user-scope search path via the configured store.
func (m *Manager) UpdateSearchPath() error {
	if m.store == nil {
		return nil
	}
	current, err := m.store.Load()
	if err != nil {
		return fmt.Errorf(messages.RemovalSearchPathFmt, err)
	}
	updated := RemoveFromSearchPath(m.installDir, current)
	if updated == current {
		m.log.Infof(messages.RemovalSearchPathNoop)
		return nil
	}
	if err := m.store.Store(updated); err != nil {
		return fmt.Errorf(messages.RemovalSearchPathFmt, err)
	}
	return nil
}
