// Package backup copies configuration files, captures the channel list, and
// backs up every managed environment with three layers of redundancy:
// declarative export, per-environment raw copy, and a bulk copy of the
// environments directory. Declarative export can silently omit local-only
// packages, and a partial backup must not block removal once the essential
// configuration is safe.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

// DefaultConfigFiles are the home-relative config files and folders backed up
// by default. Misses are logged as warnings, not errors.
var DefaultConfigFiles = []string{".condarc", ".conda"}

// Manager runs the backup step and assembles the manifest.
type Manager struct {
	sys    System
	client condacli.Client
	log    *steplog.Logger

	homeDir     string
	installDir  string
	envsDir     string
	backupRoot  string
	configFiles []string
}

// Options configures a backup Manager.
type Options struct {
	HomeDir    string
	InstallDir string
	EnvsDir    string
	BackupRoot string
	// ConfigFiles overrides DefaultConfigFiles when non-nil; entries are
	// paths relative to HomeDir.
	ConfigFiles []string
}

// NewManager returns a backup Manager.
func NewManager(sys System, client condacli.Client, log *steplog.Logger, opts Options) *Manager {
	files := opts.ConfigFiles
	if files == nil {
		files = DefaultConfigFiles
	}
	return &Manager{
		sys:         sys,
		client:      client,
		log:         log,
		homeDir:     opts.HomeDir,
		installDir:  opts.InstallDir,
		envsDir:     opts.EnvsDir,
		backupRoot:  opts.BackupRoot,
		configFiles: files,
	}
}

// ManifestPath returns where Run writes the backup manifest.
func (m *Manager) ManifestPath() string {
	return filepath.Join(m.backupRoot, "manifest.json")
}

// Run performs the full backup and writes the manifest. The manifest is
// written even when sub-steps failed, so a partial backup stays inspectable;
// only a failure to enumerate environments or to write the manifest itself
// is returned as an error.
func (m *Manager) Run(ctx context.Context) (manifest.Manifest, error) {
	record := manifest.New(m.installDir)

	if err := m.sys.MkdirAll(m.backupRoot, 0o755); err != nil {
		return record, fmt.Errorf(messages.SystemFailedCreateDirFmt, m.backupRoot, err)
	}

	record.ConfigFiles = m.BackupConfigFiles()
	record.Channels, record.ChannelsPath = m.CaptureChannels(ctx)

	names, err := m.ListEnvironments(ctx)
	if err != nil {
		// Nothing downstream is meaningful without an environment listing,
		// but the config-file results gathered so far are still worth a
		// manifest for manual inspection.
		if writeErr := manifest.Write(m.ManifestPath(), record); writeErr != nil {
			m.log.Errorf(messages.BackupManifestWriteWarnFmt, writeErr)
		}
		return record, err
	}

	for _, name := range names {
		record.Environments = append(record.Environments, m.ExportEnvironment(ctx, name))
	}

	if err := m.BulkCopyEnvironmentsDir(); err != nil {
		record.BulkCopyError = err.Error()
		m.log.Warnf(messages.BackupBulkCopyFailFmt, err)
	} else {
		record.BulkCopyPath = m.bulkCopyDest()
	}

	if err := manifest.Write(m.ManifestPath(), record); err != nil {
		return record, fmt.Errorf(messages.BackupWriteManifestFmt, err)
	}
	return record, nil
}

// BackupConfigFiles copies the known config files and folders from the home
// directory into the backup root. Each miss is a non-fatal warning; a copy
// failure is recorded and later blocks removal.
func (m *Manager) BackupConfigFiles() []manifest.ConfigFileResult {
	destRoot := filepath.Join(m.backupRoot, "config")
	results := make([]manifest.ConfigFileResult, 0, len(m.configFiles))
	for _, rel := range m.configFiles {
		src := filepath.Join(m.homeDir, rel)
		dest := filepath.Join(destRoot, rel)
		result := manifest.ConfigFileResult{Source: src, Dest: dest}

		info, err := m.sys.Stat(src)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				result.Status = manifest.ConfigFileMissing
				result.Dest = ""
				m.log.Warnf(messages.BackupConfigMissingFmt, src)
				results = append(results, result)
				continue
			}
			result.Status = manifest.ConfigFileFailed
			result.Error = err.Error()
			m.log.Errorf(messages.BackupConfigFailedFmt, src, err)
			results = append(results, result)
			continue
		}

		var copyErr error
		if info.IsDir() {
			copyErr = m.sys.CopyDir(src, dest)
		} else {
			copyErr = m.sys.CopyFile(src, dest)
		}
		if copyErr != nil {
			result.Status = manifest.ConfigFileFailed
			result.Error = copyErr.Error()
			m.log.Errorf(messages.BackupConfigFailedFmt, src, copyErr)
		} else {
			result.Status = manifest.ConfigFileCopied
			m.log.Infof(messages.BackupConfigCopiedFmt, src, dest)
		}
		results = append(results, result)
	}
	return results
}

// CaptureChannels records the tool's channel list in precedence order. On
// invocation failure it returns an empty list: restore will simply have
// nothing to re-apply.
func (m *Manager) CaptureChannels(ctx context.Context) ([]string, string) {
	channels, err := m.client.Channels(ctx)
	if err != nil {
		m.log.Warnf(messages.BackupChannelsFailFmt, err)
		return nil, ""
	}
	m.log.Infof(messages.BackupChannelsOKFmt, len(channels))

	path := filepath.Join(m.backupRoot, "channels.txt")
	data := []byte(strings.Join(channels, "\n") + "\n")
	if err := m.sys.WriteFileAtomic(path, data, 0o644); err != nil {
		m.log.Warnf(messages.BackupConfigFailedFmt, path, err)
		return channels, ""
	}
	return channels, path
}

// ListEnvironments enumerates managed environments. Failure here is fatal to
// the backup: if the tool cannot be invoked at all there is nothing to migrate.
func (m *Manager) ListEnvironments(ctx context.Context) ([]string, error) {
	names, err := m.client.ListEnvs(ctx)
	if err != nil {
		return nil, fmt.Errorf(messages.BackupEnvListFailFmt, err)
	}
	return names, nil
}

// ExportEnvironment backs up one environment: declarative export first, raw
// directory copy on export failure, and a failed entry when the directory is
// also absent. No single environment failure aborts the batch.
func (m *Manager) ExportEnvironment(ctx context.Context, name string) manifest.EnvironmentEntry {
	destFile := filepath.Join(m.backupRoot, "envs", name+".yml")
	exportErr := m.sys.MkdirAll(filepath.Dir(destFile), 0o755)
	if exportErr == nil {
		exportErr = m.client.ExportEnv(ctx, name, destFile)
	}
	if exportErr == nil {
		m.log.Infof(messages.BackupExportOKFmt, name)
		return manifest.EnvironmentEntry{Name: name, Method: manifest.MethodExported, Path: destFile}
	}
	m.log.Warnf(messages.BackupExportFailFmt, name, exportErr)

	srcDir := filepath.Join(m.envsDir, name)
	destDir := filepath.Join(m.backupRoot, "envs-raw", name)
	if _, err := m.sys.Stat(srcDir); err != nil {
		m.log.Errorf(messages.BackupEnvFailedFmt, name)
		return manifest.EnvironmentEntry{Name: name, Method: manifest.MethodFailed, Error: "export failed and environment directory is absent"}
	}
	if err := m.sys.CopyDir(srcDir, destDir); err != nil {
		m.log.Warnf(messages.BackupRawCopyFailFmt, name, err)
		m.log.Errorf(messages.BackupEnvFailedFmt, name)
		return manifest.EnvironmentEntry{Name: name, Method: manifest.MethodFailed, Error: err.Error()}
	}
	m.log.Infof(messages.BackupRawCopyOKFmt, name)
	return manifest.EnvironmentEntry{Name: name, Method: manifest.MethodCopiedRaw, Path: destDir}
}

// BulkCopyEnvironmentsDir is the final redundant full-directory copy. Failure
// here does not invalidate a manifest already holding per-environment entries.
func (m *Manager) BulkCopyEnvironmentsDir() error {
	if m.envsDir == "" {
		return nil
	}
	if _, err := m.sys.Stat(m.envsDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return m.sys.CopyDir(m.envsDir, m.bulkCopyDest())
}

func (m *Manager) bulkCopyDest() string {
	return filepath.Join(m.backupRoot, "envs-bulk")
}
