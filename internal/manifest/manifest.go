// Package manifest defines the persisted records of the migration: the
// backup manifest that drives restore and verification, and the migration
// state checkpoint that makes a re-run resumable.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/conn-castle/envshift/internal/fsutil"
	"github.com/conn-castle/envshift/internal/messages"
)

// SchemaVersion is the on-disk schema version for both records.
const SchemaVersion = 1

// Method records how an environment was backed up.
type Method string

const (
	// MethodExported means the declarative spec export succeeded.
	MethodExported Method = "exported"
	// MethodCopiedRaw means export failed and the environment directory was copied.
	MethodCopiedRaw Method = "copied_raw"
	// MethodFailed means neither export nor raw copy succeeded.
	MethodFailed Method = "failed"
)

// ConfigFileStatus records the outcome of backing up one config file.
type ConfigFileStatus string

const (
	// ConfigFileCopied means the file existed and was copied.
	ConfigFileCopied ConfigFileStatus = "copied"
	// ConfigFileMissing means the file was not present (a warning, not an error).
	ConfigFileMissing ConfigFileStatus = "missing"
	// ConfigFileFailed means the file existed but could not be copied.
	ConfigFileFailed ConfigFileStatus = "failed"
)

// EnvironmentEntry describes the backup of a single environment.
type EnvironmentEntry struct {
	Name   string `json:"name"`
	Method Method `json:"method"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ConfigFileResult describes the backup of a single configuration file or folder.
type ConfigFileResult struct {
	Source string           `json:"source"`
	Dest   string           `json:"dest,omitempty"`
	Status ConfigFileStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// Manifest is the single artifact restore and verification depend on. It is
// written even when sub-steps failed, so a partial backup stays inspectable.
type Manifest struct {
	SchemaVersion int                `json:"schema_version"`
	CreatedAtUTC  string             `json:"created_at_utc"`
	SourceInstall string             `json:"source_install"`
	ConfigFiles   []ConfigFileResult `json:"config_files"`
	ChannelsPath  string             `json:"channels_path,omitempty"`
	Channels      []string           `json:"channels"`
	Environments  []EnvironmentEntry `json:"environments"`
	BulkCopyPath  string             `json:"bulk_copy_path,omitempty"`
	BulkCopyError string             `json:"bulk_copy_error,omitempty"`
}

// New returns an empty manifest stamped with the current time.
func New(sourceInstall string) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersion,
		CreatedAtUTC:  time.Now().UTC().Format(time.RFC3339),
		SourceInstall: sourceInstall,
	}
}

// ConfigBackupSucceeded reports whether the configuration-file backup is safe
// to rely on: no copy attempt failed. Missing files are tolerated.
// Removal must never begin unless this holds.
func (m Manifest) ConfigBackupSucceeded() bool {
	for _, result := range m.ConfigFiles {
		if result.Status == ConfigFileFailed {
			return false
		}
	}
	return true
}

// FailedEnvironments returns the names of environments whose backup failed.
func (m Manifest) FailedEnvironments() []string {
	var failed []string
	for _, entry := range m.Environments {
		if entry.Method == MethodFailed {
			failed = append(failed, entry.Name)
		}
	}
	return failed
}

// Write validates the manifest and writes it atomically to path.
func Write(path string, m Manifest) error {
	if err := validate(m); err != nil {
		return fmt.Errorf(messages.ManifestValidateFmt, path, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.SystemFailedWriteFmt, path, err)
	}
	return nil
}

// Read loads and validates a manifest from path.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf(messages.SystemFailedReadFmt, path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf(messages.ManifestDecodeFmt, path, err)
	}
	if err := validate(m); err != nil {
		return Manifest{}, fmt.Errorf(messages.ManifestValidateFmt, path, err)
	}
	return m, nil
}

func validate(m Manifest) error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf(messages.ManifestSchemaFmt, m.SchemaVersion)
	}
	if strings.TrimSpace(m.CreatedAtUTC) == "" {
		return fmt.Errorf(messages.ManifestMissingCreated)
	}
	if _, err := time.Parse(time.RFC3339, m.CreatedAtUTC); err != nil {
		return fmt.Errorf(messages.ManifestBadCreatedFmt, m.CreatedAtUTC, err)
	}
	seen := make(map[string]struct{}, len(m.Environments))
	for _, entry := range m.Environments {
		switch entry.Method {
		case MethodExported, MethodCopiedRaw, MethodFailed:
		default:
			return fmt.Errorf(messages.ManifestBadMethodFmt, entry.Method)
		}
		if _, ok := seen[entry.Name]; ok {
			return fmt.Errorf(messages.ManifestDupEnvFmt, entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	return nil
}
