package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() Manifest {
	m := New("/home/u/anaconda3")
	m.ConfigFiles = []ConfigFileResult{
		{Source: "/home/u/.condarc", Dest: "/backup/config/.condarc", Status: ConfigFileCopied},
		{Source: "/home/u/.conda", Status: ConfigFileMissing},
	}
	m.Channels = []string{"conda-forge", "defaults"}
	m.Environments = []EnvironmentEntry{
		{Name: "base", Method: MethodExported, Path: "/backup/envs/base.yml"},
		{Name: "science", Method: MethodCopiedRaw, Path: "/backup/envs/science", Error: "export failed"},
		{Name: "broken", Method: MethodFailed, Error: "export and copy failed"},
	}
	return m
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	want := sampleManifest()
	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestWriteRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{name: "wrong schema version", mutate: func(m *Manifest) { m.SchemaVersion = 99 }},
		{name: "empty created timestamp", mutate: func(m *Manifest) { m.CreatedAtUTC = "" }},
		{name: "malformed created timestamp", mutate: func(m *Manifest) { m.CreatedAtUTC = "yesterday" }},
		{name: "unknown method", mutate: func(m *Manifest) { m.Environments[0].Method = "zipped" }},
		{name: "duplicate environment name", mutate: func(m *Manifest) {
			m.Environments = append(m.Environments, EnvironmentEntry{Name: "base", Method: MethodExported})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleManifest()
			tt.mutate(&m)
			err := Write(filepath.Join(t.TempDir(), "manifest.json"), m)
			assert.Error(t, err)
		})
	}
}

func TestConfigBackupSucceeded(t *testing.T) {
	m := sampleManifest()
	assert.True(t, m.ConfigBackupSucceeded(), "missing files must not block removal")

	m.ConfigFiles = append(m.ConfigFiles, ConfigFileResult{
		Source: "/home/u/.continuum",
		Status: ConfigFileFailed,
		Error:  "permission denied",
	})
	assert.False(t, m.ConfigBackupSucceeded())
}

func TestConfigBackupSucceededEmpty(t *testing.T) {
	assert.True(t, New("/opt/anaconda3").ConfigBackupSucceeded())
}

func TestFailedEnvironments(t *testing.T) {
	m := sampleManifest()
	assert.Equal(t, []string{"broken"}, m.FailedEnvironments())

	m.Environments = m.Environments[:2]
	assert.Empty(t, m.FailedEnvironments())
}

func TestNewStampsRFC3339(t *testing.T) {
	m := New("/opt/anaconda3")
	assert.Equal(t, SchemaVersion, m.SchemaVersion)
	assert.Equal(t, "/opt/anaconda3", m.SourceInstall)
	assert.True(t, strings.HasSuffix(m.CreatedAtUTC, "Z"), "timestamp must be UTC: %s", m.CreatedAtUTC)
}
