package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/steplog"
)

type fakeInfo struct {
	name string
	dir  bool
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() os.FileMode  { return 0o755 }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.dir }
func (f fakeInfo) Sys() any           { return nil }

// mockSystem records operations and simulates failures per path.
type mockSystem struct {
	dirs        map[string]bool
	files       map[string]bool
	copyFileErr map[string]error
	copyDirErr  map[string]error
	copiedFiles []string
	copiedDirs  []string
}

func newMockSystem() *mockSystem {
	return &mockSystem{
		dirs:        make(map[string]bool),
		files:       make(map[string]bool),
		copyFileErr: make(map[string]error),
		copyDirErr:  make(map[string]error),
	}
}

func (m *mockSystem) Stat(name string) (os.FileInfo, error) {
	if m.dirs[name] {
		return fakeInfo{name: name, dir: true}, nil
	}
	if m.files[name] {
		return fakeInfo{name: name}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockSystem) MkdirAll(path string, perm os.FileMode) error { return nil }

func (m *mockSystem) CopyFile(src string, dst string) error {
	if err := m.copyFileErr[src]; err != nil {
		return err
	}
	m.copiedFiles = append(m.copiedFiles, src)
	return nil
}

func (m *mockSystem) CopyDir(src string, dst string) error {
	if err := m.copyDirErr[src]; err != nil {
		return err
	}
	m.copiedDirs = append(m.copiedDirs, src)
	return nil
}

func (m *mockSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return nil
}

// mockClient simulates the package tool.
type mockClient struct {
	channels    []string
	channelsErr error
	envs        []string
	envsErr     error
	exportErr   map[string]error
	exported    []string
}

func (c *mockClient) Version(ctx context.Context) (string, error) { return "tool 1.0", nil }

func (c *mockClient) Channels(ctx context.Context) ([]string, error) {
	return c.channels, c.channelsErr
}

func (c *mockClient) ListEnvs(ctx context.Context) ([]string, error) {
	return c.envs, c.envsErr
}

func (c *mockClient) ExportEnv(ctx context.Context, name string, destFile string) error {
	if err := c.exportErr[name]; err != nil {
		return err
	}
	c.exported = append(c.exported, name)
	return nil
}

func (c *mockClient) Deactivate(ctx context.Context) error              { return nil }
func (c *mockClient) AddChannel(ctx context.Context, name string) error { return nil }
func (c *mockClient) RemoveChannel(ctx context.Context, name string) error {
	return nil
}
func (c *mockClient) InitShell(ctx context.Context, shell string) error { return nil }

func newTestManager(t *testing.T, sys *mockSystem, client *mockClient) (*Manager, string) {
	t.Helper()
	backupRoot := t.TempDir()
	mgr := NewManager(sys, client, steplog.NewForWriter(io.Discard), Options{
		HomeDir:    "/home/u",
		InstallDir: "/home/u/anaconda3",
		EnvsDir:    "/home/u/anaconda3/envs",
		BackupRoot: backupRoot,
	})
	return mgr, backupRoot
}

func TestRunHappyPath(t *testing.T) {
	sys := newMockSystem()
	sys.files["/home/u/.condarc"] = true
	sys.dirs["/home/u/.conda"] = true
	sys.dirs["/home/u/anaconda3/envs"] = true
	client := &mockClient{
		channels: []string{"conda-forge", "defaults"},
		envs:     []string{"base", "science", "ml"},
	}
	mgr, _ := newTestManager(t, sys, client)

	record, err := mgr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"conda-forge", "defaults"}, record.Channels)
	require.Len(t, record.Environments, 3)
	for _, entry := range record.Environments {
		assert.Equal(t, manifest.MethodExported, entry.Method)
	}
	assert.True(t, record.ConfigBackupSucceeded())
	assert.Empty(t, record.BulkCopyError)
	assert.Contains(t, sys.copiedDirs, "/home/u/anaconda3/envs")

	// The manifest on disk matches what Run returned.
	onDisk, err := manifest.Read(mgr.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, record.Environments, onDisk.Environments)
}

func TestRunFallsBackToRawCopy(t *testing.T) {
	sys := newMockSystem()
	sys.dirs["/home/u/anaconda3/envs"] = true
	sys.dirs["/home/u/anaconda3/envs/science"] = true
	client := &mockClient{
		envs:      []string{"base", "science"},
		exportErr: map[string]error{"science": errors.New("export blew up")},
	}
	mgr, _ := newTestManager(t, sys, client)

	record, err := mgr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, record.Environments, 2)
	assert.Equal(t, manifest.MethodExported, record.Environments[0].Method)
	assert.Equal(t, manifest.MethodCopiedRaw, record.Environments[1].Method)
	assert.Contains(t, sys.copiedDirs, "/home/u/anaconda3/envs/science")
}

func TestRunRecordsFailedEnvironmentWithoutAborting(t *testing.T) {
	sys := newMockSystem()
	sys.dirs["/home/u/anaconda3/envs"] = true
	// The "ghost" environment has no directory, so export failure cannot
	// fall back to a raw copy.
	client := &mockClient{
		envs:      []string{"ghost", "base"},
		exportErr: map[string]error{"ghost": errors.New("no such environment")},
	}
	mgr, _ := newTestManager(t, sys, client)

	record, err := mgr.Run(context.Background())
	require.NoError(t, err, "one failed environment must not abort the batch")
	require.Len(t, record.Environments, 2)
	assert.Equal(t, manifest.MethodFailed, record.Environments[0].Method)
	assert.NotEmpty(t, record.Environments[0].Error)
	assert.Equal(t, manifest.MethodExported, record.Environments[1].Method)
	assert.Equal(t, []string{"ghost"}, record.FailedEnvironments())
}

func TestRunEnvListFailureStillWritesManifest(t *testing.T) {
	sys := newMockSystem()
	sys.files["/home/u/.condarc"] = true
	client := &mockClient{envsErr: errors.New("tool not found")}
	mgr, _ := newTestManager(t, sys, client)

	_, err := mgr.Run(context.Background())
	require.Error(t, err)

	onDisk, readErr := manifest.Read(mgr.ManifestPath())
	require.NoError(t, readErr, "partial manifest must still be written")
	assert.True(t, onDisk.ConfigBackupSucceeded())
	assert.Empty(t, onDisk.Environments)
}

func TestBackupConfigFiles(t *testing.T) {
	sys := newMockSystem()
	sys.files["/home/u/.condarc"] = true
	sys.dirs["/home/u/.conda"] = true
	mgr, _ := newTestManager(t, sys, &mockClient{})

	results := mgr.BackupConfigFiles()
	require.Len(t, results, 2)
	assert.Equal(t, manifest.ConfigFileCopied, results[0].Status)
	assert.Equal(t, manifest.ConfigFileCopied, results[1].Status)
	assert.Contains(t, sys.copiedFiles, "/home/u/.condarc")
	assert.Contains(t, sys.copiedDirs, "/home/u/.conda")
	assert.NotContains(t, sys.copiedFiles, "/home/u/.conda", "directories must not get a file copy attempt")
	assert.NotContains(t, sys.copiedDirs, "/home/u/.condarc")
}

func TestBackupConfigFilesMissingIsWarning(t *testing.T) {
	sys := newMockSystem()
	mgr, _ := newTestManager(t, sys, &mockClient{})

	results := mgr.BackupConfigFiles()
	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, manifest.ConfigFileMissing, result.Status)
		assert.Empty(t, result.Error)
	}
	rec := manifest.New("/home/u/anaconda3")
	rec.ConfigFiles = results
	assert.True(t, rec.ConfigBackupSucceeded())
}

func TestBackupConfigFilesCopyFailureBlocksRemoval(t *testing.T) {
	sys := newMockSystem()
	sys.files["/home/u/.condarc"] = true
	sys.copyFileErr["/home/u/.condarc"] = errors.New("disk full")
	mgr, _ := newTestManager(t, sys, &mockClient{})

	results := mgr.BackupConfigFiles()
	rec := manifest.New("/home/u/anaconda3")
	rec.ConfigFiles = results
	assert.False(t, rec.ConfigBackupSucceeded())
}

func TestCaptureChannelsFailureIsNonFatal(t *testing.T) {
	sys := newMockSystem()
	mgr, _ := newTestManager(t, sys, &mockClient{channelsErr: errors.New("no config")})

	channels, path := mgr.CaptureChannels(context.Background())
	assert.Nil(t, channels)
	assert.Empty(t, path)
}

func TestBulkCopyMissingEnvsDirIsNoop(t *testing.T) {
	sys := newMockSystem()
	mgr, _ := newTestManager(t, sys, &mockClient{})

	require.NoError(t, mgr.BulkCopyEnvironmentsDir())
	assert.Empty(t, sys.copiedDirs)
}

func TestRunBulkCopyFailureRecordedNotFatal(t *testing.T) {
	sys := newMockSystem()
	sys.dirs["/home/u/anaconda3/envs"] = true
	sys.copyDirErr["/home/u/anaconda3/envs"] = errors.New("no space left")
	client := &mockClient{envs: []string{"base"}}
	mgr, _ := newTestManager(t, sys, client)

	record, err := mgr.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, record.BulkCopyError, "no space left")
	assert.Empty(t, record.BulkCopyPath)
}

func TestManifestPath(t *testing.T) {
	mgr, backupRoot := newTestManager(t, newMockSystem(), &mockClient{})
	assert.Equal(t, filepath.Join(backupRoot, "manifest.json"), mgr.ManifestPath())
}
