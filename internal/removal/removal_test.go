package removal

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/steplog"
)

type fakeInfo struct{ name string }

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() os.FileMode  { return 0o755 }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return true }
func (f fakeInfo) Sys() any           { return nil }

type mockSystem struct {
	existing map[string]bool
	removed  []string
}

func newMockSystem(existing ...string) *mockSystem {
	m := &mockSystem{existing: make(map[string]bool)}
	for _, path := range existing {
		m.existing[path] = true
	}
	return m
}

func (m *mockSystem) Stat(name string) (os.FileInfo, error) {
	if m.existing[name] {
		return fakeInfo{name: name}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockSystem) ReadFile(name string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func (m *mockSystem) RemoveAll(path string) error {
	m.removed = append(m.removed, path)
	delete(m.existing, path)
	return nil
}

func (m *mockSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return nil
}

type mockClient struct {
	deactivateErr error
	deactivated   bool
}

func (c *mockClient) Version(ctx context.Context) (string, error)      { return "tool 1.0", nil }
func (c *mockClient) Channels(ctx context.Context) ([]string, error)   { return nil, nil }
func (c *mockClient) ListEnvs(ctx context.Context) ([]string, error)   { return nil, nil }
func (c *mockClient) ExportEnv(ctx context.Context, name string, destFile string) error {
	return nil
}
func (c *mockClient) Deactivate(ctx context.Context) error {
	c.deactivated = true
	return c.deactivateErr
}
func (c *mockClient) AddChannel(ctx context.Context, name string) error    { return nil }
func (c *mockClient) RemoveChannel(ctx context.Context, name string) error { return nil }
func (c *mockClient) InitShell(ctx context.Context, shell string) error    { return nil }

type memoryStore struct {
	value  string
	stored []string
}

func (s *memoryStore) Load() (string, error) { return s.value, nil }

func (s *memoryStore) Store(value string) error {
	s.value = value
	s.stored = append(s.stored, value)
	return nil
}

func goodManifest() manifest.Manifest {
	m := manifest.New("/home/u/anaconda3")
	m.ConfigFiles = []manifest.ConfigFileResult{
		{Source: "/home/u/.condarc", Status: manifest.ConfigFileCopied},
	}
	return m
}

func newTestManager(sys *mockSystem, client *mockClient, store SearchPathStore) *Manager {
	return NewManager(sys, client, steplog.NewForWriter(io.Discard), Options{
		HomeDir:    "/home/u",
		InstallDir: "/home/u/anaconda3",
		Store:      store,
	})
}

func TestRunDeletesInstallAndLeftovers(t *testing.T) {
	sys := newMockSystem("/home/u/anaconda3", "/home/u/.conda", "/home/u/.continuum")
	client := &mockClient{}
	store := &memoryStore{value: joinSearchPath("/home/u/anaconda3/bin", "/usr/bin")}
	mgr := newTestManager(sys, client, store)

	require.NoError(t, mgr.Run(context.Background(), goodManifest()))
	assert.True(t, client.deactivated)
	assert.Equal(t, []string{"/home/u/anaconda3", "/home/u/.conda", "/home/u/.continuum"}, sys.removed)
	assert.Equal(t, "/usr/bin", store.value)
}

func TestRunRefusesWhenConfigBackupFailed(t *testing.T) {
	sys := newMockSystem("/home/u/anaconda3")
	client := &mockClient{}
	mgr := newTestManager(sys, client, nil)

	record := goodManifest()
	record.ConfigFiles = append(record.ConfigFiles, manifest.ConfigFileResult{
		Source: "/home/u/.conda",
		Status: manifest.ConfigFileFailed,
		Error:  "permission denied",
	})

	err := mgr.Run(context.Background(), record)
	require.Error(t, err)
	assert.Empty(t, sys.removed, "nothing may be deleted when the gate fails")
	assert.False(t, client.deactivated)
}

func TestRunAbortsOnDeactivateFailure(t *testing.T) {
	sys := newMockSystem("/home/u/anaconda3")
	client := &mockClient{deactivateErr: errors.New("activation script hung")}
	mgr := newTestManager(sys, client, nil)

	err := mgr.Run(context.Background(), goodManifest())
	require.Error(t, err)
	assert.Empty(t, sys.removed, "deletion must not start after a failed deactivate")
}

func TestDeleteIfExistsAbsentPath(t *testing.T) {
	sys := newMockSystem()
	mgr := newTestManager(sys, &mockClient{}, nil)

	require.NoError(t, mgr.DeleteIfExists("/home/u/.continuum"))
	assert.Empty(t, sys.removed)
}

func TestUpdateSearchPathNoopLeavesStoreUntouched(t *testing.T) {
	sys := newMockSystem()
	store := &memoryStore{value: joinSearchPath("/usr/local/bin", "/usr/bin")}
	mgr := newTestManager(sys, &mockClient{}, store)

	require.NoError(t, mgr.UpdateSearchPath())
	assert.Empty(t, store.stored, "unchanged search path must not be rewritten")
}

func TestUpdateSearchPathNilStore(t *testing.T) {
	mgr := newTestManager(newMockSystem(), &mockClient{}, nil)
	require.NoError(t, mgr.UpdateSearchPath())
}
