//go:build !windows

package removal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileSystem struct {
	contents map[string][]byte
}

func (f *fileSystem) Stat(name string) (os.FileInfo, error) {
	if _, ok := f.contents[name]; ok {
		return fakeInfo{name: name}, nil
	}
	return nil, os.ErrNotExist
}

func (f *fileSystem) ReadFile(name string) ([]byte, error) {
	if data, ok := f.contents[name]; ok {
		return data, nil
	}
	return nil, os.ErrNotExist
}

func (f *fileSystem) RemoveAll(path string) error {
	delete(f.contents, path)
	return nil
}

func (f *fileSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	f.contents[filename] = data
	return nil
}

func TestEnvFileStoreLoad(t *testing.T) {
	sys := &fileSystem{contents: map[string][]byte{
		"/home/u/.profile": []byte("# profile\nexport PATH=\"/home/u/anaconda3/bin:/usr/bin\"\n"),
	}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile"}

	value, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/anaconda3/bin:/usr/bin", value)
}

func TestEnvFileStoreLoadMissingFileFallsBackToProcessEnv(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	sys := &fileSystem{contents: map[string][]byte{}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile"}

	value, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin", value)
}

func TestEnvFileStoreLoadMissingKeyFallsBackToProcessEnv(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	sys := &fileSystem{contents: map[string][]byte{
		"/home/u/.profile": []byte("EDITOR=vim\n"),
	}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile"}

	value, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin", value)
}

func TestEnvFileStoreStorePatchesOnlyPath(t *testing.T) {
	sys := &fileSystem{contents: map[string][]byte{
		"/home/u/.profile": []byte("# profile\nexport PATH=/home/u/anaconda3/bin:/usr/bin\nEDITOR=vim\n"),
	}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile"}

	require.NoError(t, store.Store("/usr/bin"))
	got := string(sys.contents["/home/u/.profile"])
	assert.Contains(t, got, "export PATH=/usr/bin\n")
	assert.Contains(t, got, "# profile\n")
	assert.Contains(t, got, "EDITOR=vim")
	assert.NotContains(t, got, "anaconda3")
}

func TestEnvFileStoreStoreCreatesFile(t *testing.T) {
	sys := &fileSystem{contents: map[string][]byte{}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile"}

	require.NoError(t, store.Store("/usr/bin"))
	assert.Equal(t, "PATH=/usr/bin\n", string(sys.contents["/home/u/.profile"]))
}

func TestEnvFileStoreCustomKey(t *testing.T) {
	sys := &fileSystem{contents: map[string][]byte{
		"/home/u/.profile": []byte("MYPATH=/home/u/anaconda3/bin\n"),
	}}
	store := EnvFileStore{Sys: sys, Path: "/home/u/.profile", Key: "MYPATH"}

	value, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/anaconda3/bin", value)
}
