package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCheckpointMissingFileMeansNotStarted(t *testing.T) {
	cp, err := LoadCheckpoint(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, cp.State)
	assert.Equal(t, StateNotStarted, cp.LastCompleted)
}

func TestSaveThenLoadCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	err := SaveCheckpoint(path, Checkpoint{
		State:         StateFailed,
		FailedStep:    "install",
		FailedCause:   "download timed out",
		LastCompleted: StateRemoved,
	})
	require.NoError(t, err)

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, cp.State)
	assert.Equal(t, "install", cp.FailedStep)
	assert.Equal(t, "download timed out", cp.FailedCause)
	assert.Equal(t, StateRemoved, cp.LastCompleted)
	assert.Equal(t, SchemaVersion, cp.SchemaVersion)
	assert.NotEmpty(t, cp.UpdatedAtUTC)
}

func TestSaveCheckpointOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveCheckpoint(path, Checkpoint{State: StateBackedUp, LastCompleted: StateBackedUp}))
	require.NoError(t, SaveCheckpoint(path, Checkpoint{State: StateRemoved, LastCompleted: StateRemoved}))

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, cp.State)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSaveCheckpointRejectsUnknownState(t *testing.T) {
	err := SaveCheckpoint(filepath.Join(t.TempDir(), "state.json"), Checkpoint{State: "paused"})
	assert.Error(t, err)
}

func TestLoadCheckpointRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadCheckpoint(path)
	assert.Error(t, err)
}
